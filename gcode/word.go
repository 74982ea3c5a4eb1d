package gcode

import (
	"strconv"
	"strings"
)

type Word struct {
	W   byte
	Arg float64
}

func (w Word) IsAxis() bool {
	switch w.W {
	case 'X', 'Y', 'Z':
		return true
	}
	return false
}

func (w Word) IsValid() bool {
	return w.W >= 'A' && w.W <= 'Z'
}

// Is reports whether w is the letter and argument given, e.g. w.Is('G', 1).
func (w Word) Is(letter byte, arg float64) bool {
	return w.W == letter && w.Arg == arg
}

func formatFloat(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
	}
	s = strings.TrimRight(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func (w Word) String() string {
	prec := 3
	if w.W == 'E' {
		// filament length needs more resolution than position
		prec = 5
	}
	return string(w.W) + formatFloat(w.Arg, prec)
}
