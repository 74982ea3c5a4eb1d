package gcode

import (
	"errors"
	"strings"
)

type Block []Word

func (b Block) Arg(w byte) (bool, float64) {
	for _, g := range b {
		if g.W == w {
			return true, g.Arg
		}
	}
	return false, 0
}
func (b Block) SetArg(w byte, val float64) {
	for i, g := range b {
		if g.W == w {
			b[i].Arg = val
			return
		}
	}
}

// With returns b with the argument of w set to val, appending the word
// when b does not carry it.
func (b Block) With(w byte, val float64) Block {
	for i, g := range b {
		if g.W == w {
			b[i].Arg = val
			return b
		}
	}
	return append(b, Word{W: w, Arg: val})
}

// Has reports whether the block carries the exact word letter+arg.
func (b Block) Has(letter byte, arg float64) bool {
	for _, g := range b {
		if g.Is(letter, arg) {
			return true
		}
	}
	return false
}

func (b Block) Args() Block {
	res := make(Block, 0, len(b))
	for _, g := range b {
		if g.ModalGroup() == ModalGroupNone {
			res = append(res, g)
		}
	}
	return res
}
func (b Block) Clone() Block {
	c := make(Block, len(b))
	copy(c, b)
	return c
}

func (b Block) Validate() error {
	var checkWord [256]bool
	var checkModal [256]bool

	var m ModalGroup
	for _, g := range b {
		if !g.IsValid() {
			return errors.New("invalid word in block")
		}
		if g.W != 'G' && g.W != 'M' && checkWord[g.W] {
			return errors.New("word was repeated in a block")
		}
		checkWord[g.W] = true
		m = g.ModalGroup()
		if m != ModalGroupNone && checkModal[m] {
			return errors.New("multiple words from same modal group")
		}
		checkModal[m] = true
	}

	return nil
}

func (b Block) String() string {
	parts := make([]string, len(b))
	for i, w := range b {
		parts[i] = w.String()
	}
	return strings.Join(parts, " ")
}
