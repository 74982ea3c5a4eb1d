package gcode

import "strings"

// Stmt is one line of a program. Statements that cannot be represented as
// words (extended commands, display messages, macro text) keep their text
// in Raw and are written back verbatim.
type Stmt struct {
	// Line is the 1-based source line, or 0 for generated statements.
	Line    int
	Block   Block
	Raw     string
	Comment string
}

// RawStmt returns a passthrough statement for text.
func RawStmt(text string) Stmt {
	return Stmt{Raw: strings.TrimSpace(text)}
}

func (s Stmt) IsRaw() bool { return s.Raw != "" }

func (s Stmt) String() string {
	str := s.Raw
	if str == "" {
		str = s.Block.String()
	}
	if s.Comment != "" {
		if str != "" {
			str += " "
		}
		str += ";" + s.Comment
	}
	return str
}
