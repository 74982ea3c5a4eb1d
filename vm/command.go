package vm

import (
	"github.com/mastercactapus/gribbon/coord"
	"github.com/mastercactapus/gribbon/gcode"
)

// A Command is the effect of one statement on the toolpath.
type Command interface {
	SourceLine() int
}

// Move is a linear move. Omitted axes were filled in from the previous
// position before the move was built.
type Move struct {
	From, To coord.Point

	// Feed is the active feed rate in mm/min.
	Feed float64
	// Extrude is the filament length pushed during the move.
	Extrude float64

	Rapid bool
	Tool  int
	Line  int
}

func (m Move) SourceLine() int { return m.Line }

// Extruding reports whether the move pushes or pulls filament.
func (m Move) Extruding() bool { return m.Extrude != 0 }

func (m Move) Length() float64 { return m.From.Distance(m.To) }

type ToolChange struct {
	Tool int
	Line int
}

func (t ToolChange) SourceLine() int { return t.Line }

// Home resets the named axes (all when empty) to zero.
type Home struct {
	Axes []byte
	Line int
}

func (h Home) SourceLine() int { return h.Line }

// Passthrough is a statement that does not affect the toolpath.
type Passthrough struct {
	Stmt gcode.Stmt
}

func (p Passthrough) SourceLine() int { return p.Stmt.Line }
