// Package toolpath holds the in-memory toolpath model built from G-code and
// the passes that turn its command stream into islands of paired
// centerline/height vertices.
package toolpath

import (
	"fmt"
	"math"

	"github.com/mastercactapus/gribbon/coord"
	"github.com/mastercactapus/gribbon/vm"
)

// BeadWidthFactor scales the nozzle diameter to the extruded bead width.
const BeadWidthFactor = 1.5

// Error is an island invariant violation. Errors found while classifying
// carry the input Line instead of a layer and island, which are -1.
type Error struct {
	Layer, Island int
	Line          int
	Reason        string
	Err           error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("toolpath: line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("toolpath: layer %d island %d: %s", e.Layer, e.Island, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// ExtrusionVertex is a point on the nozzle path with its normalized
// attributes.
type ExtrusionVertex struct {
	coord.Point

	Flow   float64
	Speed  float64
	Tool   float64
	LayerZ float64
}

// Island is one continuous extrusion run. Height[i] is paired with
// Centerline[i]; its offset from the centerline encodes the bead height.
type Island struct {
	Centerline []ExtrusionVertex
	Height     []coord.Point
	Closed     bool
	Tool       int
}

// Segments returns the number of extrusion segments in the island,
// including the closing segment of a closed island.
func (is *Island) Segments() int {
	if is.Closed {
		return len(is.Centerline)
	}
	return len(is.Centerline) - 1
}

type Layer struct {
	Z       float64
	Islands []*Island
}

// Model is the toolpath of one job. Commands is the tracked command stream
// in file order; Layers is filled in by Classify.
type Model struct {
	NozzleDiameter   float64
	FilamentDiameter float64

	Commands []vm.Command
	Layers   []*Layer
}

func NewModel(nozzleDiameter, filamentDiameter float64) *Model {
	return &Model{
		NozzleDiameter:   nozzleDiameter,
		FilamentDiameter: filamentDiameter,
	}
}

// FilamentArea is the cross-section of the filament in mm².
func (m *Model) FilamentArea() float64 {
	r := m.FilamentDiameter / 2
	return math.Pi * r * r
}

// BeadWidth is the width of an extruded bead in mm.
func (m *Model) BeadWidth() float64 {
	return m.NozzleDiameter * BeadWidthFactor
}

// Moves returns every move in the command stream.
func (m *Model) Moves() []vm.Move {
	var res []vm.Move
	for _, c := range m.Commands {
		if mv, ok := c.(vm.Move); ok {
			res = append(res, mv)
		}
	}
	return res
}

// deposits reports whether mv lays down material along a path.
func deposits(mv vm.Move) bool {
	return mv.Extrude > 0 && mv.Length() > coord.Epsilon
}

// DepositedExtrusion is the filament length of every move that lays down
// material along a path. Retracts, primes and travel are not counted.
func (m *Model) DepositedExtrusion() float64 {
	var total float64
	for _, mv := range m.Moves() {
		if deposits(mv) {
			total += mv.Extrude
		}
	}
	return total
}

// Islands returns every island, layer by layer.
func (m *Model) Islands() []*Island {
	var res []*Island
	for _, l := range m.Layers {
		res = append(res, l.Islands...)
	}
	return res
}

func unit(v float64) bool { return v >= 0 && v <= 1 }

// Validate checks the island invariants.
func (m *Model) Validate() error {
	for li, l := range m.Layers {
		for ii, is := range l.Islands {
			fail := func(format string, args ...interface{}) error {
				return &Error{Layer: li, Island: ii, Reason: fmt.Sprintf(format, args...)}
			}
			if len(is.Centerline) != len(is.Height) {
				return fail("%d centerline vertices but %d height vertices", len(is.Centerline), len(is.Height))
			}
			if len(is.Centerline) < 2 {
				return fail("fewer than 2 vertices")
			}
			for i, v := range is.Centerline {
				if !v.IsFinite() || !is.Height[i].IsFinite() {
					return fail("vertex %d is not finite", i)
				}
				if math.Abs(v.Z-l.Z) > coord.Epsilon || math.Abs(v.LayerZ-l.Z) > coord.Epsilon {
					return fail("vertex %d is off layer Z %g", i, l.Z)
				}
				if !unit(v.Flow) || !unit(v.Speed) || !unit(v.Tool) {
					return fail("vertex %d attribute outside [0,1]", i)
				}
			}
		}
	}
	return nil
}
