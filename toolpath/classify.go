package toolpath

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mastercactapus/gribbon/coord"
	"github.com/mastercactapus/gribbon/vm"
)

// ErrNonPlanar is wrapped by the *Error Classify returns for a move that
// deposits material while changing Z (spiral vase output).
var ErrNonPlanar = errors.New("extrusion changes Z")

type run struct {
	tool int
	z    float64
	segs []vm.Move
}

func (r *run) accepts(mv vm.Move) bool {
	if r.tool != mv.Tool || math.Abs(r.z-mv.To.Z) > coord.Epsilon {
		return false
	}
	return r.segs[len(r.segs)-1].To.Near(mv.From, coord.Epsilon)
}

// Classify groups the depositing moves of m into islands and layers,
// replacing m.Layers.
//
// An island is a maximal run of moves with positive extrusion, nonzero
// length, one tool and one Z. Zero-length moves (retract and prime in
// place) and passthrough are skipped; any other move, a tool change or a
// homing ends the run.
func Classify(m *Model) error {
	if m.NozzleDiameter <= 0 || m.FilamentDiameter <= 0 {
		return fmt.Errorf("classify: nozzle and filament diameter must be positive")
	}

	var maxFeed float64
	for _, mv := range m.Moves() {
		if deposits(mv) {
			maxFeed = math.Max(maxFeed, mv.Feed)
		}
	}

	var islands []*Island
	var cur *run
	flush := func() {
		if cur != nil {
			islands = append(islands, m.island(cur, maxFeed))
		}
		cur = nil
	}

	for _, c := range m.Commands {
		switch c := c.(type) {
		case vm.Move:
			if deposits(c) {
				if math.Abs(c.From.Z-c.To.Z) > coord.Epsilon {
					return &Error{
						Layer: -1, Island: -1, Line: c.Line,
						Reason: fmt.Sprintf("%v from Z%g to Z%g", ErrNonPlanar, c.From.Z, c.To.Z),
						Err:    ErrNonPlanar,
					}
				}
				if cur != nil && !cur.accepts(c) {
					flush()
				}
				if cur == nil {
					cur = &run{tool: c.Tool, z: c.From.Z}
				}
				cur.segs = append(cur.segs, c)
				continue
			}
			if c.Length() > coord.Epsilon {
				flush()
			}
		case vm.ToolChange, vm.Home:
			flush()
		}
	}
	flush()

	m.Layers = nil
	for _, is := range islands {
		z := is.Centerline[0].LayerZ
		var l *Layer
		for _, cand := range m.Layers {
			if math.Abs(cand.Z-z) <= coord.Epsilon {
				l = cand
				break
			}
		}
		if l == nil {
			l = &Layer{Z: z}
			m.Layers = append(m.Layers, l)
		}
		l.Islands = append(l.Islands, is)
	}
	sort.SliceStable(m.Layers, func(i, j int) bool { return m.Layers[i].Z < m.Layers[j].Z })

	return m.Validate()
}

// beadHeight is the height of a bead of width w that holds e mm of
// filament over length l.
func (m *Model) beadHeight(mv vm.Move) float64 {
	return mv.Extrude * m.FilamentArea() / (mv.Length() * m.BeadWidth())
}

func (m *Model) island(r *run, maxFeed float64) *Island {
	tool := 0.0
	if r.tool == 0 {
		tool = 1
	}
	speed := func(mv vm.Move) float64 {
		if maxFeed <= 0 {
			return 1
		}
		return mv.Feed / maxFeed
	}
	vertex := func(p coord.Point, mv vm.Move) ExtrusionVertex {
		return ExtrusionVertex{Point: p, Flow: 1, Speed: speed(mv), Tool: tool, LayerZ: r.z}
	}
	below := func(p coord.Point, h float64) coord.Point {
		return p.Sub(coord.Point{Z: h})
	}

	segs := r.segs
	first, last := segs[0], segs[len(segs)-1]
	is := &Island{Tool: r.tool}
	is.Closed = len(segs) >= 3 && last.To.Near(first.From, coord.Epsilon)

	startHeight := m.beadHeight(first)
	if is.Closed {
		startHeight = m.beadHeight(last)
	}
	is.Centerline = append(is.Centerline, vertex(first.From, first))
	is.Height = append(is.Height, below(first.From, startHeight))

	if is.Closed {
		segs = segs[:len(segs)-1]
	}
	for i, mv := range segs {
		// the far end of a segment keeps the feed of the segment leaving it
		next := mv
		if i+1 < len(r.segs) {
			next = r.segs[i+1]
		}
		is.Centerline = append(is.Centerline, vertex(mv.To, next))
		is.Height = append(is.Height, below(mv.To, m.beadHeight(mv)))
	}

	return is
}
