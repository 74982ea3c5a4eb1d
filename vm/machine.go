package vm

import (
	"fmt"
	"math"

	"github.com/mastercactapus/gribbon/coord"
	"github.com/mastercactapus/gribbon/gcode"
)

// DefaultArcResolution is the chord length, in mm, used to linearize arcs.
const DefaultArcResolution = 1.0

type ExtrusionMode int

const (
	AbsoluteExtrusion ExtrusionMode = iota
	RelativeExtrusion
)

func (e ExtrusionMode) String() string {
	if e == RelativeExtrusion {
		return "relative"
	}
	return "absolute"
}

// State is a snapshot of the tracked machine state.
type State struct {
	Pos            coord.Point
	E              float64
	Feed           float64
	Tool           int
	Extrusion      ExtrusionMode
	RelativeMotion bool
	Inches         bool
}

// Machine tracks machine state one statement at a time and turns
// statements into Commands.
type Machine struct {
	pos  coord.Point
	e    float64
	feed float64
	tool int

	modal [256]float64

	ArcResolution float64
}

func NewMachine() *Machine {
	m := &Machine{ArcResolution: DefaultArcResolution}

	// Marlin power-on defaults
	m.modal[gcode.ModalGroupMotion] = 0
	m.modal[gcode.ModalGroupPlaneSelection] = 17
	m.modal[gcode.ModalGroupDistanceMode] = 90
	m.modal[gcode.ModalGroupArcDistanceMode] = 91.1
	m.modal[gcode.ModalGroupUnits] = 21
	m.modal[gcode.ModalGroupExtrusionMode] = 82

	return m
}

func (m Machine) Inches() bool         { return m.modal[gcode.ModalGroupUnits] == 20 }
func (m Machine) RelativeMotion() bool { return m.modal[gcode.ModalGroupDistanceMode] == 91 }

func (m Machine) Extrusion() ExtrusionMode {
	if m.modal[gcode.ModalGroupExtrusionMode] == 83 {
		return RelativeExtrusion
	}
	return AbsoluteExtrusion
}

func (m Machine) Pos() coord.Point { return m.pos }

func (m Machine) State() State {
	return State{
		Pos:            m.pos,
		E:              m.e,
		Feed:           m.feed,
		Tool:           m.tool,
		Extrusion:      m.Extrusion(),
		RelativeMotion: m.RelativeMotion(),
		Inches:         m.Inches(),
	}
}

func unsupported(w gcode.Word) error {
	return fmt.Errorf("%w %s", gcode.ErrUnsupported, w)
}

func isSupported(g gcode.Word) bool {
	switch g.ModalGroup() {
	case gcode.ModalGroupMotion:
		switch g.Arg {
		case 0, 1, 2, 3:
			return true
		}
		return false
	case gcode.ModalGroupCoordinateSystem:
		return g.Arg == 54
	case gcode.ModalGroupFeedRateMode:
		return g.Arg == 94
	}
	return !g.Is('G', 53)
}

func (m Machine) unitScale() float64 {
	if m.Inches() {
		return 25.4
	}
	return 1
}

// Run applies one statement and returns the commands it produced.
func (m *Machine) Run(st gcode.Stmt) ([]Command, error) {
	b := st.Block
	if st.IsRaw() || len(b) == 0 {
		return []Command{Passthrough{Stmt: st}}, nil
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	for _, g := range b {
		if !isSupported(g) {
			return nil, unsupported(g)
		}
	}

	// words that are parameters of an M code (M104 S200 T1) are not state
	if b[0].W == 'M' && !b.Has('M', 82) && !b.Has('M', 83) && !b.Has('M', 6) {
		return []Command{Passthrough{Stmt: st}}, nil
	}

	var nonModal *gcode.Word
	var toolChange *ToolChange
	for i, g := range b {
		mg := g.ModalGroup()
		switch {
		case g.W == 'G' && mg == gcode.ModalGroupNone:
			// codes without tracked state (G29, G34 ...) pass through
			nonModal = &b[i]
		case mg == gcode.ModalGroupNonModal:
			nonModal = &b[i]
		case g.Is('G', 90):
			m.modal[mg] = 90
			m.modal[gcode.ModalGroupExtrusionMode] = 82
		case g.Is('G', 91):
			m.modal[mg] = 91
			m.modal[gcode.ModalGroupExtrusionMode] = 83
		case mg == gcode.ModalGroupFeedRate:
			if g.Arg <= 0 {
				return nil, fmt.Errorf("feed rate must be positive: %s", g)
			}
			m.feed = g.Arg * m.unitScale()
		case mg == gcode.ModalGroupToolSelect:
			if g.Arg < 0 || g.Arg != math.Trunc(g.Arg) {
				return nil, fmt.Errorf("invalid tool %s", g)
			}
			toolChange = &ToolChange{Tool: int(g.Arg), Line: st.Line}
		case mg != gcode.ModalGroupNone:
			m.modal[mg] = g.Arg
		}
	}

	var res []Command
	if toolChange != nil && toolChange.Tool != m.tool {
		m.tool = toolChange.Tool
		res = append(res, *toolChange)
	}

	if nonModal != nil {
		switch nonModal.Arg {
		case 28:
			return append(res, m.home(b, st.Line)), nil
		case 92:
			m.setPosition(b)
			return res, nil
		}
		return append(res, Passthrough{Stmt: st}), nil
	}

	moves, err := m.motion(b, st.Line)
	if err != nil {
		return nil, err
	}
	for _, mv := range moves {
		res = append(res, mv)
	}
	return res, nil
}

func (m *Machine) home(b gcode.Block, line int) Home {
	var h Home
	for _, g := range b {
		if g.IsAxis() {
			h.Axes = append(h.Axes, g.W)
		}
	}
	h.Line = line
	if len(h.Axes) == 0 {
		m.pos = coord.Point{}
		return h
	}
	for _, a := range h.Axes {
		switch a {
		case 'X':
			m.pos.X = 0
		case 'Y':
			m.pos.Y = 0
		case 'Z':
			m.pos.Z = 0
		}
	}
	return h
}

func (m *Machine) setPosition(b gcode.Block) {
	mul := m.unitScale()
	args := b.Args()
	var set bool
	for _, g := range args {
		switch g.W {
		case 'X':
			m.pos.X = g.Arg * mul
		case 'Y':
			m.pos.Y = g.Arg * mul
		case 'Z':
			m.pos.Z = g.Arg * mul
		case 'E':
			m.e = g.Arg * mul
		default:
			continue
		}
		set = true
	}
	if !set {
		m.pos = coord.Point{}
		m.e = 0
	}
}

func applyBlock(p coord.Point, b gcode.Block, mul float64) coord.Point {
	for _, g := range b {
		switch g.W {
		case 'X':
			p.X = g.Arg * mul
		case 'Y':
			p.Y = g.Arg * mul
		case 'Z':
			p.Z = g.Arg * mul
		}
	}

	return p
}

func (m *Machine) motion(b gcode.Block, line int) ([]Move, error) {
	args := b.Args()
	var hasAxis, hasE bool
	var eArg float64
	for _, g := range args {
		if g.IsAxis() {
			hasAxis = true
		}
		if g.W == 'E' {
			hasE, eArg = true, g.Arg
		}
	}
	if !hasAxis && !hasE {
		return nil, nil
	}

	mul := m.unitScale()
	from := m.pos
	var to coord.Point
	if m.RelativeMotion() {
		to = from.Add(applyBlock(coord.Point{}, args, mul))
	} else {
		to = applyBlock(from, args, mul)
	}

	mode := m.modal[gcode.ModalGroupMotion]
	var ci, cj float64
	if mode == 2 || mode == 3 {
		if m.modal[gcode.ModalGroupPlaneSelection] != 17 {
			return nil, fmt.Errorf("%w: arcs outside the XY plane", gcode.ErrUnsupported)
		}
		if ok, _ := b.Arg('R'); ok {
			return nil, fmt.Errorf("%w: radius arcs", gcode.ErrUnsupported)
		}
		_, ci = b.Arg('I')
		_, cj = b.Arg('J')
		ci, cj = ci*mul, cj*mul
		if m.modal[gcode.ModalGroupArcDistanceMode] == 90.1 {
			ci, cj = ci-from.X, cj-from.Y
		}
		if ci == 0 && cj == 0 {
			return nil, fmt.Errorf("%w: arc without I or J", gcode.ErrUnsupported)
		}
	}

	var delta float64
	if hasE {
		if m.Extrusion() == RelativeExtrusion {
			delta = eArg * mul
			m.e += delta
		} else {
			delta = eArg*mul - m.e
			m.e = eArg * mul
		}
	}

	m.pos = to
	if mode == 0 || mode == 1 {
		return []Move{{
			From: from, To: to,
			Feed: m.feed, Extrude: delta,
			Rapid: mode == 0, Tool: m.tool, Line: line,
		}}, nil
	}

	res := m.ArcResolution
	if res <= 0 {
		res = DefaultArcResolution
	}
	pts := planArc(from, to, ci, cj, mode == 2, res)
	moves := make([]Move, len(pts))
	prev := from
	for i, p := range pts {
		moves[i] = Move{
			From: prev, To: p,
			Feed: m.feed, Extrude: delta / float64(len(pts)),
			Tool: m.tool, Line: line,
		}
		prev = p
	}
	return moves, nil
}
