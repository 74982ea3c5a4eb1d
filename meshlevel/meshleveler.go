// Package meshlevel compensates a program for an uneven bed.
package meshlevel

import (
	"math"

	"github.com/mastercactapus/gribbon/coord"
	"github.com/mastercactapus/gribbon/gcode"
	"github.com/mastercactapus/gribbon/vm"
)

// MeshLeveler reads statements from Reader and splits every linear move
// into steps no longer than Granularity in XY, raising each step by the
// bed offset under it. Statements that do not move in a line pass through.
type MeshLeveler struct {
	granularity float64
	offsetter   ZOffsetter

	buf  []gcode.Stmt
	bufN int

	mach *vm.Machine
	r    gcode.Reader
}

type Config struct {
	ZOffsetter  ZOffsetter
	Granularity float64

	Reader gcode.Reader
}

func New(cfg Config) *MeshLeveler {
	l := &MeshLeveler{
		granularity: cfg.Granularity,
		offsetter:   cfg.ZOffsetter,
		mach:        vm.NewMachine(),
		r:           cfg.Reader,
	}
	if l.offsetter == nil {
		l.offsetter = flatBed{}
	}
	return l
}

func (l *MeshLeveler) Read() (gcode.Stmt, error) {
	if l.bufN < len(l.buf) {
		l.bufN++
		return l.buf[l.bufN-1], nil
	}

	st, err := l.r.Read()
	if err != nil {
		return gcode.Stmt{}, err
	}

	before := l.mach.State()
	cmds, err := l.mach.Run(st)
	if err != nil {
		return gcode.Stmt{}, err
	}
	if len(cmds) != 1 {
		return st, nil
	}
	mv, ok := cmds[0].(vm.Move)
	if !ok || mv.From.Equal(mv.To) || isArc(st.Block) {
		return st, nil
	}

	l.buf = l.split(st, mv, before, l.mach.State())
	l.bufN = 1
	return l.buf[0], nil
}

func (l *MeshLeveler) compensate(p coord.Point) coord.Point {
	if ok, off := l.offsetter.OffsetZ(p.X, p.Y); ok {
		p.Z += off
	}
	return p
}

func (l *MeshLeveler) split(st gcode.Stmt, mv vm.Move, before, after vm.State) []gcode.Stmt {
	n := 1
	if dist := mv.From.DistanceXY(mv.To.X, mv.To.Y); l.granularity > 0 && dist > l.granularity {
		n = int(math.Ceil(dist / l.granularity))
	}

	unit := 1.0
	if after.Inches {
		unit = 25.4
	}
	hasE, eArg := st.Block.Arg('E')

	res := make([]gcode.Stmt, 0, n)
	prev := l.compensate(mv.From)
	for i, p := range mv.From.Split(mv.To, n) {
		p = l.compensate(p)

		b := st.Block.Clone()
		out := p
		if after.RelativeMotion {
			out = p.Sub(prev)
		}
		b = b.With('X', out.X/unit).With('Y', out.Y/unit).With('Z', out.Z/unit)

		if hasE {
			if after.Extrusion == vm.RelativeExtrusion {
				b.SetArg('E', eArg/float64(n))
			} else {
				start := before.E / unit
				b.SetArg('E', start+(eArg-start)*float64(i+1)/float64(n))
			}
		}
		if i > 0 {
			b = withoutWord(b, 'F')
		}

		sub := gcode.Stmt{Line: st.Line, Block: b}
		if i == 0 {
			sub.Comment = st.Comment
		}
		res = append(res, sub)
		prev = p
	}
	return res
}

func isArc(b gcode.Block) bool {
	hasI, _ := b.Arg('I')
	hasJ, _ := b.Arg('J')
	return hasI || hasJ
}

func withoutWord(b gcode.Block, w byte) gcode.Block {
	res := b[:0:0]
	for _, word := range b {
		if word.W != w {
			res = append(res, word)
		}
	}
	return res
}
