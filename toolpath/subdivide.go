package toolpath

import (
	"math"

	"github.com/mastercactapus/gribbon/vm"
)

// Subdivide splits every extruding move longer than maxSegmentLength into
// equal colinear moves that share the extrusion evenly. Travel and
// passthrough are untouched. It returns the number of moves added.
func Subdivide(m *Model, maxSegmentLength float64) int {
	if maxSegmentLength <= 0 {
		return 0
	}

	var added int
	res := make([]vm.Command, 0, len(m.Commands))
	for _, c := range m.Commands {
		mv, ok := c.(vm.Move)
		if !ok || !mv.Extruding() || mv.Length() <= maxSegmentLength {
			res = append(res, c)
			continue
		}

		n := int(math.Ceil(mv.Length() / maxSegmentLength))
		e := mv.Extrude / float64(n)
		prev := mv.From
		for _, p := range mv.From.Split(mv.To, n) {
			sub := mv
			sub.From, sub.To = prev, p
			sub.Extrude = e
			res = append(res, sub)
			prev = p
		}
		added += n - 1
	}
	m.Commands = res
	return added
}
