package export

import (
	"math"

	"github.com/mastercactapus/gribbon/config"
	"github.com/mastercactapus/gribbon/coord"
)

// Remap maps v from [0,1] onto [lo,hi].
func Remap(v, lo, hi float64) float64 {
	return lo + v*(hi-lo)
}

// crossSection returns the bead cross-section times length of the segment
// from c1 to c2, where h1 and h2 are the paired height vertices. The result
// still needs to be scaled by bead width.
func crossSection(mode config.ExtrusionMode, c1, c2, h2, h1 coord.Point) float64 {
	switch mode {
	case config.ModeArea:
		return coord.QuadArea(c1, c2, h2, h1)
	case config.ModeZHeight:
		start, end := c1.Midpoint(h1), c2.Midpoint(h2)
		height := math.Abs(c1.Z + c2.Z - h2.Z - h1.Z)
		return end.Sub(start).Len() * height
	}
	return h2.Distance(h1) * h2.Distance(c2)
}
