package vm

import (
	"math"

	"github.com/mastercactapus/gribbon/coord"
)

// planArc approximates an XY arc from `from` to `to` around the center at
// from+offset with points at most about resolution apart. Z travels
// linearly (helix). The last point is always `to`.
func planArc(from, to coord.Point, offsetI, offsetJ float64, clockwise bool, resolution float64) []coord.Point {
	rP := -offsetI
	rQ := -offsetJ
	centerP := from.X - rP
	centerQ := from.Y - rQ
	rtP := to.X - centerP
	rtQ := to.Y - centerQ

	angular := math.Atan2(rP*rtQ-rQ*rtP, rP*rtP+rQ*rtQ)
	if angular < 0 {
		angular += 2 * math.Pi
	}
	if clockwise {
		angular -= 2 * math.Pi
	}
	if angular == 0 && from.X == to.X && from.Y == to.Y {
		// same start and end is a full circle
		angular = 2 * math.Pi
		if clockwise {
			angular = -angular
		}
	}

	linear := to.Z - from.Z
	flat := math.Hypot(rP, rQ) * angular
	travel := math.Abs(flat)
	if linear != 0 {
		travel = math.Hypot(flat, linear)
	}

	segments := math.Max(1, math.Floor(travel/resolution))
	n := int(segments)
	theta := angular / segments
	dz := linear / segments

	res := make([]coord.Point, 0, n)
	for i := 1; i < n; i++ {
		cos, sin := math.Cos(float64(i)*theta), math.Sin(float64(i)*theta)
		res = append(res, coord.Point{
			X: centerP + rP*cos - rQ*sin,
			Y: centerQ + rP*sin + rQ*cos,
			Z: from.Z + dz*float64(i),
		})
	}

	return append(res, to)
}
