package coord

// UnitNormal returns the unit normal of the plane through a, b and c.
// ok is false when the points are collinear.
func UnitNormal(a, b, c Point) (n Point, ok bool) {
	n = b.Sub(a).Cross(c.Sub(a))
	l := n.Len()
	if l < epsilonSq {
		return Point{}, false
	}
	return n.Div(l), true
}

// newellNormal sums the edge cross products of poly. The result has
// twice the projected area as its length.
func newellNormal(poly []Point) Point {
	var total Point
	for i, v := range poly {
		total = total.Add(v.Cross(poly[(i+1)%len(poly)]))
	}
	return total
}

// PolyArea returns the area of poly projected onto the plane of its first
// three vertices. If those are collinear the best-fit normal of the whole
// polygon is used instead.
func PolyArea(poly []Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	total := newellNormal(poly)
	n, ok := UnitNormal(poly[0], poly[1], poly[2])
	if !ok {
		l := total.Len()
		if l == 0 {
			return 0
		}
		n = total.Div(l)
	}

	a := total.Dot(n) / 2
	if a < 0 {
		return -a
	}
	return a
}

// QuadArea returns the largest PolyArea over the four cyclic rotations of
// a, b, c, d. For a planar quad all rotations agree; for a warped quad the
// normal picked from the first three vertices changes with the rotation.
func QuadArea(a, b, c, d Point) float64 {
	q := [4]Point{a, b, c, d}
	var best float64
	for r := 0; r < 4; r++ {
		poly := []Point{q[r], q[(r+1)%4], q[(r+2)%4], q[(r+3)%4]}
		if area := PolyArea(poly); area > best {
			best = area
		}
	}
	return best
}
