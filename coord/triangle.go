package coord

const (
	// Epsilon is the tolerance used for containment and coincidence checks.
	Epsilon   = 0.001
	epsilonSq = Epsilon * Epsilon
)

type Triangle struct{ A, B, C Point }

// barycentricXY returns the weights of A, B and C for (x,y) in the XY
// projection of the triangle. ok is false for a degenerate projection.
func (t Triangle) barycentricXY(x, y float64) (u, v, w float64, ok bool) {
	d := (t.B.Y-t.C.Y)*(t.A.X-t.C.X) + (t.C.X-t.B.X)*(t.A.Y-t.C.Y)
	if d == 0 {
		return 0, 0, 0, false
	}
	u = ((t.B.Y-t.C.Y)*(x-t.C.X) + (t.C.X-t.B.X)*(y-t.C.Y)) / d
	v = ((t.C.Y-t.A.Y)*(x-t.C.X) + (t.A.X-t.C.X)*(y-t.C.Y)) / d
	return u, v, 1 - u - v, true
}

// ContainsXY returns true if the 2D projection of the triangle
// has the point x,y, allowing Epsilon of slack on the edges.
func (t Triangle) ContainsXY(x, y float64) bool {
	u, v, w, ok := t.barycentricXY(x, y)
	if !ok {
		return false
	}
	if u >= 0 && v >= 0 && w >= 0 {
		return true
	}
	p := Point{X: x, Y: y}
	return segmentDistSqXY(t.A, t.B, p) <= epsilonSq ||
		segmentDistSqXY(t.B, t.C, p) <= epsilonSq ||
		segmentDistSqXY(t.C, t.A, p) <= epsilonSq
}

// Z will give the Z-coordinate on the plane defined by the triangle
// where it intersects x,y.
func (t Triangle) Z(x, y float64) float64 {
	u, v, w, ok := t.barycentricXY(x, y)
	if !ok {
		return t.A.Z
	}
	return u*t.A.Z + v*t.B.Z + w*t.C.Z
}

func segmentDistSqXY(a, b, p Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := dx*dx + dy*dy
	t := 0.0
	if l > 0 {
		t = ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l
	}
	switch {
	case t < 0:
		t = 0
	case t > 1:
		t = 1
	}
	ex, ey := a.X+t*dx-p.X, a.Y+t*dy-p.Y
	return ex*ex + ey*ey
}
