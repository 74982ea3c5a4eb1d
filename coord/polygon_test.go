package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitNormal(t *testing.T) {
	n, ok := UnitNormal(Point{}, Point{X: 2}, Point{Y: 3})
	require.True(t, ok)
	assert.Equal(t, Point{Z: 1}, n)

	_, ok = UnitNormal(Point{}, Point{X: 1}, Point{X: 2})
	assert.False(t, ok)
}

func TestPolyArea(t *testing.T) {
	assert.Equal(t, 0.0, PolyArea([]Point{{}, {X: 1}}))

	square := []Point{{}, {X: 2}, {X: 2, Y: 2}, {Y: 2}}
	assert.InDelta(t, 4.0, PolyArea(square), 1e-9)

	// vertical rectangle, the shape of one segment ribbon
	wall := []Point{{Z: 0.2}, {X: 10, Z: 0.2}, {X: 10}, {}}
	assert.InDelta(t, 2.0, PolyArea(wall), 1e-9)

	// first three vertices collinear
	tri := []Point{{}, {X: 1}, {X: 2}, {X: 1, Y: 1}}
	assert.InDelta(t, 1.0, PolyArea(tri), 1e-9)
}

func TestQuadArea_Planar(t *testing.T) {
	// tilted planar quad, away from the origin
	a := Point{X: 5, Y: 1, Z: 3}
	b := Point{X: 9, Y: 2, Z: 4}
	c := Point{X: 8, Y: 5, Z: 6}
	d := Point{X: 4, Y: 4, Z: 5}

	rotations := [][]Point{
		{a, b, c, d},
		{b, c, d, a},
		{c, d, a, b},
		{d, a, b, c},
	}
	first := PolyArea(rotations[0])
	for _, r := range rotations[1:] {
		assert.InDelta(t, first, PolyArea(r), 1e-9)
	}
	assert.InDelta(t, first, QuadArea(a, b, c, d), 1e-9)
}

func TestQuadArea_Warped(t *testing.T) {
	a := Point{}
	b := Point{X: 1}
	c := Point{X: 1, Y: 1, Z: 0.5}
	d := Point{Y: 1}

	max := QuadArea(a, b, c, d)
	for _, r := range [][]Point{{a, b, c, d}, {b, c, d, a}, {c, d, a, b}, {d, a, b, c}} {
		assert.True(t, max >= PolyArea(r)-1e-12)
	}
	assert.True(t, max > 0)
}
