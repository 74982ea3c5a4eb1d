package toolpath

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastercactapus/gribbon/coord"
	"github.com/mastercactapus/gribbon/gcode"
	"github.com/mastercactapus/gribbon/vm"
)

var opts = Options{NozzleDiameter: 0.4, FilamentDiameter: 1.75}

func load(t *testing.T, src string) *Model {
	t.Helper()
	m, err := Load(context.Background(), strings.NewReader(src), opts)
	require.NoError(t, err)
	return m
}

const square = `
G21
G90
M83
G28
G1 Z0.2 F600
G0 X0 Y0
G1 X10 Y0 E0.5 F1200
G1 X10 Y10 E0.5
G1 X0 Y10 E0.5 F600
G1 X0 Y0 E0.5
G1 E-0.8
G0 X20 Y20
G1 E0.8
G1 X30 Y20 E0.4 F1200
G1 X30 Y30 E0.4
`

func TestLoad(t *testing.T) {
	m := load(t, square)
	assert.Len(t, m.Moves(), 11)
	assert.InDelta(t, 2.8, m.DepositedExtrusion(), 1e-9)

	_, err := Load(context.Background(), strings.NewReader("G1 X1\nG1 X1.2.3\n"), opts)
	var pe *gcode.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)

	_, err = Load(context.Background(), strings.NewReader("G1 X1\n\nG2 X1 Y1 R3\n"), opts)
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Line)
	assert.ErrorIs(t, err, gcode.ErrUnsupported)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.gcode")
	require.NoError(t, os.WriteFile(path, []byte(square), 0644))

	m, err := LoadFile(context.Background(), path, opts)
	require.NoError(t, err)
	assert.Len(t, m.Moves(), 11)

	_, err = LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.gcode"), opts)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSubdivide(t *testing.T) {
	m := load(t, "M83\nG1 X10 E1 F1200\nG0 X30\nG1 X30.5 E0.05\n")

	added := Subdivide(m, 3)
	assert.Equal(t, 3, added)

	moves := m.Moves()
	require.Len(t, moves, 6)

	var length, e float64
	for _, mv := range moves[:4] {
		assert.InDelta(t, 2.5, mv.Length(), 1e-9)
		assert.InDelta(t, 0.25, mv.Extrude, 1e-9)
		assert.Equal(t, 1200.0, mv.Feed)
		length += mv.Length()
		e += mv.Extrude
	}
	assert.InDelta(t, 10, length, 1e-9)
	assert.InDelta(t, 1, e, 1e-9)
	assert.Equal(t, coord.Point{X: 10}, moves[3].To)

	// travel and short moves are untouched
	assert.True(t, moves[4].Rapid)
	assert.Equal(t, 20.0, moves[4].Length())
	assert.Equal(t, 0.05, moves[5].Extrude)

	assert.Equal(t, 0, Subdivide(m, 0))
	assert.Len(t, m.Moves(), 6)
}

func TestClassify(t *testing.T) {
	m := load(t, square)
	require.NoError(t, Classify(m))

	require.Len(t, m.Layers, 1)
	l := m.Layers[0]
	assert.Equal(t, 0.2, l.Z)
	require.Len(t, l.Islands, 2)

	sq := l.Islands[0]
	assert.True(t, sq.Closed)
	assert.Equal(t, 4, sq.Segments())
	require.Len(t, sq.Centerline, 4)
	assert.Equal(t, coord.Point{X: 10, Z: 0.2}, sq.Centerline[1].Point)

	// h = E*K/(L*w)
	h := 0.5 * math.Pi * 0.875 * 0.875 / (10 * 0.6)
	for i, v := range sq.Centerline {
		assert.InDelta(t, h, v.Z-sq.Height[i].Z, 1e-9)
		assert.Equal(t, v.X, sq.Height[i].X)
		assert.Equal(t, 1.0, v.Flow)
		assert.Equal(t, 1.0, v.Tool)
	}
	assert.Equal(t, []float64{1, 1, 0.5, 0.5}, []float64{
		sq.Centerline[0].Speed, sq.Centerline[1].Speed, sq.Centerline[2].Speed, sq.Centerline[3].Speed,
	})

	// the retract and prime in place do not belong to either island
	open := l.Islands[1]
	assert.False(t, open.Closed)
	assert.Equal(t, 2, open.Segments())
	assert.Len(t, open.Height, 3)
	assert.Equal(t, coord.Point{X: 20, Y: 20, Z: 0.2}, open.Centerline[0].Point)
}

func TestClassify_Breaks(t *testing.T) {
	m := load(t, `
M83
G1 Z0.4 F600
G1 X10 E1 F1000
T1
G1 X20 E1
G1 Z0.2
G1 X30 E1
G92 E0
G1 X40 E1
`)
	require.NoError(t, Classify(m))

	require.Len(t, m.Layers, 2)
	assert.Equal(t, 0.2, m.Layers[0].Z)
	assert.Equal(t, 0.4, m.Layers[1].Z)

	// G92 does not break a run
	require.Len(t, m.Layers[0].Islands, 1)
	assert.Len(t, m.Layers[0].Islands[0].Centerline, 3)

	upper := m.Layers[1].Islands
	require.Len(t, upper, 2)
	assert.Equal(t, 0, upper[0].Tool)
	assert.Equal(t, 1.0, upper[0].Centerline[0].Tool)
	assert.Equal(t, 1, upper[1].Tool)
	assert.Equal(t, 0.0, upper[1].Centerline[0].Tool)
}

func TestClassify_NonPlanar(t *testing.T) {
	m := load(t, "M83\nG1 X5 E1 F1000\nG1 X10 Z0.3 E1\n")
	err := Classify(m)
	assert.ErrorIs(t, err, ErrNonPlanar)
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 3, te.Line)
	assert.Equal(t, -1, te.Layer)
	assert.Equal(t, "toolpath: line 3: extrusion changes Z from Z0 to Z0.3", err.Error())

	m = load(t, "M83\nG1 X10 E1\n")
	m.NozzleDiameter = 0
	assert.Error(t, Classify(m))
}

func TestModel_Validate(t *testing.T) {
	m := &Model{Layers: []*Layer{{Z: 0.2, Islands: []*Island{{
		Centerline: []ExtrusionVertex{
			{Point: coord.Point{Z: 0.2}, Flow: 1, Speed: 1, Tool: 1, LayerZ: 0.2},
			{Point: coord.Point{X: 1, Z: 0.2}, Flow: 1, Speed: 1.5, Tool: 1, LayerZ: 0.2},
		},
		Height: []coord.Point{{}, {X: 1}},
	}}}}}

	err := m.Validate()
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 0, te.Layer)
	assert.Contains(t, te.Reason, "attribute")

	m.Layers[0].Islands[0].Centerline[1].Speed = 1
	assert.NoError(t, m.Validate())

	m.Layers[0].Islands[0].Height = m.Layers[0].Islands[0].Height[:1]
	assert.Error(t, m.Validate())
}

func TestModel_Commands(t *testing.T) {
	m := load(t, "G28\nM104 S200\nT1\nG1 X1 F100\n")
	require.Len(t, m.Commands, 4)
	assert.IsType(t, vm.Home{}, m.Commands[0])
	assert.IsType(t, vm.Passthrough{}, m.Commands[1])
	assert.IsType(t, vm.ToolChange{}, m.Commands[2])
	assert.IsType(t, vm.Move{}, m.Commands[3])
}
