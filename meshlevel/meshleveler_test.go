package meshlevel

import (
	"io"
	"testing"

	"github.com/mastercactapus/gribbon/coord"
	"github.com/mastercactapus/gribbon/gcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probes indicate a rise of .3mm Z for every 1mm X
var probes = []coord.Point{
	{X: -10, Y: -10, Z: -3},
	{X: -10, Y: 10, Z: -3},

	{X: 10, Y: -10, Z: 3},
	{X: 10, Y: 10, Z: 3},
}

func readAll(t *testing.T, src string) []string {
	t.Helper()
	mesh, err := NewMesh(probes)
	require.NoError(t, err)

	m := New(Config{
		ZOffsetter:  mesh,
		Granularity: 1,
		Reader:      &gcode.StmtsReader{Stmts: gcode.MustParse(src)},
	})

	var res []string
	for {
		st, err := m.Read()
		if err == io.EOF {
			return res
		}
		require.NoError(t, err)
		res = append(res, st.String())
	}
}

func TestMeshLeveler_Relative(t *testing.T) {
	assert.Equal(t, []string{
		"G91 G0 X1 Y0 Z0.3",
		"G91 G0 X1 Y0 Z0.3",
		"G91 G0 X1 Y0 Z0.3",
	}, readAll(t, "G91 G0 X3"))
}

func TestMeshLeveler_Absolute(t *testing.T) {
	assert.Equal(t, []string{
		"G90",
		"M82",
		"G1 X1 E0.5 F600 Y0 Z0.3 ;wall",
		"G1 X2 E1 Y0 Z0.6",
		"M104 S200",
		"PRINT_END",
	}, readAll(t, "G90\nM82\nG1 X2 E1 F600 ;wall\nM104 S200\nPRINT_END\n"))
}

func TestMesh(t *testing.T) {
	mesh, err := NewMesh(probes)
	require.NoError(t, err)

	ok, z := mesh.OffsetZ(5, 5)
	assert.True(t, ok)
	assert.InDelta(t, 1.5, z, 1e-9)

	ok, _ = mesh.OffsetZ(20, 0)
	assert.False(t, ok)

	_, err = NewMesh([]coord.Point{{}, {X: 1}, {X: 2}})
	assert.Error(t, err)

	_, err = NewMesh(probes[:2])
	assert.Error(t, err)
}
