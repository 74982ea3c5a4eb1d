package geometry

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastercactapus/gribbon/coord"
	"github.com/mastercactapus/gribbon/toolpath"
)

const twoLayers = `
M83
G1 Z0.2 F600
G1 X10 E0.5 F1200
G1 X10 Y10 E0.5
G1 X0 Y10 E0.5
G1 X0 Y0 E0.5
G1 Z0.4
G1 X20 Y0 E1 F900
G0 X30 Y5
G1 X30 Y15 E0.5
`

func classified(t *testing.T) *toolpath.Model {
	t.Helper()
	m, err := toolpath.Load(context.Background(), strings.NewReader(twoLayers), toolpath.Options{NozzleDiameter: 0.4, FilamentDiameter: 1.75})
	require.NoError(t, err)
	require.NoError(t, toolpath.Classify(m))
	return m
}

func TestChannel(t *testing.T) {
	c, ok := ParseChannel("Speed")
	assert.True(t, ok)
	assert.Equal(t, Speed, c)
	assert.Equal(t, "speed", c.String())

	_, ok = ParseChannel("Col")
	assert.False(t, ok)
}

func TestIslands_RoundTrip(t *testing.T) {
	m := classified(t)
	require.Len(t, m.Islands(), 3)

	doc := FromModel(m, "part", false)
	require.Len(t, doc.Objects, 1)
	assert.Equal(t, "part", doc.Objects[0].Name)

	islands, err := Islands(doc.Merge())
	require.NoError(t, err)
	if diff := cmp.Diff(m.Islands(), islands); diff != "" {
		t.Errorf("islands mismatch (-want +got):\n%s", diff)
	}

	split := FromModel(m, "part", true)
	require.Len(t, split.Objects, 2)
	assert.Equal(t, "part_1", split.Objects[1].Name)
	islands, err = Islands(split.Merge())
	require.NoError(t, err)
	if diff := cmp.Diff(m.Islands(), islands); diff != "" {
		t.Errorf("split islands mismatch (-want +got):\n%s", diff)
	}
}

func TestIslands_Order(t *testing.T) {
	// a: Z 0.4 at vertices 0-3, b: Z 0.2 at 4-7, c: Z 0.4 at 8-11
	var mesh Mesh
	add := func(x, z float64) {
		is := &toolpath.Island{
			Centerline: []toolpath.ExtrusionVertex{
				{Point: coord.Point{X: x, Z: z}, LayerZ: z},
				{Point: coord.Point{X: x + 1, Z: z}, LayerZ: z},
			},
			Height: []coord.Point{{X: x, Z: z - 0.2}, {X: x + 1, Z: z - 0.2}},
		}
		appendIsland(&mesh, is)
	}
	add(0, 0.4)
	add(10, 0.2)
	add(20, 0.4)

	for n := 0; n < 5; n++ {
		islands, err := Islands(&mesh)
		require.NoError(t, err)
		require.Len(t, islands, 3)
		assert.Equal(t, 10.0, islands[0].Centerline[0].X)
		assert.Equal(t, 0.0, islands[1].Centerline[0].X)
		assert.Equal(t, 20.0, islands[2].Centerline[0].X)
		assert.False(t, islands[1].Closed)
	}
}

func TestIslands_Errors(t *testing.T) {
	check := func(name string, m *Mesh) {
		t.Helper()
		_, err := Islands(m)
		var ge *Error
		assert.True(t, errors.As(err, &ge), "%s: expected geometry error, got %v", name, err)
	}

	pts := []coord.Point{{}, {X: 1}, {Z: -0.2}, {X: 1, Z: -0.2}, {X: 5}}
	check("isolated", &Mesh{Vertices: pts, Edges: [][2]int{{0, 1}, {2, 3}, {0, 2}}})
	check("odd", &Mesh{Vertices: pts[:3], Edges: [][2]int{{0, 1}, {1, 2}}})
	check("short", &Mesh{Vertices: pts[:2], Edges: [][2]int{{0, 1}}})
	check("edge range", &Mesh{Vertices: pts[:4], Edges: [][2]int{{0, 1}, {2, 9}}})

	m := &Mesh{Vertices: pts[:4], Edges: [][2]int{{0, 1}, {2, 3}, {0, 2}}}
	m.Attributes[Flow] = []float64{1, 1}
	check("attribute length", m)

	m.Attributes[Flow] = []float64{1, 1, 1, 2}
	check("attribute range", m)

	// the rungs hold the component together across the missing chain edge
	gap := []coord.Point{{X: 0}, {X: 10}, {X: 50}, {X: 0, Z: -0.2}, {X: 10, Z: -0.2}, {X: 50, Z: -0.2}}
	rungs := [][2]int{{0, 3}, {1, 4}, {2, 5}}
	check("centerline gap", &Mesh{Vertices: gap, Edges: append([][2]int{{0, 1}, {3, 4}, {4, 5}}, rungs...)})
	check("height gap", &Mesh{Vertices: gap, Edges: append([][2]int{{0, 1}, {1, 2}, {3, 4}}, rungs...)})

	_, err := Islands(&Mesh{Vertices: gap, Edges: append([][2]int{{0, 1}, {1, 2}, {3, 4}, {4, 5}}, rungs...)})
	assert.NoError(t, err)

	same := []coord.Point{{X: 5}, {X: 5}, {X: 5, Z: -0.2}, {X: 5, Z: -0.2}}
	check("zero length", &Mesh{Vertices: same, Edges: [][2]int{{0, 1}, {2, 3}, {0, 2}, {1, 3}}})
}

func TestDecode(t *testing.T) {
	doc, err := Decode(context.Background(), strings.NewReader(`{"objects":[{
		"name": "part",
		"vertices": [[0,0,0.2],[10,0,0.2],[0,0,0],[10,0,0]],
		"edges": [[0,1],[2,3],[0,2],[1,3]],
		"attributes": {"Flow": [0.5,0.5,0.5,0.5], "Col": [0,0,0,0]}
	}]}`))
	require.NoError(t, err)
	require.Len(t, doc.Objects, 1)

	mesh := doc.Merge()
	assert.Equal(t, 0.5, mesh.Attr(Flow, 1))
	assert.Equal(t, 1.0, mesh.Attr(Speed, 1))

	islands, err := Islands(mesh)
	require.NoError(t, err)
	require.Len(t, islands, 1)
	assert.Equal(t, coord.Point{X: 10}, islands[0].Height[1])
	assert.Equal(t, 0.2, islands[0].Centerline[0].LayerZ)

	_, err = Decode(context.Background(), strings.NewReader(`{"objects":[{"name":"bad","vertices":[[0,0,0]],"edges":[[0,3]]}]}`))
	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "bad", ge.Object)

	_, err = Decode(context.Background(), strings.NewReader(`{"objects":`))
	assert.Error(t, err)
}

func TestDocument_WriteFile(t *testing.T) {
	doc := FromModel(classified(t), "part", true)

	path := filepath.Join(t.TempDir(), "part.json")
	require.NoError(t, doc.WriteFile(path))

	got, err := ReadFile(context.Background(), path)
	require.NoError(t, err)
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	require.NoError(t, (&Document{}).Encode(&buf))
	assert.JSONEq(t, `{"objects":[]}`, buf.String())
}
