package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastercactapus/gribbon/coord"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, ModeDefault, c.Mode)
	assert.InDelta(t, 2.405, c.FilamentArea(), 0.001)
}

func TestConfig_Validate(t *testing.T) {
	check := func(field string, mod func(c *Config)) {
		t.Helper()
		c := Default()
		mod(&c)
		err := c.Validate()
		var ce *Error
		require.True(t, errors.As(err, &ce), "expected config error for %s, got %v", field, err)
		assert.Equal(t, field, ce.Field)
	}

	check("flow", func(c *Config) { c.MinFlow, c.MaxFlow = 1, 0.5 })
	check("speed", func(c *Config) { c.MinSpeed, c.MaxSpeed = 1, 0.5 })
	check("nozzle_diameter", func(c *Config) { c.NozzleDiameter = 0 })
	check("filament_diameter", func(c *Config) { c.FilamentDiameter = -1.75 })
	check("subdivide.max_segment_size", func(c *Config) { c.Subdivide, c.MaxSegmentSize = true, 0 })
	check("tool_color.threshold", func(c *Config) { c.ToolColor, c.ToolThreshold = true, 1.5 })
	check("bed_mesh.points", func(c *Config) { c.BedMesh = []coord.Point{{}, {X: 1}} })

	// disabled features are not checked
	c := Default()
	c.MaxSegmentSize = 0
	c.ToolThreshold = 2
	assert.NoError(t, c.Validate())
}

func TestParseExtrusionMode(t *testing.T) {
	for s, exp := range map[string]ExtrusionMode{
		"":         ModeDefault,
		"area":     ModeArea,
		"ZHeight":  ModeZHeight,
		"z_height": ModeZHeight,
	} {
		m, err := ParseExtrusionMode(s)
		assert.NoError(t, err, s)
		assert.Equal(t, exp, m, s)
	}
	_, err := ParseExtrusionMode("volume")
	assert.Error(t, err)

	assert.True(t, ModeArea.Midline())
	assert.False(t, ModeDefault.Midline())
}

func TestParse(t *testing.T) {
	t.Setenv("GRIBBON_NOZZLE", "0.6")

	c, err := Parse([]byte(`
nozzle_diameter = env.GRIBBON_NOZZLE
travel_speed    = 120
extrusion_mode  = "area"
split_layers    = true

flow {
  min = 0.5
}

build_volume {
  x = 220
  y = 200
}

subdivide {
  max_segment_size = 0.5
}

tool_color {
  macros = ["Red", "Blue"]
}

macros {
  start = "Begin"
  file  = "macros.yaml"
}

bed_mesh {
  points = [[0, 0, 0.1], [200, 0, 0], [0, 200, -0.1]]
}
`), "/etc/gribbon/print.hcl")
	require.NoError(t, err)

	exp := Default()
	exp.NozzleDiameter = 0.6
	exp.TravelSpeed = 120
	exp.Mode = ModeArea
	exp.SplitLayers = true
	exp.MinFlow = 0.5
	exp.BuildX, exp.BuildY = 220, 200
	exp.Subdivide, exp.MaxSegmentSize = true, 0.5
	exp.ToolColor = true
	exp.ToolMacros = []string{"Red", "Blue"}
	exp.StartMacro = "Begin"
	exp.MacroFile = "/etc/gribbon/macros.yaml"
	exp.BedMesh = []coord.Point{{Z: 0.1}, {X: 200}, {Y: 200, Z: -0.1}}
	assert.Equal(t, exp, c)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("flow {\n  min = 1.2\n  max = 0.8\n}\n"), "a.hcl")
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "flow", ce.Field)

	_, err = Parse([]byte(`extrusion_mode = "volume"`), "a.hcl")
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "extrusion_mode", ce.Field)

	_, err = Parse([]byte(`nozzle = 0.4`), "a.hcl")
	assert.Error(t, err)

	_, err = Parse([]byte(`nozzle_diameter = `), "a.hcl")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "print.hcl")
	require.NoError(t, os.WriteFile(path, []byte("extrusion_speed = 45\n"), 0644))

	c, err := LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 45.0, c.ExtrusionSpeed)

	_, err = LoadFile(context.Background(), filepath.Join(dir, "missing.hcl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
