package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/mastercactapus/gribbon/coord"
	"github.com/mastercactapus/gribbon/ctxlog"
)

// hclFile is the decoded form of a settings file. Every field is optional
// and overrides the matching default.
type hclFile struct {
	NozzleDiameter   *float64 `hcl:"nozzle_diameter,optional"`
	FilamentDiameter *float64 `hcl:"filament_diameter,optional"`
	TravelSpeed      *float64 `hcl:"travel_speed,optional"`
	ExtrusionSpeed   *float64 `hcl:"extrusion_speed,optional"`
	ExtrusionMode    *string  `hcl:"extrusion_mode,optional"`
	SplitLayers      *bool    `hcl:"split_layers,optional"`
	ArcResolution    *float64 `hcl:"arc_resolution,optional"`

	Flow        *hclRange     `hcl:"flow,block"`
	Speed       *hclRange     `hcl:"speed,block"`
	BuildVolume *hclVolume    `hcl:"build_volume,block"`
	Subdivide   *hclSubdivide `hcl:"subdivide,block"`
	ToolColor   *hclToolColor `hcl:"tool_color,block"`
	Macros      *hclMacros    `hcl:"macros,block"`
	BedMesh     *hclBedMesh   `hcl:"bed_mesh,block"`
}

type hclRange struct {
	Min *float64 `hcl:"min,optional"`
	Max *float64 `hcl:"max,optional"`
}

type hclVolume struct {
	X float64 `hcl:"x"`
	Y float64 `hcl:"y"`
}

type hclSubdivide struct {
	MaxSegmentSize *float64 `hcl:"max_segment_size,optional"`
}

type hclToolColor struct {
	Threshold *float64 `hcl:"threshold,optional"`
	Macros    []string `hcl:"macros,optional"`
}

type hclMacros struct {
	Start *string `hcl:"start,optional"`
	End   *string `hcl:"end,optional"`
	File  *string `hcl:"file,optional"`
}

type hclBedMesh struct {
	Points      [][]float64 `hcl:"points"`
	Granularity *float64    `hcl:"granularity,optional"`
}

// evalContext exposes the process environment as env.NAME.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !validIdent(k) {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

func validIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (f *hclFile) apply(c *Config, dir string) error {
	set(&c.NozzleDiameter, f.NozzleDiameter)
	set(&c.FilamentDiameter, f.FilamentDiameter)
	set(&c.TravelSpeed, f.TravelSpeed)
	set(&c.ExtrusionSpeed, f.ExtrusionSpeed)
	set(&c.SplitLayers, f.SplitLayers)
	set(&c.ArcResolution, f.ArcResolution)
	if f.ExtrusionMode != nil {
		m, err := ParseExtrusionMode(*f.ExtrusionMode)
		if err != nil {
			return &Error{Field: "extrusion_mode", Reason: err.Error()}
		}
		c.Mode = m
	}
	if f.Flow != nil {
		set(&c.MinFlow, f.Flow.Min)
		set(&c.MaxFlow, f.Flow.Max)
	}
	if f.Speed != nil {
		set(&c.MinSpeed, f.Speed.Min)
		set(&c.MaxSpeed, f.Speed.Max)
	}
	if f.BuildVolume != nil {
		c.BuildX, c.BuildY = f.BuildVolume.X, f.BuildVolume.Y
	}
	if f.Subdivide != nil {
		c.Subdivide = true
		set(&c.MaxSegmentSize, f.Subdivide.MaxSegmentSize)
	}
	if f.ToolColor != nil {
		c.ToolColor = true
		set(&c.ToolThreshold, f.ToolColor.Threshold)
		if len(f.ToolColor.Macros) > 0 {
			c.ToolMacros = f.ToolColor.Macros
		}
	}
	if f.Macros != nil {
		set(&c.StartMacro, f.Macros.Start)
		set(&c.EndMacro, f.Macros.End)
		if f.Macros.File != nil {
			c.MacroFile = *f.Macros.File
			if c.MacroFile != "" && !filepath.IsAbs(c.MacroFile) {
				c.MacroFile = filepath.Join(dir, c.MacroFile)
			}
		}
	}
	if f.BedMesh != nil {
		c.BedMesh = c.BedMesh[:0]
		for i, p := range f.BedMesh.Points {
			if len(p) != 3 {
				return &Error{Field: "bed_mesh.points", Reason: fmt.Sprintf("point %d must be [x, y, z]", i)}
			}
			c.BedMesh = append(c.BedMesh, coord.Point{X: p[0], Y: p[1], Z: p[2]})
		}
		set(&c.MeshGranularity, f.BedMesh.Granularity)
	}
	return nil
}

// Parse decodes HCL source over Default and validates the result.
func Parse(src []byte, filename string) (Config, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", filename, diags)
	}

	var f hclFile
	diags = gohcl.DecodeBody(file.Body, evalContext(), &f)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to decode config %s: %w", filename, diags)
	}

	c := Default()
	if err := f.apply(&c, filepath.Dir(filename)); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadFile reads and validates an HCL settings file.
func LoadFile(ctx context.Context, path string) (Config, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading config", "path", path)

	src, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	c, err := Parse(src, path)
	if err != nil {
		return Config{}, err
	}

	logger.Debug("Loaded config", "path", path, "mode", c.Mode, "subdivide", c.Subdivide, "tool_color", c.ToolColor)
	return c, nil
}
