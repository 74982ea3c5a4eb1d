// Package config holds the validated settings of an import or export job.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/mastercactapus/gribbon/coord"
)

// ExtrusionMode selects how the exporter derives segment volume.
type ExtrusionMode int

const (
	// ModeDefault measures bead height and length on the height chain.
	ModeDefault ExtrusionMode = iota
	// ModeArea uses the area of the centerline/height quad.
	ModeArea
	// ModeZHeight uses the Z difference between the two chains.
	ModeZHeight
)

func (m ExtrusionMode) String() string {
	switch m {
	case ModeArea:
		return "area"
	case ModeZHeight:
		return "zheight"
	}
	return "default"
}

// Midline reports whether the toolpath follows the midpoints of the
// centerline/height pairs instead of the centerline.
func (m ExtrusionMode) Midline() bool { return m == ModeArea || m == ModeZHeight }

func ParseExtrusionMode(s string) (ExtrusionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return ModeDefault, nil
	case "area":
		return ModeArea, nil
	case "zheight", "z_height", "z-height":
		return ModeZHeight, nil
	}
	return ModeDefault, fmt.Errorf("unknown extrusion mode %q", s)
}

// Error is a rejected configuration value.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

type Config struct {
	NozzleDiameter   float64
	FilamentDiameter float64

	// TravelSpeed and ExtrusionSpeed are in mm/s.
	TravelSpeed    float64
	ExtrusionSpeed float64

	MinFlow, MaxFlow   float64
	MinSpeed, MaxSpeed float64

	// BuildX and BuildY center the output on the bed.
	BuildX, BuildY float64

	Mode          ExtrusionMode
	SplitLayers   bool
	ArcResolution float64

	Subdivide      bool
	MaxSegmentSize float64

	ToolColor     bool
	ToolThreshold float64
	// ToolMacros names the macro of each tool, by tool index.
	ToolMacros []string

	StartMacro string
	EndMacro   string
	// MacroFile is an optional YAML file of macro texts.
	MacroFile string

	// BedMesh holds probed bed points; Z compensation is off when empty.
	BedMesh         []coord.Point
	MeshGranularity float64
}

func Default() Config {
	return Config{
		NozzleDiameter:   0.4,
		FilamentDiameter: 1.75,
		TravelSpeed:      60,
		ExtrusionSpeed:   30,
		MinFlow:          0.4,
		MaxFlow:          1,
		MinSpeed:         0.2,
		MaxSpeed:         1,
		ArcResolution:    1,
		MaxSegmentSize:   1,
		ToolThreshold:    0.5,
		ToolMacros:       []string{"T0", "T1"},
		StartMacro:       "Start",
		EndMacro:         "End",
		MeshGranularity:  1,
	}
}

// Validate reports the first invalid value as an *Error.
func (c Config) Validate() error {
	positive := []struct {
		field string
		val   float64
	}{
		{"nozzle_diameter", c.NozzleDiameter},
		{"filament_diameter", c.FilamentDiameter},
		{"travel_speed", c.TravelSpeed},
		{"extrusion_speed", c.ExtrusionSpeed},
		{"arc_resolution", c.ArcResolution},
	}
	for _, p := range positive {
		if !(p.val > 0) {
			return &Error{Field: p.field, Reason: fmt.Sprintf("must be positive, got %g", p.val)}
		}
	}

	switch {
	case c.MaxFlow < c.MinFlow:
		return &Error{Field: "flow", Reason: fmt.Sprintf("max %g is less than min %g", c.MaxFlow, c.MinFlow)}
	case c.MinFlow < 0:
		return &Error{Field: "flow", Reason: "min must not be negative"}
	case c.MaxSpeed < c.MinSpeed:
		return &Error{Field: "speed", Reason: fmt.Sprintf("max %g is less than min %g", c.MaxSpeed, c.MinSpeed)}
	case c.MinSpeed <= 0 && c.MaxSpeed <= 0:
		return &Error{Field: "speed", Reason: "range must include a positive speed"}
	case c.BuildX < 0 || c.BuildY < 0:
		return &Error{Field: "build_volume", Reason: "must not be negative"}
	case c.Subdivide && !(c.MaxSegmentSize > 0):
		return &Error{Field: "subdivide.max_segment_size", Reason: "must be positive"}
	case c.ToolColor && (c.ToolThreshold < 0 || c.ToolThreshold > 1):
		return &Error{Field: "tool_color.threshold", Reason: "must be within [0,1]"}
	case c.ToolColor && len(c.ToolMacros) < 2:
		return &Error{Field: "tool_color.macros", Reason: "needs a macro name for each of 2 tools"}
	case len(c.BedMesh) > 0 && len(c.BedMesh) < 3:
		return &Error{Field: "bed_mesh.points", Reason: "needs at least 3 points"}
	case len(c.BedMesh) > 0 && !(c.MeshGranularity > 0):
		return &Error{Field: "bed_mesh.granularity", Reason: "must be positive"}
	}
	for i, p := range c.BedMesh {
		if !p.IsFinite() {
			return &Error{Field: "bed_mesh.points", Reason: fmt.Sprintf("point %d is not finite", i)}
		}
	}

	return nil
}

// FilamentArea is the filament cross-section in mm².
func (c Config) FilamentArea() float64 {
	r := c.FilamentDiameter / 2
	return math.Pi * r * r
}
