// Package export rebuilds a printable program from ribbon geometry,
// deriving extrusion from the bead cross-section between each pair of
// centerline and height vertices.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/mastercactapus/gribbon/config"
	"github.com/mastercactapus/gribbon/coord"
	"github.com/mastercactapus/gribbon/ctxlog"
	"github.com/mastercactapus/gribbon/fsutil"
	"github.com/mastercactapus/gribbon/gcode"
	"github.com/mastercactapus/gribbon/geometry"
	"github.com/mastercactapus/gribbon/macro"
	"github.com/mastercactapus/gribbon/meshlevel"
	"github.com/mastercactapus/gribbon/toolpath"
)

// RetractDistance is the travel length above which travel is wrapped in
// a firmware retract (G10) and unretract (G11).
const RetractDistance = 1.0

type Exporter struct {
	cfg config.Config

	start, end []gcode.Stmt
	tools      [][]gcode.Stmt

	bed meshlevel.ZOffsetter
}

// New validates cfg and resolves and parses every macro, so that a bad
// setting fails before any geometry is read.
func New(ctx context.Context, cfg config.Config, store macro.Store) (*Exporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	set := macro.Resolve(ctx, store, macro.Names{
		Start: cfg.StartMacro,
		End:   cfg.EndMacro,
		Tools: cfg.ToolMacros,
	})
	parse := func(name, text string) ([]gcode.Stmt, error) {
		sts, err := gcode.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("macro %s: %w", name, err)
		}
		return sts, nil
	}

	e := &Exporter{cfg: cfg}
	var err error
	if e.start, err = parse(cfg.StartMacro, set.Start); err != nil {
		return nil, err
	}
	if e.end, err = parse(cfg.EndMacro, set.End); err != nil {
		return nil, err
	}
	e.tools = make([][]gcode.Stmt, len(set.Tools))
	for i, text := range set.Tools {
		if e.tools[i], err = parse(cfg.ToolMacros[i], text); err != nil {
			return nil, err
		}
	}

	if len(cfg.BedMesh) > 0 {
		mesh, err := meshlevel.NewMesh(cfg.BedMesh)
		if err != nil {
			return nil, &config.Error{Field: "bed_mesh.points", Reason: err.Error()}
		}
		e.bed = mesh
	}

	return e, nil
}

// program accumulates output statements and the feed last emitted on a
// G0 or G1.
type program struct {
	stmts []gcode.Stmt
	feed  float64
}

func (p *program) code(letter byte, arg float64) {
	p.stmts = append(p.stmts, gcode.Stmt{Block: gcode.Block{{W: letter, Arg: arg}}})
}

func (p *program) macro(sts []gcode.Stmt) {
	p.stmts = append(p.stmts, sts...)
	// the feed is unknown after a macro
	p.feed = -1
}

func (p *program) move(g float64, to coord.Point, e *float64, f float64) {
	b := gcode.Block{
		{W: 'G', Arg: g},
		{W: 'X', Arg: to.X},
		{W: 'Y', Arg: to.Y},
		{W: 'Z', Arg: to.Z},
	}
	if e != nil {
		b = append(b, gcode.Word{W: 'E', Arg: *e})
	}
	if f != p.feed {
		b = append(b, gcode.Word{W: 'F', Arg: f})
		p.feed = f
	}
	p.stmts = append(p.stmts, gcode.Stmt{Block: b})
}

// toolFor maps a tool attribute to a tool index.
func (e *Exporter) toolFor(attr float64) int {
	if attr >= e.cfg.ToolThreshold {
		return 0
	}
	return 1
}

func validIsland(i int, is *toolpath.Island) error {
	if len(is.Centerline) != len(is.Height) {
		return &geometry.Error{Reason: fmt.Sprintf("island %d: %d centerline vertices but %d height vertices", i, len(is.Centerline), len(is.Height))}
	}
	if len(is.Centerline) < 2 {
		return &geometry.Error{Reason: fmt.Sprintf("island %d: fewer than 2 vertices", i)}
	}
	for j, v := range is.Centerline {
		if !v.IsFinite() || !is.Height[j].IsFinite() {
			return &geometry.Error{Reason: fmt.Sprintf("island %d: vertex %d is not finite", i, j)}
		}
	}
	return nil
}

// Build emits the program for islands in the order given: the start
// macro, then for each island a travel to its entry point followed by one
// G1 per segment, then the end macro.
func (e *Exporter) Build(ctx context.Context, islands []*toolpath.Island) ([]gcode.Stmt, error) {
	for i, is := range islands {
		if err := validIsland(i, is); err != nil {
			return nil, err
		}
	}

	cfg := e.cfg
	midline := cfg.Mode.Midline()
	width := cfg.NozzleDiameter * toolpath.BeadWidthFactor
	filament := cfg.FilamentArea()
	travelFeed := cfg.TravelSpeed * 60

	offset := coord.Point{X: cfg.BuildX / 2, Y: cfg.BuildY / 2}
	if midline && len(islands) > 0 {
		c0 := islands[0].Centerline[0].Point
		offset.Z = c0.Z - c0.Midpoint(islands[0].Height[0]).Z
	}

	p := &program{feed: -1}
	p.macro(e.start)

	var exit coord.Point
	tool := 0
	var segments int
	var extruded float64
	for _, is := range islands {
		c := is.Centerline
		at := func(i int) coord.Point {
			if midline {
				return c[i].Midpoint(is.Height[i]).Add(offset)
			}
			return c[i].Add(offset)
		}

		entry := at(0)
		retract := exit.Distance(entry) > RetractDistance
		if retract {
			p.code('G', 10)
		}
		p.move(0, entry, nil, travelFeed)
		if retract {
			p.code('G', 11)
		}

		for i := 0; i < is.Segments(); i++ {
			j := (i + 1) % len(c)
			area := crossSection(cfg.Mode, c[i].Point, c[j].Point, is.Height[j], is.Height[i])
			ev := area * width * Remap(c[j].Flow, cfg.MinFlow, cfg.MaxFlow) / filament
			// extrusion feed is mm/s scaled by the speed weight, not converted to mm/min
			f := cfg.ExtrusionSpeed * Remap(c[i].Speed, cfg.MinSpeed, cfg.MaxSpeed)

			if cfg.ToolColor {
				if t := e.toolFor(c[j].Tool); t != tool {
					p.macro(e.tools[t])
					tool = t
				}
			}

			exit = at(j)
			p.move(1, exit, &ev, f)
			segments++
			extruded += ev
		}
	}

	p.macro(e.end)

	ctxlog.FromContext(ctx).Info("built program",
		"islands", len(islands), "segments", segments, "extruded", extruded, "mode", cfg.Mode)
	return p.stmts, nil
}

// Program returns the exported program of mesh as a statement stream,
// with bed mesh compensation applied when configured.
func (e *Exporter) Program(ctx context.Context, mesh *geometry.Mesh) (gcode.Reader, error) {
	islands, err := geometry.Islands(mesh)
	if err != nil {
		return nil, err
	}
	stmts, err := e.Build(ctx, islands)
	if err != nil {
		return nil, err
	}

	var r gcode.Reader = &gcode.StmtsReader{Stmts: stmts}
	if e.bed != nil {
		r = meshlevel.New(meshlevel.Config{
			ZOffsetter:  e.bed,
			Granularity: e.cfg.MeshGranularity,
			Reader:      r,
		})
	}
	return r, nil
}

// Write writes the exported program of mesh to w.
func (e *Exporter) Write(ctx context.Context, w io.Writer, mesh *geometry.Mesh) error {
	r, err := e.Program(ctx, mesh)
	if err != nil {
		return err
	}
	return writeProgram(w, r)
}

func writeProgram(w io.Writer, r gcode.Reader) error {
	gw := gcode.NewWriter(w)
	if _, err := gw.WriteAll(r); err != nil {
		return err
	}
	return gw.Flush()
}

// WriteFile writes the exported program of mesh to path. Nothing is left
// at path if any step fails.
func (e *Exporter) WriteFile(ctx context.Context, path string, mesh *geometry.Mesh) error {
	r, err := e.Program(ctx, mesh)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, func(w io.Writer) error {
		return writeProgram(w, r)
	})
}
