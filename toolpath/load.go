package toolpath

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mastercactapus/gribbon/ctxlog"
	"github.com/mastercactapus/gribbon/gcode"
	"github.com/mastercactapus/gribbon/vm"
)

type Options struct {
	NozzleDiameter   float64
	FilamentDiameter float64

	// ArcResolution is the chord length used for G2/G3, vm.DefaultArcResolution when zero.
	ArcResolution float64
}

// Load reads a G-code program into a new Model. The returned error is a
// *gcode.ParseError for any problem tied to an input line.
func Load(ctx context.Context, r io.Reader, opts Options) (*Model, error) {
	log := ctxlog.FromContext(ctx)

	m := NewModel(opts.NozzleDiameter, opts.FilamentDiameter)
	mach := vm.NewMachine()
	if opts.ArcResolution > 0 {
		mach.ArcResolution = opts.ArcResolution
	}

	p := gcode.NewParser(bufio.NewReader(r))
	var passthrough int
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		st, err := p.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		cmds, err := mach.Run(st)
		if err != nil {
			var pe *gcode.ParseError
			if errors.As(err, &pe) {
				return nil, err
			}
			return nil, &gcode.ParseError{Line: st.Line, Text: st.String(), Err: err}
		}
		for _, c := range cmds {
			if pt, ok := c.(vm.Passthrough); ok {
				passthrough++
				log.Debug("passthrough", "line", pt.Stmt.Line, "text", pt.Stmt.String())
			}
		}
		m.Commands = append(m.Commands, cmds...)
	}

	log.Info("loaded program", "lines", p.Line(), "commands", len(m.Commands), "passthrough", passthrough)
	return m, nil
}

// LoadFile opens path and calls Load.
func LoadFile(ctx context.Context, path string, opts Options) (*Model, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	defer fd.Close()

	m, err := Load(ctx, fd, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}
