package main

import (
	"context"
	"io"

	"github.com/mastercactapus/gribbon/config"
	"github.com/mastercactapus/gribbon/ctxlog"
	"github.com/mastercactapus/gribbon/geometry"
	"github.com/mastercactapus/gribbon/toolpath"
)

// importProgram runs the import pipeline: load, optional subdivision,
// classification and conversion to a geometry document.
func importProgram(ctx context.Context, cfg config.Config, r io.Reader, name string) (*geometry.Document, error) {
	m, err := toolpath.Load(ctx, r, toolpath.Options{
		NozzleDiameter:   cfg.NozzleDiameter,
		FilamentDiameter: cfg.FilamentDiameter,
		ArcResolution:    cfg.ArcResolution,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Subdivide {
		n := toolpath.Subdivide(m, cfg.MaxSegmentSize)
		ctxlog.FromContext(ctx).Debug("subdivided", "added", n, "max", cfg.MaxSegmentSize)
	}
	if err := toolpath.Classify(m); err != nil {
		return nil, err
	}

	return geometry.FromModel(m, name, cfg.SplitLayers), nil
}
