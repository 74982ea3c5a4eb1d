package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/mastercactapus/gribbon/config"
	"github.com/mastercactapus/gribbon/ctxlog"
	"github.com/mastercactapus/gribbon/export"
	"github.com/mastercactapus/gribbon/geometry"
	"github.com/mastercactapus/gribbon/macro"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "gribbon:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	opts, err := parseArgs(args, outW)
	if err != nil || opts == nil {
		return err
	}

	logger, err := newLogger(logW, opts.logLevel, opts.logFormat)
	if err != nil {
		return err
	}
	ctx = ctxlog.WithLogger(ctx, logger)

	// settings are validated before any input is opened
	cfg, err := loadConfig(ctx, opts.configPath)
	if err != nil {
		return err
	}
	store, err := loadMacros(cfg, opts.macrosPath)
	if err != nil {
		return err
	}

	switch opts.command {
	case "import":
		return runImport(ctx, cfg, opts)
	case "export":
		return runExport(ctx, cfg, store, opts)
	case "serve":
		return serve(ctx, cfg, store, opts.addr)
	}
	return &ExitError{Code: 2, Message: "unknown command " + opts.command}
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	hopts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	}
	return nil, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
}

func loadConfig(ctx context.Context, path string) (config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.LoadFile(ctx, path)
}

// loadMacros returns the macro file named by the flag, falling back to
// the one named in the settings. The store is nil when neither is set.
func loadMacros(cfg config.Config, path string) (macro.Store, error) {
	if path == "" {
		path = cfg.MacroFile
	}
	if path == "" {
		return nil, nil
	}
	return macro.LoadFile(path)
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func runImport(ctx context.Context, cfg config.Config, opts *options) error {
	in := opts.args[0]
	out := opts.out
	if out == "" {
		out = replaceExt(in, ".json")
	}
	name := opts.name
	if name == "" {
		name = filepath.Base(replaceExt(in, ""))
	}

	start := time.Now()
	fd, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("open input %s: %w", in, err)
	}
	defer fd.Close()

	doc, err := importProgram(ctx, cfg, fd, name)
	if err != nil {
		return fmt.Errorf("import %s: %w", in, err)
	}
	if err := doc.WriteFile(out); err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("imported", "input", in, "output", out, "objects", len(doc.Objects), "took", time.Since(start))
	return nil
}

func runExport(ctx context.Context, cfg config.Config, store macro.Store, opts *options) error {
	e, err := export.New(ctx, cfg, store)
	if err != nil {
		return err
	}

	in := opts.args[0]
	out := opts.out
	if out == "" {
		out = replaceExt(in, ".gcode")
	}

	start := time.Now()
	doc, err := geometry.ReadFile(ctx, in)
	if err != nil {
		return err
	}
	if err := e.WriteFile(ctx, out, doc.Merge()); err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("exported", "input", in, "output", out, "took", time.Since(start))
	return nil
}

func serve(ctx context.Context, cfg config.Config, store macro.Store, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := ctxlog.FromContext(ctx)
	a := newAPI(ctx, cfg, store)
	defer a.Close()

	srv := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "*")
			log.Debug("request", "method", req.Method, "path", req.URL.Path, "remote", req.RemoteAddr)
			a.ServeHTTP(w, req)
		}),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", "err", err)
		}
	}()

	log.Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
