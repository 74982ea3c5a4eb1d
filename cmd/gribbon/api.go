package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/gorilla/mux"

	"github.com/mastercactapus/gribbon/config"
	"github.com/mastercactapus/gribbon/ctxlog"
	"github.com/mastercactapus/gribbon/export"
	"github.com/mastercactapus/gribbon/gcode"
	"github.com/mastercactapus/gribbon/geometry"
	"github.com/mastercactapus/gribbon/macro"
	"github.com/mastercactapus/gribbon/toolpath"
)

const defaultMaxBody = 64 << 20

type api struct {
	http.Handler
	ctx   context.Context
	cfg   config.Config
	store macro.Store
	sse   *sse.Server

	maxBody int64
	jobs    atomic.Int64
}

// job is published on /events/jobs after every conversion.
type job struct {
	ID       int64         `json:"id"`
	Kind     string        `json:"kind"`
	Name     string        `json:"name,omitempty"`
	Objects  int           `json:"objects,omitempty"`
	Bytes    int           `json:"bytes"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

func newAPI(ctx context.Context, cfg config.Config, store macro.Store) *api {
	r := mux.NewRouter()
	a := &api{
		Handler: r,
		ctx:     ctx,
		cfg:     cfg,
		store:   store,
		maxBody: defaultMaxBody,
		sse: sse.NewServer(&sse.Options{
			Logger: slog.NewLogLogger(ctxlog.FromContext(ctx).Handler(), slog.LevelDebug),
		}),
	}

	r.HandleFunc("/api/import", a.importProgram).Methods("POST")
	r.HandleFunc("/api/export", a.exportProgram).Methods("POST")
	r.HandleFunc("/ws/export", a.liveExport)
	r.PathPrefix("/events/").Handler(a.sse)

	return a
}

func (a *api) Close() { a.sse.Shutdown() }

func (a *api) publish(j job) {
	log := ctxlog.FromContext(a.ctx)
	data, err := json.Marshal(j)
	if err != nil {
		log.Error("marshal job", "err", err)
		return
	}
	log.Info("job", "id", j.ID, "kind", j.Kind, "err", j.Error, "took", j.Duration)
	a.sse.SendMessage("/events/jobs", sse.SimpleMessage(string(data)))
}

func statusFor(err error) int {
	var (
		pe  *gcode.ParseError
		te  *toolpath.Error
		ge  *geometry.Error
		mbe *http.MaxBytesError
	)
	switch {
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &pe), errors.As(err, &ge):
		return http.StatusBadRequest
	case errors.As(err, &te):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// requestStatus is statusFor where any other failure is a malformed body.
func requestStatus(err error) int {
	if s := statusFor(err); s != http.StatusInternalServerError {
		return s
	}
	return http.StatusBadRequest
}

func (a *api) finish(w http.ResponseWriter, j job, start time.Time, err error) {
	a.finishStatus(w, j, start, err, statusFor(err))
}

func (a *api) finishStatus(w http.ResponseWriter, j job, start time.Time, err error, status int) {
	j.Duration = time.Since(start)
	if err != nil {
		j.Error = err.Error()
		http.Error(w, err.Error(), status)
	}
	a.publish(j)
}

func (a *api) importProgram(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	j := job{ID: a.jobs.Add(1), Kind: "import", Name: req.URL.Query().Get("name")}
	if j.Name == "" {
		j.Name = "toolpath"
	}

	cfg := a.cfg
	switch req.URL.Query().Get("split") {
	case "1", "true":
		cfg.SplitLayers = true
	case "0", "false":
		cfg.SplitLayers = false
	}

	ctx := ctxlog.WithLogger(req.Context(), ctxlog.FromContext(a.ctx).With("job", j.ID))
	doc, err := importProgram(ctx, cfg, http.MaxBytesReader(w, req.Body, a.maxBody), j.Name)
	if err != nil {
		a.finish(w, j, start, err)
		return
	}

	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		a.finish(w, j, start, err)
		return
	}
	j.Objects = len(doc.Objects)
	j.Bytes = buf.Len()

	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
	a.finish(w, j, start, nil)
}

func (a *api) exportProgram(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	j := job{ID: a.jobs.Add(1), Kind: "export"}
	ctx := ctxlog.WithLogger(req.Context(), ctxlog.FromContext(a.ctx).With("job", j.ID))

	e, err := export.New(ctx, a.cfg, a.store)
	if err != nil {
		a.finish(w, j, start, err)
		return
	}

	doc, err := geometry.Decode(ctx, http.MaxBytesReader(w, req.Body, a.maxBody))
	if err != nil {
		a.finishStatus(w, j, start, err, requestStatus(err))
		return
	}
	j.Objects = len(doc.Objects)

	var buf bytes.Buffer
	if err := e.Write(ctx, &buf, doc.Merge()); err != nil {
		a.finish(w, j, start, err)
		return
	}
	j.Bytes = buf.Len()

	w.Header().Set("Content-Type", "text/x-gcode")
	w.Write(buf.Bytes())
	a.finish(w, j, start, nil)
}
