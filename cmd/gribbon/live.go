package main

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mastercactapus/gribbon/ctxlog"
	"github.com/mastercactapus/gribbon/export"
	"github.com/mastercactapus/gribbon/geometry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 16,
	WriteBufferSize: 1 << 16,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// liveReply answers one document sent on /ws/export.
type liveReply struct {
	Job   int64  `json:"job"`
	GCode string `json:"gcode,omitempty"`
	Error string `json:"error,omitempty"`
}

// liveExport keeps a socket open for an editor that re-exports on every
// change. Each text message is a geometry document and is answered with
// one liveReply.
func (a *api) liveExport(w http.ResponseWriter, req *http.Request) {
	log := ctxlog.FromContext(a.ctx)
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Warn("upgrade", "err", err)
		return
	}
	defer ws.Close()
	ws.SetReadLimit(a.maxBody)

	ctx := ctxlog.WithLogger(req.Context(), log)
	e, err := export.New(ctx, a.cfg, a.store)
	if err != nil {
		ws.WriteJSON(liveReply{Error: err.Error()})
		return
	}

	for {
		typ, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("live read", "err", err)
			}
			return
		}
		if typ != websocket.TextMessage {
			continue
		}

		start := time.Now()
		j := job{ID: a.jobs.Add(1), Kind: "live"}
		reply := liveReply{Job: j.ID}

		var buf bytes.Buffer
		doc, err := geometry.Decode(ctx, bytes.NewReader(data))
		if err == nil {
			j.Objects = len(doc.Objects)
			err = e.Write(ctx, &buf, doc.Merge())
		}
		if err != nil {
			reply.Error = err.Error()
			j.Error = reply.Error
		} else {
			reply.GCode = buf.String()
			j.Bytes = buf.Len()
		}
		j.Duration = time.Since(start)
		a.publish(j)

		if err := ws.WriteJSON(reply); err != nil {
			log.Warn("live write", "err", err)
			return
		}
	}
}
