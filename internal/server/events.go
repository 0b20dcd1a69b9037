package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// keepAliveInterval spaces out SSE comment lines so idle proxies do not
// reap the connection.
const keepAliveInterval = 30 * time.Second

// handleEvents holds the connection open and relays hub events as
// server-sent events: board_changed carries the board snapshot,
// tags_changed an empty payload.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := s.hub.Subscribe()
	defer sub.Close()

	s.logger.Debug("events subscriber connected", "remote", r.RemoteAddr)
	defer s.logger.Debug("events subscriber disconnected", "remote", r.RemoteAddr)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case ev := <-sub.Events():
			data, err := json.Marshal(ev.Data)
			if err != nil {
				s.logger.Error("marshal event payload", "event", ev.Type, "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}
