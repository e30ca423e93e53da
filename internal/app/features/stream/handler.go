// internal/app/features/stream/handler.go
package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/roomdesk/internal/app/desk"
	uierrors "github.com/dalemusser/roomdesk/internal/app/features/errors"
	"go.uber.org/zap"
)

// DefaultKeepAlive is how often an idle stream sends a comment line so
// proxies keep the connection open.
const DefaultKeepAlive = 25 * time.Second

// Handler pushes room snapshots to connected browsers as server-sent
// events.
type Handler struct {
	Desk      *desk.Controller
	Log       *zap.Logger
	KeepAlive time.Duration
}

func NewHandler(d *desk.Controller, keepAlive time.Duration, logger *zap.Logger) *Handler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &Handler{
		Desk:      d,
		Log:       logger,
		KeepAlive: keepAlive,
	}
}

// Serve handles GET /rooms/stream.
//
// The current snapshot is sent first as a "rooms" event, then one event per
// change until the client goes away.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		uierrors.WriteError(w, http.StatusInternalServerError, "Streaming is not supported.")
		return
	}

	updates, unsubscribe := h.Desk.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, h.Desk.Rooms()); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(w, snap); err != nil {
				h.Log.Debug("room stream closed", zap.Error(err))
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, snap desk.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: rooms\nid: %s\ndata: %s\n\n", snap.Version, data)
	return err
}
