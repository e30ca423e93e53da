package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/roomdesk/internal/app/desk"
	"github.com/dalemusser/roomdesk/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Pinger is the storage check the health endpoint runs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Store  Pinger
	Desk   *desk.Controller
	Driver string
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the room store and logger.
func NewHandler(store Pinger, d *desk.Controller, driver string, logger *zap.Logger) *Handler {
	return &Handler{
		Store:  store,
		Desk:   d,
		Driver: driver,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Driver   string `json:"driver"`
	Rooms    int    `json:"rooms"`
	Version  string `json:"version,omitempty"`
	Source   string `json:"source,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "driver":"mongo", "rooms":120 }
//
// On store failure, or before the room set has loaded: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Driver:   h.Driver,
	}

	if err := h.Store.Ping(ctx); err != nil {
		h.Log.Error("health-check: store ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Desk != nil {
		if !h.Desk.Started() {
			w.WriteHeader(http.StatusServiceUnavailable)
			resp.Status = "starting"
			resp.Message = "Room set not loaded yet"
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		snap := h.Desk.Rooms()
		resp.Rooms = len(snap.Rooms)
		resp.Version = snap.Version
		resp.Source = snap.Source
	}

	_ = json.NewEncoder(w).Encode(resp)
}
