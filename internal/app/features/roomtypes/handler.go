// internal/app/features/roomtypes/handler.go
package roomtypes

import (
	"net/http"

	"github.com/dalemusser/roomdesk/internal/app/desk"
	uierrors "github.com/dalemusser/roomdesk/internal/app/features/errors"
	"github.com/dalemusser/roomdesk/internal/app/system/auditlog"
	"github.com/dalemusser/roomdesk/internal/app/system/limits"
	"github.com/dalemusser/roomdesk/internal/app/system/timeouts"
	"github.com/dalemusser/roomdesk/internal/app/system/validators"
	"go.uber.org/zap"
)

// Handler serves the room type catalog.
type Handler struct {
	Desk     *desk.Controller
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(d *desk.Controller, auditLog *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Desk:     d,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: auditLog,
	}
}

type typeRow struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Rooms       int    `json:"rooms"`
}

type addRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ServeList handles GET /admin/roomtypes: every catalog entry with the
// number of rooms of that type.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]int)
	for _, room := range h.Desk.Rooms().Rooms {
		counts[room.Type]++
	}

	types := h.Desk.Types()
	rows := make([]typeRow, 0, len(types))
	for _, t := range types {
		rows = append(rows, typeRow{
			Code:        t.Code,
			Description: t.Description,
			Category:    string(t.Category),
			Rooms:       counts[t.Code],
		})
	}
	uierrors.WriteJSON(w, http.StatusOK, rows)
}

// HandleAdd handles POST /admin/roomtypes.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := validators.DecodeJSON(w, r, limits.MaxJSONBodySize, &req); err != nil {
		h.ErrLog.Respond(w, r, "roomtypes: decode", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "add room type")
	defer cancel()

	rt, err := h.Desk.AddRoomType(ctx, req.Code, req.Description)
	if err != nil {
		h.ErrLog.Respond(w, r, "roomtypes: add", err)
		return
	}
	h.AuditLog.RoomTypeAdded(ctx, r, rt.Code)
	uierrors.WriteJSON(w, http.StatusCreated, rt)
}

// HandleFix handles POST /admin/roomtypes/fix: rewrites legacy type codes
// in the stored rooms.
func (h *Handler) HandleFix(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "fix room types")
	defer cancel()

	changed, err := h.Desk.FixRoomTypes(ctx)
	if err != nil {
		h.ErrLog.Respond(w, r, "roomtypes: fix", err)
		return
	}
	h.AuditLog.RoomTypesFixed(ctx, r, changed)
	uierrors.WriteJSON(w, http.StatusOK, map[string]int{"changed": changed})
}
