// internal/app/features/adminrooms/mutate.go
package adminrooms

import (
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/roomdesk/internal/app/features/errors"
	"github.com/dalemusser/roomdesk/internal/app/system/limits"
	"github.com/dalemusser/roomdesk/internal/app/system/timeouts"
	"github.com/dalemusser/roomdesk/internal/app/system/validators"
	"github.com/dalemusser/roomdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type bulkRequest struct {
	Rooms []int  `json:"rooms" validate:"required,min=1"`
	Field string `json:"field" validate:"required,oneof=grade status"`
	Value string `json:"value" validate:"max=16"`
}

type replaceRequest struct {
	Rooms []models.Room `json:"rooms" validate:"required"`
}

type mutationVM struct {
	Updated int           `json:"updated"`
	Rooms   []models.Room `json:"rooms"`
	Version string        `json:"version"`
}

// HandleBulk handles POST /admin/rooms/bulk.
func (h *Handler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := validators.DecodeJSON(w, r, limits.MaxJSONBodySize, &req); err != nil {
		h.ErrLog.Respond(w, r, "admin: bulk request", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "bulk update rooms")
	defer cancel()

	snap, err := h.Desk.BulkUpdate(ctx, req.Rooms, req.Field, req.Value)
	if err != nil {
		h.ErrLog.Respond(w, r, "admin: bulk update", err)
		return
	}

	selected := make(map[int]bool, len(req.Rooms))
	for _, n := range req.Rooms {
		selected[n] = true
	}
	updated := 0
	for _, room := range snap.Rooms {
		if selected[room.Number] {
			updated++
		}
	}
	h.AuditLog.RoomsBulkUpdated(ctx, r, req.Field, req.Value, updated)

	models.SortRooms(snap.Rooms)
	uierrors.WriteJSON(w, http.StatusOK, mutationVM{Updated: updated, Rooms: snap.Rooms, Version: snap.Version})
}

// HandleToggle handles POST /admin/rooms/{number}/toggle.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "admin: bad room number", err, "Invalid room number.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "toggle room status")
	defer cancel()

	room, err := h.Desk.ToggleStatus(ctx, number)
	if err != nil {
		h.ErrLog.Respond(w, r, "admin: toggle status", err)
		return
	}
	h.AuditLog.RoomStatusToggled(ctx, r, room.Number, room.IsOccupied)
	uierrors.WriteJSON(w, http.StatusOK, room)
}

// HandleReplace handles PUT /admin/rooms: the JSON counterpart of an
// upload.
func (h *Handler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	var req replaceRequest
	if err := validators.DecodeJSON(w, r, limits.MaxReplaceBodySize, &req); err != nil {
		h.ErrLog.Respond(w, r, "admin: replace request", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "replace rooms")
	defer cancel()

	snap, err := h.Desk.ReplaceAll(ctx, req.Rooms)
	if err != nil {
		h.ErrLog.Respond(w, r, "admin: replace rooms", err)
		return
	}
	h.AuditLog.RoomsUploaded(ctx, r, len(snap.Rooms))

	models.SortRooms(snap.Rooms)
	uierrors.WriteJSON(w, http.StatusOK, mutationVM{Updated: len(snap.Rooms), Rooms: snap.Rooms, Version: snap.Version})
}
