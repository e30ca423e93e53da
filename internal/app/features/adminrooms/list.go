// internal/app/features/adminrooms/list.go
package adminrooms

import (
	"net/http"

	uierrors "github.com/dalemusser/roomdesk/internal/app/features/errors"
	"github.com/dalemusser/roomdesk/internal/app/system/csvutil"
	"github.com/dalemusser/roomdesk/internal/app/system/roomops"
	"github.com/dalemusser/roomdesk/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// ServeList handles GET /admin/rooms?type=&q=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	typeFilter := query.Get(r, "type")
	if typeFilter == "" {
		typeFilter = roomops.FilterAll
	}
	q := query.Get(r, "q")

	snap := h.Desk.Rooms()
	shown := roomops.FilterRooms(snap.Rooms, typeFilter, q)
	models.SortRooms(shown)

	uierrors.WriteJSON(w, http.StatusOK, roomsVM{
		Rooms:      shown,
		Total:      len(snap.Rooms),
		Shown:      len(shown),
		TypeFilter: typeFilter,
		Query:      q,
		Types:      models.TypeCodes(h.Desk.Types()),
		UpdatedAt:  snap.UpdatedAt,
		Version:    snap.Version,
	})
}

// ServeExport handles GET /admin/rooms/export.csv: the live room status as
// of now.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	rooms := h.Desk.Rooms().Rooms
	models.SortRooms(rooms)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+csvutil.ExportFilename(h.Desk.Today())+`"`)
	if err := csvutil.WriteRooms(w, rooms); err != nil {
		h.Log.Warn("room export write failed", zap.Error(err))
	}
}

// ServeTemplate handles GET /admin/rooms/template.csv.
func (h *Handler) ServeTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="room-import-template.csv"`)
	_, _ = w.Write([]byte(csvutil.ImportTemplate))
}
