// internal/app/features/agent/handler.go
package agent

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/roomdesk/internal/app/desk"
	uierrors "github.com/dalemusser/roomdesk/internal/app/features/errors"
	"github.com/dalemusser/roomdesk/internal/app/policy/assignpolicy"
	"github.com/dalemusser/roomdesk/internal/app/system/apperr"
	"github.com/dalemusser/roomdesk/internal/app/system/auditlog"
	"github.com/dalemusser/roomdesk/internal/app/system/timeouts"
	"github.com/dalemusser/roomdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the agent's category, type and assignment views.
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

type categoryVM struct {
	Category  models.Category `json:"category"`
	Label     string          `json:"label"`
	Available int             `json:"available"`
}

type categoryDetailVM struct {
	categoryVM
	Types []assignpolicy.TypeSummary `json:"types"`
}

type typeRoomsVM struct {
	Type        string        `json:"type"`
	Description string        `json:"description"`
	Category    string        `json:"category,omitempty"`
	Grade       models.Grade  `json:"grade"`
	NextGrade   models.Grade  `json:"nextGrade"`
	Available   int           `json:"available"`
	Rooms       []models.Room `json:"rooms"`
}

// ServeCategories handles GET /agent/categories.
func (h *Handler) ServeCategories(w http.ResponseWriter, r *http.Request) {
	rooms := h.Desk.Rooms().Rooms
	out := make([]categoryVM, 0, len(models.Categories))
	for _, c := range models.Categories {
		out = append(out, categoryVM{
			Category:  c,
			Label:     c.Label(),
			Available: assignpolicy.CategoryCount(rooms, c),
		})
	}
	uierrors.WriteJSON(w, http.StatusOK, out)
}

// ServeCategory handles GET /agent/categories/{category}.
func (h *Handler) ServeCategory(w http.ResponseWriter, r *http.Request) {
	c, ok := models.ParseCategory(chi.URLParam(r, "category"))
	if !ok {
		h.ErrLog.Respond(w, r, "agent: category", apperr.NotFound("category", chi.URLParam(r, "category")))
		return
	}
	rooms := h.Desk.Rooms().Rooms
	uierrors.WriteJSON(w, http.StatusOK, categoryDetailVM{
		categoryVM: categoryVM{
			Category:  c,
			Label:     c.Label(),
			Available: assignpolicy.CategoryCount(rooms, c),
		},
		Types: assignpolicy.TypeSummaries(rooms, c, h.Desk.Types()),
	})
}

// ServeTypeRooms handles GET /agent/types/{type}/rooms: the rooms an agent
// may assign right now, all at the best grade on offer.
func (h *Handler) ServeTypeRooms(w http.ResponseWriter, r *http.Request) {
	typ := models.NormalizeType(chi.URLParam(r, "type"))
	rooms := h.Desk.Rooms().Rooms
	grade, _ := assignpolicy.ActiveGrade(rooms, typ)
	next, _ := assignpolicy.FallbackGrade(rooms, typ)

	uierrors.WriteJSON(w, http.StatusOK, typeRoomsVM{
		Type:        typ,
		Description: models.DescribeType(h.Desk.Types(), typ),
		Category:    string(models.CategoryOf(typ)),
		Grade:       grade,
		NextGrade:   next,
		Available:   assignpolicy.CountAssignable(rooms, typ),
		Rooms:       assignpolicy.SelectAssignableRooms(rooms, typ),
	})
}

// HandleAssign handles POST /agent/rooms/{number}/assign.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "agent: bad room number", err, "Invalid room number.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "assign room")
	defer cancel()

	room, err := h.Desk.Assign(ctx, number)
	if err != nil {
		h.ErrLog.Respond(w, r, "agent: assign room", err)
		return
	}
	h.AuditLog.RoomAssigned(ctx, r, room.Number, room.Type)
	uierrors.WriteJSON(w, http.StatusOK, room)
}
