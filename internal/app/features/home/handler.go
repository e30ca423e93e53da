package home

import (
	"net/http"

	"github.com/dalemusser/roomdesk/internal/app/desk"
	uierrors "github.com/dalemusser/roomdesk/internal/app/features/errors"
	"github.com/dalemusser/roomdesk/internal/app/system/auth"
	"go.uber.org/zap"
)

// Handler holds dependencies needed to serve the landing document.
type Handler struct {
	Desk *desk.Controller
	Log  *zap.Logger
}

func NewHandler(d *desk.Controller, logger *zap.Logger) *Handler {
	return &Handler{
		Desk: d,
		Log:  logger,
	}
}

type link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type rootVM struct {
	Name     string `json:"name"`
	SignedIn bool   `json:"signedIn"`
	Role     string `json:"role,omitempty"`
	Today    string `json:"today"`
	Links    []link `json:"links"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRoot tells the client who is signed in and where that role works.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	role := auth.CurrentRole(r)
	vm := rootVM{
		Name:     "roomdesk",
		SignedIn: role != "",
		Role:     role,
		Today:    h.Desk.Today(),
		Links:    linksFor(role),
	}
	uierrors.WriteJSON(w, http.StatusOK, vm)
}

func linksFor(role string) []link {
	switch role {
	case auth.RoleAgent:
		return []link{
			{Rel: "categories", Href: "/agent/categories"},
			{Rel: "close-day", Href: "/closure"},
			{Rel: "stream", Href: "/rooms/stream"},
			{Rel: "logout", Href: "/logout"},
		}
	case auth.RoleAdmin:
		return []link{
			{Rel: "rooms", Href: "/admin/rooms"},
			{Rel: "room-types", Href: "/admin/roomtypes"},
			{Rel: "categories", Href: "/agent/categories"},
			{Rel: "close-day", Href: "/closure"},
			{Rel: "history", Href: "/closure/history"},
			{Rel: "stream", Href: "/rooms/stream"},
			{Rel: "logout", Href: "/logout"},
		}
	default:
		return []link{{Rel: "login", Href: "/login"}}
	}
}
