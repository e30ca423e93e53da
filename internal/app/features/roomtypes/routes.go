// internal/app/features/roomtypes/routes.go
package roomtypes

import (
	"github.com/dalemusser/roomdesk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /admin/roomtypes.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(auth.RoleAdmin))
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleAdd)
		pr.Post("/fix", h.HandleFix)
	})
	return r
}
