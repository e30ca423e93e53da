// internal/app/features/agent/routes.go
package agent

import (
	"github.com/dalemusser/roomdesk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /agent. Admins may use the agent views too.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(auth.RoleAgent, auth.RoleAdmin))
		pr.Get("/categories", h.ServeCategories)
		pr.Get("/categories/{category}", h.ServeCategory)
		pr.Get("/types/{type}/rooms", h.ServeTypeRooms)
		pr.Post("/rooms/{number}/assign", h.HandleAssign)
	})
	return r
}
