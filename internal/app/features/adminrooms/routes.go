// internal/app/features/adminrooms/routes.go
package adminrooms

import (
	"github.com/dalemusser/roomdesk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /admin/rooms.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(auth.RoleAdmin))
		pr.Get("/", h.ServeList)
		pr.Put("/", h.HandleReplace)
		pr.Get("/export.csv", h.ServeExport)
		pr.Get("/template.csv", h.ServeTemplate)
		pr.Post("/bulk", h.HandleBulk)
		pr.Post("/upload", h.HandleUpload)
		pr.Post("/{number}/toggle", h.HandleToggle)
	})
	return r
}
