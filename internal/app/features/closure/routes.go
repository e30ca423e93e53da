// internal/app/features/closure/routes.go
package closure

import (
	"github.com/dalemusser/roomdesk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /closure. Any signed-in role may close the day and
// see its status; history and exports are admin-only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(auth.RoleAgent, auth.RoleAdmin))
		pr.Post("/", h.HandleClose)
		pr.Get("/status", h.ServeStatus)
	})
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(auth.RoleAdmin))
		pr.Get("/history", h.ServeHistory)
		pr.Get("/{date}", h.ServeClosure)
		pr.Get("/{date}/export.csv", h.ServeExportCSV)
		pr.Get("/{date}/export.xlsx", h.ServeExportXLSX)
	})
	return r
}
