// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/roomdesk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /admin/audit. Admins only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(auth.RoleAdmin))
		pr.Get("/", h.ServeList)
		pr.Get("/failed-logins", h.ServeFailedLogins)
	})
	return r
}
