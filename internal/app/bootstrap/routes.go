// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	adminroomsfeature "github.com/dalemusser/roomdesk/internal/app/features/adminrooms"
	agentfeature "github.com/dalemusser/roomdesk/internal/app/features/agent"
	auditlogfeature "github.com/dalemusser/roomdesk/internal/app/features/auditlog"
	closurefeature "github.com/dalemusser/roomdesk/internal/app/features/closure"
	errorsfeature "github.com/dalemusser/roomdesk/internal/app/features/errors"
	healthfeature "github.com/dalemusser/roomdesk/internal/app/features/health"
	homefeature "github.com/dalemusser/roomdesk/internal/app/features/home"
	loginfeature "github.com/dalemusser/roomdesk/internal/app/features/login"
	logoutfeature "github.com/dalemusser/roomdesk/internal/app/features/logout"
	roomtypesfeature "github.com/dalemusser/roomdesk/internal/app/features/roomtypes"
	streamfeature "github.com/dalemusser/roomdesk/internal/app/features/stream"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, store connections, schema setup,
// and Startup have completed, so the desk already holds the room set.
// Session loading runs for every request; each feature router applies its
// own role checks.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	sessionMgr := deps.Sessions
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Behind a trusted proxy, rewrite RemoteAddr from the forwarding headers
	// so rate limits and audit events see the real client.
	if appCfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check and metrics for load balancers and scrapers
	healthHandler := healthfeature.NewHandler(deps.Backend, deps.Desk, deps.Backend.Driver, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", deps.Metrics.Handler())

	homeHandler := homefeature.NewHandler(deps.Desk, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(sessionMgr, deps.Password, deps.LoginLimiter, deps.AuditLog, errLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, deps.AuditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Error responses
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Agent views (agents and admins)
	agentHandler := agentfeature.NewHandler(deps.Desk, deps.AuditLog, errLog, logger)
	r.Mount("/agent", agentfeature.Routes(agentHandler, sessionMgr))

	// Admin room management
	roomsHandler := adminroomsfeature.NewHandler(deps.Desk, deps.AuditLog, errLog, logger)
	r.Mount("/admin/rooms", adminroomsfeature.Routes(roomsHandler, sessionMgr))

	typesHandler := roomtypesfeature.NewHandler(deps.Desk, deps.AuditLog, errLog, logger)
	r.Mount("/admin/roomtypes", roomtypesfeature.Routes(typesHandler, sessionMgr))

	// Audit trail (Mongo only)
	var auditReader auditlogfeature.Reader
	if deps.AuditStore != nil {
		auditReader = deps.AuditStore
	}
	auditHandler := auditlogfeature.NewHandler(auditReader, errLog, logger)
	r.Mount("/admin/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	// Daily closure
	closureHandler := closurefeature.NewHandler(deps.Desk, deps.AuditLog, errLog, logger)
	r.Mount("/closure", closurefeature.Routes(closureHandler, sessionMgr))

	// Live room updates
	streamHandler := streamfeature.NewHandler(deps.Desk, appCfg.StreamKeepAlive, logger)
	r.Mount("/rooms", streamfeature.Routes(streamHandler, sessionMgr))

	return r, nil
}
