// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/roomdesk/internal/app/desk"
	"github.com/dalemusser/roomdesk/internal/app/store/audit"
	"github.com/dalemusser/roomdesk/internal/app/store/backend"
	"github.com/dalemusser/roomdesk/internal/app/system/archive"
	"github.com/dalemusser/roomdesk/internal/app/system/auditlog"
	"github.com/dalemusser/roomdesk/internal/app/system/auth"
	"github.com/dalemusser/roomdesk/internal/app/system/metrics"
	"github.com/dalemusser/roomdesk/internal/app/system/ratelimit"
	"github.com/go-redis/redis/v8"
)

// DBDeps holds the backends and the long-lived services built on them.
type DBDeps struct {
	Backend *backend.Backend
	Redis   *redis.Client // nil when no change marker is configured
	Archive archive.Store // nil when archive_type is none

	Metrics  *metrics.Metrics
	AuditLog *auditlog.Logger
	// AuditStore is nil unless the backend is Mongo.
	AuditStore *audit.Store
	Sessions *auth.SessionManager
	Password *auth.PasswordChecker

	LoginLimiter *ratelimit.LoginLimiter

	Desk   *desk.Controller
	Poller *desk.Poller
}
