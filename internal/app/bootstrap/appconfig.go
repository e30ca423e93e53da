// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (ROOMDESK_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers the framework-level settings: ports, TLS, logging, CORS, and body
// limits. Everything the desk itself needs lives here.
type AppConfig struct {
	// Room store selection: mongo, sqlite, postgres, or memory.
	StoreDriver   string
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB
	SQLitePath    string // SQLite file path (store_driver=sqlite)
	PostgresDSN   string // Postgres connection string (store_driver=postgres)

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: roomdesk-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Shared admin password. A bcrypt hash, when set, wins over the plain value.
	AdminPassword     string
	AdminPasswordHash string

	// Desk behavior
	PollInterval    time.Duration // How often each instance checks for other writers
	ClosureTimezone string        // IANA zone that defines "today" for closures
	MaxUploadRows   int           // Largest accepted room CSV

	// Redis change marker (blank address disables it)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Closure archive: none, local, or s3
	ArchiveType       string
	ArchiveLocalPath  string
	ArchiveS3Region   string
	ArchiveS3Bucket   string
	ArchiveS3Prefix   string
	ArchiveS3Endpoint string // optional; MinIO or other S3-compatible endpoint

	// Audit logging: all, db, log, or off
	AuditLogAuth  string
	AuditLogRooms string

	// Server-sent event keepalive
	StreamKeepAlive time.Duration

	// TrustProxyHeaders takes the client IP from X-Forwarded-For / X-Real-IP.
	// Only enable behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}
