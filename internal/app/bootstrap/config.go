// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/roomdesk/internal/app/desk"
	"github.com/dalemusser/roomdesk/internal/app/store/backend"
	"github.com/dalemusser/roomdesk/internal/app/system/archive"
	"github.com/dalemusser/roomdesk/internal/app/system/csvutil"
	"github.com/dalemusser/roomdesk/internal/app/system/timezones"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devSessionKey is the built-in signing key. ValidateConfig refuses it in prod.
const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for RoomDesk.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: ROOMDESK_MONGO_URI, ROOMDESK_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "store_driver", Default: "mongo", Desc: "Room store: 'mongo', 'sqlite', 'postgres', or 'memory'"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "roomdesk", Desc: "MongoDB database name"},
	{Name: "sqlite_path", Default: "./roomdesk.db", Desc: "SQLite database file"},
	{Name: "postgres_dsn", Default: "", Desc: "Postgres connection string"},

	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "roomdesk-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "12h", Desc: "Session cookie lifetime (e.g., 12h, 30m)"},

	{Name: "admin_password", Default: "hawkeye", Desc: "Shared admin password"},
	{Name: "admin_password_hash", Default: "", Desc: "bcrypt hash of the admin password (overrides admin_password)"},

	{Name: "poll_interval", Default: "5s", Desc: "How often to check the store for changes from other instances"},
	{Name: "closure_timezone", Default: "UTC", Desc: "Timezone that defines the calendar day for closures"},
	{Name: "max_upload_rows", Default: csvutil.MaxRows, Desc: "Maximum data rows in a room CSV upload"},

	// Change marker
	{Name: "redis_addr", Default: "", Desc: "Redis address for the change marker (blank disables it)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	// Closure archive
	{Name: "archive_type", Default: "none", Desc: "Closure CSV archive: 'none', 'local', or 's3'"},
	{Name: "archive_local_path", Default: "./archive", Desc: "Local archive directory"},
	{Name: "archive_s3_region", Default: "", Desc: "AWS region for the archive bucket"},
	{Name: "archive_s3_bucket", Default: "", Desc: "Archive bucket name"},
	{Name: "archive_s3_prefix", Default: "roomdesk/", Desc: "Archive key prefix"},
	{Name: "archive_s3_endpoint", Default: "", Desc: "Custom S3 endpoint (MinIO etc.)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_rooms", Default: "all", Desc: "Room and closure event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "stream_keepalive", Default: "25s", Desc: "Keepalive interval for /rooms/stream"},

	{Name: "trust_proxy_headers", Default: false, Desc: "Take client IPs from X-Forwarded-For/X-Real-IP (only behind a trusted proxy)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, ROOMDESK_* for app), and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ROOMDESK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StoreDriver:   backend.NormalizeDriver(appValues.String("store_driver")),
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),
		SQLitePath:    appValues.String("sqlite_path"),
		PostgresDSN:   appValues.String("postgres_dsn"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 12*time.Hour),

		AdminPassword:     appValues.String("admin_password"),
		AdminPasswordHash: appValues.String("admin_password_hash"),

		PollInterval:    appValues.Duration("poll_interval", desk.DefaultPollInterval),
		ClosureTimezone: appValues.String("closure_timezone"),
		MaxUploadRows:   appValues.Int("max_upload_rows"),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		ArchiveType:       appValues.String("archive_type"),
		ArchiveLocalPath:  appValues.String("archive_local_path"),
		ArchiveS3Region:   appValues.String("archive_s3_region"),
		ArchiveS3Bucket:   appValues.String("archive_s3_bucket"),
		ArchiveS3Prefix:   appValues.String("archive_s3_prefix"),
		ArchiveS3Endpoint: appValues.String("archive_s3_endpoint"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogRooms: appValues.String("audit_log_rooms"),

		StreamKeepAlive: appValues.Duration("stream_keepalive", 25*time.Second),

		TrustProxyHeaders: appValues.Bool("trust_proxy_headers"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Driver-specific settings are checked here so a typo fails before any
// connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.StoreDriver {
	case backend.DriverMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if appCfg.MongoDatabase == "" {
			return fmt.Errorf("mongo_database is required for the mongo driver")
		}
	case backend.DriverSQLite:
		if appCfg.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite driver")
		}
	case backend.DriverPostgres:
		if appCfg.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn is required for the postgres driver")
		}
	case backend.DriverMemory:
		logger.Warn("memory store selected; rooms and closures are lost on restart")
	default:
		return fmt.Errorf("unknown store_driver %q", appCfg.StoreDriver)
	}

	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.SessionKey == devSessionKey {
		return fmt.Errorf("session_key must be changed in production")
	}
	if appCfg.AdminPassword == "" && appCfg.AdminPasswordHash == "" {
		return fmt.Errorf("admin_password or admin_password_hash is required")
	}
	if appCfg.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if appCfg.MaxUploadRows <= 0 {
		return fmt.Errorf("max_upload_rows must be positive")
	}
	if _, err := timezones.Location(appCfg.ClosureTimezone); err != nil {
		return fmt.Errorf("closure_timezone: %w", err)
	}

	switch appCfg.ArchiveType {
	case "", archive.DriverNone, archive.DriverLocal:
	case archive.DriverS3:
		if appCfg.ArchiveS3Bucket == "" {
			return fmt.Errorf("archive_s3_bucket is required when archive_type is s3")
		}
	default:
		return fmt.Errorf("unknown archive_type %q", appCfg.ArchiveType)
	}

	return nil
}
