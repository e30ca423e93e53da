// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/roomdesk/internal/app/desk"
	"github.com/dalemusser/roomdesk/internal/app/store/audit"
	"github.com/dalemusser/roomdesk/internal/app/store/backend"
	"github.com/dalemusser/roomdesk/internal/app/system/archive"
	"github.com/dalemusser/roomdesk/internal/app/system/auditlog"
	"github.com/dalemusser/roomdesk/internal/app/system/auth"
	"github.com/dalemusser/roomdesk/internal/app/system/changemark"
	"github.com/dalemusser/roomdesk/internal/app/system/metrics"
	"github.com/dalemusser/roomdesk/internal/app/system/ratelimit"
	"github.com/dalemusser/roomdesk/internal/app/system/timeouts"
	"github.com/dalemusser/roomdesk/internal/app/system/timezones"
	"github.com/dalemusser/roomdesk/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB opens the room store and the optional Redis marker and archive,
// then builds the desk controller on top of them.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	var deps DBDeps

	openCtx, cancel := context.WithTimeout(ctx, timeouts.Batch())
	defer cancel()

	b, err := backend.Open(openCtx, backend.Config{
		Driver:        appCfg.StoreDriver,
		MongoURI:      appCfg.MongoURI,
		MongoDatabase: appCfg.MongoDatabase,
		SQLitePath:    appCfg.SQLitePath,
		PostgresDSN:   appCfg.PostgresDSN,
	})
	if err != nil {
		logger.Error("room store connect failed", zap.String("driver", appCfg.StoreDriver), zap.Error(err))
		return deps, err
	}
	deps.Backend = b
	logger.Info("room store connected", zap.String("driver", b.Driver))

	var marker changemark.Marker
	if appCfg.RedisAddr != "" {
		deps.Redis = changemark.NewRedisClient(appCfg.RedisAddr, appCfg.RedisPassword, appCfg.RedisDB)
		if err := deps.Redis.Ping(openCtx).Err(); err != nil {
			// The marker only saves reloads; run without it.
			logger.Warn("redis unreachable; polling without change marker", zap.Error(err))
			_ = deps.Redis.Close()
			deps.Redis = nil
		} else {
			marker = changemark.NewRedis(deps.Redis, "")
		}
	}

	deps.Archive, err = archive.Open(openCtx, archive.Config{
		Driver:    appCfg.ArchiveType,
		LocalPath: appCfg.ArchiveLocalPath,
		S3: archive.S3Config{
			Region:    appCfg.ArchiveS3Region,
			Bucket:    appCfg.ArchiveS3Bucket,
			Prefix:    appCfg.ArchiveS3Prefix,
			Endpoint:  appCfg.ArchiveS3Endpoint,
			PathStyle: appCfg.ArchiveS3Endpoint != "",
		},
	})
	if err != nil {
		_ = b.Close(context.Background())
		return deps, fmt.Errorf("archive: %w", err)
	}

	var sink auditlog.Sink
	if b.MongoDB != nil {
		deps.AuditStore = audit.New(b.MongoDB)
		sink = deps.AuditStore
	}
	deps.AuditLog = auditlog.New(sink, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Rooms: appCfg.AuditLogRooms,
	})

	deps.Sessions, err = auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, coreCfg.Env == "prod", logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return deps, err
	}
	deps.Password, err = auth.NewPasswordChecker(appCfg.AdminPassword, appCfg.AdminPasswordHash)
	if err != nil {
		return deps, fmt.Errorf("admin password: %w", err)
	}
	deps.LoginLimiter = ratelimit.NewLoginLimiter()

	loc, err := timezones.Location(appCfg.ClosureTimezone)
	if err != nil {
		return deps, err
	}

	deps.Metrics = metrics.New()
	deps.Desk = desk.New(b.Rooms, b.Closures, desk.Options{
		Location:      loc,
		Marker:        marker,
		Archive:       deps.Archive,
		Metrics:       deps.Metrics,
		Logger:        logger,
		MaxUploadRows: appCfg.MaxUploadRows,
	})
	deps.Poller = desk.NewPoller(deps.Desk, logger, appCfg.PollInterval)

	return deps, nil
}

// EnsureSchema applies collection validators and audit indexes on Mongo.
// The SQL drivers create their tables when opened.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Backend == nil || deps.Backend.MongoDB == nil {
		return nil
	}
	db := deps.Backend.MongoDB

	if err := validators.EnsureAll(ctx, db, logger); err != nil {
		logger.Error("ensure collection validators failed", zap.Error(err))
		return err
	}
	if err := audit.New(db).EnsureIndexes(ctx); err != nil {
		logger.Error("ensure audit indexes failed", zap.Error(err))
		return err
	}
	return nil
}
