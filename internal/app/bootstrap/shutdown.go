// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown ends open room streams, stops the poller, and tears down store
// and Redis connections.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Desk != nil {
		deps.Desk.Shutdown()
	}
	if deps.Poller != nil {
		deps.Poller.Stop()
	}
	deps.LoginLimiter.Stop()
	if deps.Redis != nil {
		if err := deps.Redis.Close(); err != nil {
			logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if deps.Backend != nil {
		logger.Info("closing room store", zap.String("driver", deps.Backend.Driver))
		if err := deps.Backend.Close(ctx); err != nil {
			logger.Error("room store close failed", zap.Error(err))
			return err
		}
	}
	return nil
}
