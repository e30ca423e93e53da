// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dalemusser/roomdesk/internal/app/system/timeouts"
	"github.com/dalemusser/roomdesk/internal/app/system/timezones"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup loads the room set, rewrites legacy type codes once, and starts
// the change poller. It runs after schema setup and before the HTTP handler
// is built, so the first request already sees rooms.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	loadCtx, cancel := context.WithTimeout(ctx, timeouts.Batch())
	defer cancel()

	snap, err := deps.Desk.Start(loadCtx)
	if err != nil {
		logger.Error("initial room load failed", zap.Error(err))
		return err
	}
	logger.Info("rooms loaded",
		zap.Int("rooms", len(snap.Rooms)),
		zap.String("source", snap.Source),
		zap.String("closure_timezone", timezones.Label(appCfg.ClosureTimezone)),
		zap.String("today", deps.Desk.Today()))

	changed, err := deps.Desk.FixRoomTypes(loadCtx)
	if err != nil {
		// Not fatal: the desk normalizes on read, this only rewrites storage.
		logger.Warn("room type fix-up failed", zap.Error(err))
	} else if changed > 0 {
		deps.AuditLog.RoomTypesFixed(loadCtx, nil, changed)
	}

	// The poller outlives this hook's context; Shutdown stops it.
	deps.Poller.Start(context.Background())
	go closeStreamsOnSignal(deps, logger)
	return nil
}

// closeStreamsOnSignal ends open room streams as soon as the process is
// asked to stop. The HTTP server's graceful shutdown waits for in-flight
// requests, and a stream never finishes on its own.
func closeStreamsOnSignal(deps DBDeps, logger *zap.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("stop signal received; closing room streams")
		deps.Desk.Shutdown()
	case <-deps.Desk.Done():
	}
}
