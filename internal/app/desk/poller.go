// internal/app/desk/poller.go
package desk

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/roomdesk/internal/app/system/metrics"
	"github.com/dalemusser/roomdesk/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often the poller reloads the room set.
const DefaultPollInterval = 5 * time.Second

// Poller is a background worker that keeps a Controller in step with the
// repository, picking up writes made by other instances.
type Poller struct {
	desk     *Controller
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPoller creates a poller for desk. A non-positive interval uses
// DefaultPollInterval.
func NewPoller(desk *Controller, logger *zap.Logger, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		desk:     desk,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the polling loop. It stops when ctx is cancelled or Stop is
// called.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
	p.log.Info("room poller started", zap.Duration("interval", p.interval))
}

// Stop signals the loop to end and waits for it. Safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			p.log.Info("room poller stopped")
			return
		case <-ctx.Done():
			p.log.Info("room poller stopped", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(parent context.Context) {
	ctx, cancel := timeouts.WithTimeout(parent, timeouts.Read(), p.log, "room poll")
	defer cancel()

	changed, err := p.desk.Refresh(ctx)
	switch {
	case err != nil:
		p.desk.metrics.Polled(metrics.PollError)
		p.log.Warn("room poll failed", zap.Error(err))
	case changed:
		p.desk.metrics.Polled(metrics.PollReloaded)
		p.log.Debug("room set reloaded")
	default:
		p.desk.metrics.Polled(metrics.PollUnchanged)
	}
}
