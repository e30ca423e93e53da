// Package timeouts provides the deadlines used around store calls.
//
// The desk's own operations take no timeouts; the HTTP handlers, the poller,
// and the ops CLI wrap each store call with one of these values.
//
//   - Ping: health checks
//   - Read: loading the room set, room types, or a closure
//   - Write: saving the room set or a closure record
//   - Batch: CSV uploads and exports that also touch blob storage
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values.
const (
	DefaultPing  = 2 * time.Second
	DefaultRead  = 5 * time.Second
	DefaultWrite = 10 * time.Second
	DefaultBatch = 60 * time.Second
)

// Config holds timeout values. Zero fields are ignored by Configure.
type Config struct {
	Ping  time.Duration
	Read  time.Duration
	Write time.Duration
	Batch time.Duration
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func defaults() Config {
	return Config{Ping: DefaultPing, Read: DefaultRead, Write: DefaultWrite, Batch: DefaultBatch}
}

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(cur)
}

// Ping is the deadline for health checks.
func Ping() time.Duration { return get(func(c Config) time.Duration { return c.Ping }) }

// Read is the deadline for single loads.
func Read() time.Duration { return get(func(c Config) time.Duration { return c.Read }) }

// Write is the deadline for single saves.
func Write() time.Duration { return get(func(c Config) time.Duration { return c.Write }) }

// Batch is the deadline for uploads and exports.
func Batch() time.Duration { return get(func(c Config) time.Duration { return c.Batch }) }

// Configure overrides the non-zero fields of cfg. Call it during startup.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		cur.Ping = cfg.Ping
	}
	if cfg.Read > 0 {
		cur.Read = cfg.Read
	}
	if cfg.Write > 0 {
		cur.Write = cfg.Write
	}
	if cfg.Batch > 0 {
		cur.Batch = cfg.Batch
	}
}

// ConfigureFromEnv reads ROOMDESK_TIMEOUT_PING, _READ, _WRITE and _BATCH
// (Go duration strings). Invalid or non-positive values are ignored.
// It returns how many values were applied.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for name, dst := range map[string]*time.Duration{
		"ROOMDESK_TIMEOUT_PING":  &cfg.Ping,
		"ROOMDESK_TIMEOUT_READ":  &cfg.Read,
		"ROOMDESK_TIMEOUT_WRITE": &cfg.Write,
		"ROOMDESK_TIMEOUT_BATCH": &cfg.Batch,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// Reset restores the defaults. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// WithTimeout wraps context.WithTimeout and logs a warning when the deadline
// is what ended the operation.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "room upload")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
