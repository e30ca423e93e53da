// internal/app/system/changemark/changemark.go
//
// Package changemark publishes the version of the last room-set write so
// pollers in other processes can skip reloads when nothing changed.
package changemark

import (
	"context"
	"errors"
	"sync"

	"github.com/go-redis/redis/v8"
)

// ErrNoMark is returned by Get when no version has been published.
var ErrNoMark = errors.New("changemark: no mark")

// DefaultKey is the Redis key used when none is configured.
const DefaultKey = "roomdesk:rooms:version"

// Marker stores and reads the current room-set version.
type Marker interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, version string) error
}

// Redis keeps the mark in a single Redis string key.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis returns a Redis marker. An empty key uses DefaultKey.
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key}
}

// NewRedisClient builds a go-redis client from connection settings.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (r *Redis) Get(ctx context.Context) (string, error) {
	val, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNoMark
		}
		return "", err
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, version string) error {
	return r.client.Set(ctx, r.key, version, 0).Err()
}

// Memory is an in-process marker, used when several controllers share one
// process (tests, the ops CLI).
type Memory struct {
	mu  sync.Mutex
	val string
	set bool
}

func (m *Memory) Get(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return "", ErrNoMark
	}
	return m.val, nil
}

func (m *Memory) Set(_ context.Context, version string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.val, m.set = version, true
	return nil
}
