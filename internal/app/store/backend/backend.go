// internal/app/store/backend/backend.go
//
// Package backend opens the configured room/closure persistence.
package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	closurestore "github.com/dalemusser/roomdesk/internal/app/store/closures"
	"github.com/dalemusser/roomdesk/internal/app/store/memstore"
	roomstore "github.com/dalemusser/roomdesk/internal/app/store/rooms"
	"github.com/dalemusser/roomdesk/internal/app/store/sqlstore"
	"github.com/dalemusser/roomdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Supported drivers.
const (
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Rooms is what every backend provides for the live room record.
type Rooms interface {
	Load(ctx context.Context) (models.RoomSet, error)
	Save(ctx context.Context, rooms []models.Room) (time.Time, error)
	LoadTypes(ctx context.Context) ([]models.RoomType, error)
	SaveTypes(ctx context.Context, types []models.RoomType) error
	Version(ctx context.Context) (time.Time, error)
}

// Closures is what every backend provides for daily closures.
type Closures interface {
	Upsert(ctx context.Context, rec models.ClosureRecord) error
	FindByDate(ctx context.Context, date string) (models.ClosureRecord, error)
	ListByDateRange(ctx context.Context, start, end string) ([]models.ClosureRecord, error)
}

// Config selects and configures a driver.
type Config struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
	SQLitePath    string
	PostgresDSN   string
}

// Backend is an opened persistence layer.
type Backend struct {
	Driver   string
	Rooms    Rooms
	Closures Closures

	// Set only for the mongo driver.
	MongoClient *mongo.Client
	MongoDB     *mongo.Database

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping checks the backend is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if b == nil || b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close releases connections.
func (b *Backend) Close(ctx context.Context) error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close(ctx)
}

// NormalizeDriver lowercases driver and maps aliases; "" means mongo.
func NormalizeDriver(driver string) string {
	switch d := strings.ToLower(strings.TrimSpace(driver)); d {
	case "", "mongodb":
		return DriverMongo
	case "pg", "postgresql", "pgx":
		return DriverPostgres
	case "sqlite3":
		return DriverSQLite
	case "mem":
		return DriverMemory
	default:
		return d
	}
}

// Open connects the configured driver.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	switch driver := NormalizeDriver(cfg.Driver); driver {
	case DriverMongo:
		return openMongo(ctx, cfg)
	case DriverSQLite:
		s, err := sqlstore.Open(ctx, sqlstore.SQLite, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqlBackend(driver, s), nil
	case DriverPostgres:
		s, err := sqlstore.Open(ctx, sqlstore.Postgres, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return sqlBackend(driver, s), nil
	case DriverMemory:
		return Memory(memstore.New()), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Memory wraps an in-process store. Used for store_driver=memory and tests.
func Memory(s *memstore.Store) *Backend {
	return &Backend{Driver: DriverMemory, Rooms: s, Closures: s}
}

func sqlBackend(driver string, s *sqlstore.Store) *Backend {
	return &Backend{
		Driver:   driver,
		Rooms:    s,
		Closures: s,
		ping:     s.Ping,
		close:    func(context.Context) error { return s.Close() },
	}
}

func openMongo(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("mongo_uri is required for the mongo driver")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(cfg.MongoDatabase)
	return &Backend{
		Driver:      DriverMongo,
		Rooms:       roomstore.New(db),
		Closures:    closurestore.New(db),
		MongoClient: client,
		MongoDB:     db,
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: client.Disconnect,
	}, nil
}
