// internal/app/store/sqlstore/sqlstore.go
//
// Package sqlstore keeps rooms, room types and closures in SQLite or
// Postgres. Each record is a JSON payload in a keyed row, mirroring the
// single-document layout of the Mongo backend.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/roomdesk/internal/app/store/storeerr"
	"github.com/dalemusser/roomdesk/internal/domain/models"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

const currentID = "current"

// Store implements the room repository and closure store over database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects using dialect and dsn (a file path for SQLite) and creates
// the tables if needed.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	var driver string
	switch dialect {
	case SQLite:
		driver = "sqlite"
		if dsn == "" {
			dsn = "roomdesk.db"
		}
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create dirs: %w", err)
			}
		}
	case Postgres:
		driver = "pgx"
		if dsn == "" {
			return nil, errors.New("postgres dsn is empty")
		}
	default:
		return nil, fmt.Errorf("unknown sql dialect %q", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == SQLite {
		// One writer; avoids SQLITE_BUSY between the poller and handlers.
		db.SetMaxOpenConns(1)
	}
	s := New(db, dialect)
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing handle. Callers own schema creation.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB exposes the handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the handle.
func (s *Store) Close() error { return s.db.Close() }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS hotel_rooms (
		id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS room_types (
		id TEXT PRIMARY KEY,
		payload TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS daily_closures (
		date TEXT PRIMARY KEY,
		ts TEXT NOT NULL,
		payload TEXT NOT NULL
	)`,
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(q string) string {
	if s.dialect != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Rooms                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Load returns the current room set or storeerr.ErrNotFound.
func (s *Store) Load(ctx context.Context) (models.RoomSet, error) {
	var payload, updated string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT payload, updated_at FROM hotel_rooms WHERE id = ?`), currentID).
		Scan(&payload, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoomSet{}, storeerr.ErrNotFound
	}
	if err != nil {
		return models.RoomSet{}, fmt.Errorf("select rooms: %w", err)
	}

	var rooms []models.Room
	if err := json.Unmarshal([]byte(payload), &rooms); err != nil {
		return models.RoomSet{}, fmt.Errorf("decode rooms: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return models.RoomSet{}, fmt.Errorf("decode updated_at: %w", err)
	}
	return models.RoomSet{Rooms: models.CloneRooms(rooms), UpdatedAt: ts.UTC()}, nil
}

// Save replaces the current room set.
func (s *Store) Save(ctx context.Context, rooms []models.Room) (time.Time, error) {
	data, err := json.Marshal(models.CloneRooms(rooms))
	if err != nil {
		return time.Time{}, fmt.Errorf("encode rooms: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO hotel_rooms(id, payload, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`),
		currentID, string(data), now.Format(time.RFC3339Nano))
	if err != nil {
		return time.Time{}, fmt.Errorf("upsert rooms: %w", err)
	}
	return now, nil
}

// Version returns the current record's updated_at or storeerr.ErrNotFound.
func (s *Store) Version(ctx context.Context) (time.Time, error) {
	var updated string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT updated_at FROM hotel_rooms WHERE id = ?`), currentID).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, storeerr.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("select version: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode updated_at: %w", err)
	}
	return ts.UTC(), nil
}

// LoadTypes returns the stored catalog or the defaults.
func (s *Store) LoadTypes(ctx context.Context) ([]models.RoomType, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT payload FROM room_types WHERE id = ?`), currentID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultRoomTypes(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select room types: %w", err)
	}
	var stored []models.RoomType
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		return nil, fmt.Errorf("decode room types: %w", err)
	}
	out := make([]models.RoomType, 0, len(stored))
	for _, t := range stored {
		out = append(out, models.NewRoomType(t.Code, t.Description))
	}
	return out, nil
}

// SaveTypes replaces the catalog.
func (s *Store) SaveTypes(ctx context.Context, types []models.RoomType) error {
	if types == nil {
		types = []models.RoomType{}
	}
	data, err := json.Marshal(types)
	if err != nil {
		return fmt.Errorf("encode room types: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO room_types(id, payload) VALUES(?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`), currentID, string(data))
	if err != nil {
		return fmt.Errorf("upsert room types: %w", err)
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Closures                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// Upsert writes rec, replacing any record for the same date.
func (s *Store) Upsert(ctx context.Context, rec models.ClosureRecord) error {
	data, err := json.Marshal(models.CloneRooms(rec.Rooms))
	if err != nil {
		return fmt.Errorf("encode closure: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO daily_closures(date, ts, payload) VALUES(?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET ts = excluded.ts, payload = excluded.payload`),
		rec.Date, rec.Timestamp.UTC().Format(time.RFC3339Nano), string(data))
	if err != nil {
		return fmt.Errorf("upsert closure: %w", err)
	}
	return nil
}

// FindByDate returns the record for date or storeerr.ErrNotFound.
func (s *Store) FindByDate(ctx context.Context, date string) (models.ClosureRecord, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT date, ts, payload FROM daily_closures WHERE date = ?`), date)
	rec, err := scanClosure(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ClosureRecord{}, storeerr.ErrNotFound
	}
	return rec, err
}

// ListByDateRange returns records with start <= date <= end, newest first.
func (s *Store) ListByDateRange(ctx context.Context, start, end string) ([]models.ClosureRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT date, ts, payload FROM daily_closures WHERE date >= ? AND date <= ? ORDER BY date DESC`),
		start, end)
	if err != nil {
		return nil, fmt.Errorf("select closures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []models.ClosureRecord{}
	for rows.Next() {
		rec, err := scanClosure(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate closures: %w", err)
	}
	return out, nil
}

func scanClosure(scan func(dest ...any) error) (models.ClosureRecord, error) {
	var date, ts, payload string
	if err := scan(&date, &ts, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ClosureRecord{}, err
		}
		return models.ClosureRecord{}, fmt.Errorf("scan closure: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return models.ClosureRecord{}, fmt.Errorf("decode closure %s timestamp: %w", date, err)
	}
	var rooms []models.Room
	if err := json.Unmarshal([]byte(payload), &rooms); err != nil {
		return models.ClosureRecord{}, fmt.Errorf("decode closure %s: %w", date, err)
	}
	return models.ClosureRecord{Date: date, Timestamp: t.UTC(), Rooms: models.CloneRooms(rooms)}, nil
}
