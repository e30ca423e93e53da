// internal/app/store/memstore/memstore.go
//
// Package memstore is an in-process room and closure backend. It is used
// for store_driver=memory and by tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/roomdesk/internal/app/store/storeerr"
	"github.com/dalemusser/roomdesk/internal/domain/models"
)

// Store holds the room set, the type catalog and closure records in memory.
// The zero value is not usable; call New.
type Store struct {
	mu        sync.RWMutex
	rooms     []models.Room
	hasRooms  bool
	updatedAt time.Time
	types     []models.RoomType
	closures  map[string]models.ClosureRecord
	now       func() time.Time
	failWith  error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		closures: make(map[string]models.ClosureRecord),
		now:      time.Now,
	}
}

// NewWithRooms returns a store whose current record holds rooms.
func NewWithRooms(rooms []models.Room) *Store {
	s := New()
	s.rooms = models.CloneRooms(rooms)
	s.hasRooms = true
	s.updatedAt = s.now().UTC()
	return s
}

// SetClock replaces the time source used for updatedAt.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetFail makes every call return err until it is cleared with nil. Tests
// use it to simulate an unreachable store.
func (s *Store) SetFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *Store) fail() error {
	return s.failWith
}

// Load implements the room repository.
func (s *Store) Load(_ context.Context) (models.RoomSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return models.RoomSet{}, err
	}
	if !s.hasRooms {
		return models.RoomSet{}, storeerr.ErrNotFound
	}
	return models.RoomSet{Rooms: models.CloneRooms(s.rooms), UpdatedAt: s.updatedAt}, nil
}

// Save implements the room repository.
func (s *Store) Save(_ context.Context, rooms []models.Room) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return time.Time{}, err
	}
	now := s.now().UTC()
	// Keep versions strictly increasing even on coarse clocks.
	if !now.After(s.updatedAt) {
		now = s.updatedAt.Add(time.Millisecond)
	}
	s.rooms = models.CloneRooms(rooms)
	s.hasRooms = true
	s.updatedAt = now
	return now, nil
}

// Version returns the updatedAt of the current record.
func (s *Store) Version(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return time.Time{}, err
	}
	if !s.hasRooms {
		return time.Time{}, storeerr.ErrNotFound
	}
	return s.updatedAt, nil
}

// LoadTypes implements the room repository.
func (s *Store) LoadTypes(_ context.Context) ([]models.RoomType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	if s.types == nil {
		return models.DefaultRoomTypes(), nil
	}
	out := make([]models.RoomType, len(s.types))
	copy(out, s.types)
	return out, nil
}

// SaveTypes implements the room repository.
func (s *Store) SaveTypes(_ context.Context, types []models.RoomType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	s.types = make([]models.RoomType, len(types))
	copy(s.types, types)
	return nil
}

// Upsert implements the closure store.
func (s *Store) Upsert(_ context.Context, rec models.ClosureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	rec.Rooms = models.CloneRooms(rec.Rooms)
	s.closures[rec.Date] = rec
	return nil
}

// FindByDate implements the closure store.
func (s *Store) FindByDate(_ context.Context, date string) (models.ClosureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return models.ClosureRecord{}, err
	}
	rec, ok := s.closures[date]
	if !ok {
		return models.ClosureRecord{}, storeerr.ErrNotFound
	}
	rec.Rooms = models.CloneRooms(rec.Rooms)
	return rec, nil
}

// ListByDateRange implements the closure store.
func (s *Store) ListByDateRange(_ context.Context, start, end string) ([]models.ClosureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	out := []models.ClosureRecord{}
	for date, rec := range s.closures {
		if date >= start && date <= end {
			rec.Rooms = models.CloneRooms(rec.Rooms)
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}
