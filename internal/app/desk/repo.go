// internal/app/desk/repo.go
package desk

import (
	"context"
	"time"

	"github.com/dalemusser/roomdesk/internal/domain/models"
)

// RoomRepository persists the live room set and the type catalog.
type RoomRepository interface {
	Load(ctx context.Context) (models.RoomSet, error)
	Save(ctx context.Context, rooms []models.Room) (time.Time, error)
	LoadTypes(ctx context.Context) ([]models.RoomType, error)
	SaveTypes(ctx context.Context, types []models.RoomType) error
	// Version returns the updatedAt of the stored record without loading
	// the rooms.
	Version(ctx context.Context) (time.Time, error)
}

// ClosureStore persists one closure record per calendar day.
type ClosureStore interface {
	Upsert(ctx context.Context, rec models.ClosureRecord) error
	FindByDate(ctx context.Context, date string) (models.ClosureRecord, error)
	ListByDateRange(ctx context.Context, start, end string) ([]models.ClosureRecord, error)
}

// normalizingRepo rewrites room type codes on every read and write so the
// rest of the desk only ever sees canonical codes.
type normalizingRepo struct {
	RoomRepository
}

func (n normalizingRepo) Load(ctx context.Context) (models.RoomSet, error) {
	set, err := n.RoomRepository.Load(ctx)
	if err != nil {
		return set, err
	}
	set.Rooms, _ = models.NormalizeRooms(set.Rooms)
	return set, nil
}

func (n normalizingRepo) Save(ctx context.Context, rooms []models.Room) (time.Time, error) {
	out, _ := models.NormalizeRooms(rooms)
	return n.RoomRepository.Save(ctx, out)
}

func (n normalizingRepo) LoadTypes(ctx context.Context) ([]models.RoomType, error) {
	types, err := n.RoomRepository.LoadTypes(ctx)
	if err != nil {
		return nil, err
	}
	return normalizeTypes(types), nil
}

func (n normalizingRepo) SaveTypes(ctx context.Context, types []models.RoomType) error {
	return n.RoomRepository.SaveTypes(ctx, normalizeTypes(types))
}

// normalizeTypes canonicalizes codes and drops later duplicates.
func normalizeTypes(types []models.RoomType) []models.RoomType {
	seen := make(map[string]bool, len(types))
	out := make([]models.RoomType, 0, len(types))
	for _, t := range types {
		nt := models.NewRoomType(t.Code, t.Description)
		if nt.Code == "" || seen[nt.Code] {
			continue
		}
		seen[nt.Code] = true
		out = append(out, nt)
	}
	return out
}

type normalizingClosures struct {
	ClosureStore
}

func (n normalizingClosures) Upsert(ctx context.Context, rec models.ClosureRecord) error {
	rec.Rooms, _ = models.NormalizeRooms(rec.Rooms)
	return n.ClosureStore.Upsert(ctx, rec)
}

func (n normalizingClosures) FindByDate(ctx context.Context, date string) (models.ClosureRecord, error) {
	rec, err := n.ClosureStore.FindByDate(ctx, date)
	if err != nil {
		return rec, err
	}
	rec.Rooms, _ = models.NormalizeRooms(rec.Rooms)
	return rec, nil
}

func (n normalizingClosures) ListByDateRange(ctx context.Context, start, end string) ([]models.ClosureRecord, error) {
	list, err := n.ClosureStore.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Rooms, _ = models.NormalizeRooms(list[i].Rooms)
	}
	return list, nil
}
