package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/roomdesk/internal/app/store/memstore"
	"github.com/dalemusser/roomdesk/internal/app/store/storeerr"
	"github.com/dalemusser/roomdesk/internal/domain/models"
)

func TestStore_LoadEmpty(t *testing.T) {
	s := memstore.New()
	if _, err := s.Load(context.Background()); !errors.Is(err, storeerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	types, err := s.LoadTypes(context.Background())
	if err != nil {
		t.Fatalf("LoadTypes failed: %v", err)
	}
	if len(types) != 8 {
		t.Errorf("expected 8 default types, got %d", len(types))
	}
}

func TestStore_SaveIsolatesCaller(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	rooms := []models.Room{{Number: 101, Type: "KXTY", Grade: models.GradeA}}

	if _, err := s.Save(ctx, rooms); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	rooms[0].IsOccupied = true

	set, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if set.Rooms[0].IsOccupied {
		t.Error("store must not alias the caller's slice")
	}
}

func TestStore_SaveVersionsIncrease(t *testing.T) {
	s := memstore.New()
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })
	ctx := context.Background()

	v1, err := s.Save(ctx, nil)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	v2, err := s.Save(ctx, nil)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !v2.After(v1) {
		t.Errorf("expected increasing versions, got %v then %v", v1, v2)
	}
	got, err := s.Version(ctx)
	if err != nil || !got.Equal(v2) {
		t.Errorf("Version = %v, %v; want %v", got, err, v2)
	}
}

func TestStore_Closures(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	for _, d := range []string{"2025-01-01", "2025-01-03", "2025-01-02", "2025-02-01"} {
		if err := s.Upsert(ctx, models.ClosureRecord{Date: d, Timestamp: time.Now()}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	list, err := s.ListByDateRange(ctx, "2025-01-01", "2025-01-31")
	if err != nil {
		t.Fatalf("ListByDateRange failed: %v", err)
	}
	want := []string{"2025-01-03", "2025-01-02", "2025-01-01"}
	if len(list) != len(want) {
		t.Fatalf("got %d records, want %d", len(list), len(want))
	}
	for i := range want {
		if list[i].Date != want[i] {
			t.Errorf("list[%d] = %q, want %q", i, list[i].Date, want[i])
		}
	}

	if _, err := s.FindByDate(ctx, "2024-12-31"); !errors.Is(err, storeerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SetFail(t *testing.T) {
	s := memstore.NewWithRooms([]models.Room{{Number: 1, Type: "KXTY"}})
	ctx := context.Background()
	boom := errors.New("unreachable")

	s.SetFail(boom)
	if _, err := s.Load(ctx); !errors.Is(err, boom) {
		t.Errorf("Load: expected injected error, got %v", err)
	}
	if _, err := s.Save(ctx, nil); !errors.Is(err, boom) {
		t.Errorf("Save: expected injected error, got %v", err)
	}
	if err := s.Upsert(ctx, models.ClosureRecord{Date: "2025-01-01"}); !errors.Is(err, boom) {
		t.Errorf("Upsert: expected injected error, got %v", err)
	}

	s.SetFail(nil)
	set, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load after clearing failure: %v", err)
	}
	if len(set.Rooms) != 1 {
		t.Errorf("failed Save must not change state, got %d rooms", len(set.Rooms))
	}
}
