package desk_test

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/roomdesk/internal/app/desk"
	"github.com/dalemusser/roomdesk/internal/app/store/memstore"
	"github.com/dalemusser/roomdesk/internal/app/system/apperr"
	"github.com/dalemusser/roomdesk/internal/app/system/archive"
	"github.com/dalemusser/roomdesk/internal/app/system/csvutil"
	"github.com/dalemusser/roomdesk/internal/domain/models"
	"github.com/dalemusser/roomdesk/internal/testutil"
)

type failingArchive struct{}

func (failingArchive) Put(context.Context, string, io.Reader, string) (string, error) {
	return "", errors.New("bucket gone")
}

func TestClose_SnapshotsStoredRooms(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewWithRooms(testutil.SampleRooms())
	c := newDesk(t, store, desk.Options{})

	status, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.State != desk.StateOpen || status.Date != "2025-06-02" || status.ClosedAt != nil {
		t.Errorf("unexpected status before close: %+v", status)
	}

	res, err := c.Close(ctx)
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if res.Summary.Total != 6 || res.Summary.Occupied != 1 || res.Summary.Ungraded != 1 {
		t.Errorf("unexpected summary: %+v", res.Summary)
	}
	if res.ArchivedAt != "" {
		t.Errorf("no archive configured, got %q", res.ArchivedAt)
	}

	rec, err := c.Closure(ctx, "2025-06-02")
	if err != nil {
		t.Fatalf("Closure failed: %v", err)
	}
	if !rec.Timestamp.Equal(fixedNow) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp, fixedNow)
	}
	if got := roomByNumber(t, rec.Rooms, 104).Type; got != "KXPL" {
		t.Errorf("closure kept legacy type %q", got)
	}

	status, err = c.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.State != desk.StateClosed || status.ClosedAt == nil || !status.ClosedAt.Equal(fixedNow) {
		t.Errorf("unexpected status after close: %+v", status)
	}
}

func TestClose_AgainOverwritesSameDay(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewWithRooms(testutil.SampleRooms())
	c := newDesk(t, store, desk.Options{})

	if _, err := c.Close(ctx); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if _, err := c.Assign(ctx, 101); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if _, err := c.Close(ctx); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	list, err := c.History(ctx, "2025-06-01", "2025-06-03")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one record for the day, got %d", len(list))
	}
	if !roomByNumber(t, list[0].Rooms, 101).IsOccupied {
		t.Error("second close did not replace the first")
	}
}

func TestClose_EmptyWhenNoRoomsStored(t *testing.T) {
	c := newDesk(t, memstore.New(), desk.Options{})
	res, err := c.Close(context.Background())
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if res.Summary.Total != 0 || res.Record.Rooms == nil {
		t.Errorf("expected empty, non-nil snapshot; got %+v", res.Record)
	}
}

func TestClose_StoreFailure(t *testing.T) {
	store := memstore.NewWithRooms(testutil.SampleRooms())
	c := newDesk(t, store, desk.Options{})
	store.SetFail(errors.New("down"))

	if _, err := c.Close(context.Background()); !apperr.IsPersistence(err) {
		t.Errorf("expected persistence error, got %v", err)
	}
}

func TestClose_ArchivesCSV(t *testing.T) {
	dir := t.TempDir()
	local, err := archive.NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	c := newDesk(t, memstore.NewWithRooms(testutil.SampleRooms()), desk.Options{Archive: local})

	res, err := c.Close(context.Background())
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !strings.Contains(res.ArchivedAt, "closures/2025/06/2025-06-02-") {
		t.Fatalf("unexpected archive path %q", res.ArchivedAt)
	}
	data, err := os.ReadFile(res.ArchivedAt)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if !strings.HasPrefix(string(data), csvutil.ExportHeader) {
		t.Errorf("archive is not the CSV export: %q", string(data))
	}
}

func TestClose_ArchiveFailureIsNotFatal(t *testing.T) {
	c := newDesk(t, memstore.NewWithRooms(testutil.SampleRooms()), desk.Options{Archive: failingArchive{}})

	res, err := c.Close(context.Background())
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if res.ArchivedAt != "" {
		t.Errorf("ArchivedAt = %q, want empty", res.ArchivedAt)
	}
	if _, err := c.Closure(context.Background(), res.Record.Date); err != nil {
		t.Errorf("closure not stored: %v", err)
	}
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	for _, d := range []string{"2025-05-01", "2025-05-15", "2025-05-31", "2025-06-02"} {
		_ = store.Upsert(ctx, models.ClosureRecord{Date: d, Timestamp: fixedNow})
	}
	c := newDesk(t, store, desk.Options{})

	start, end := c.DefaultHistoryRange()
	if start != "2025-05-03" || end != "2025-06-02" {
		t.Errorf("default range = %s..%s", start, end)
	}

	list, err := c.History(ctx, start, end)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	var dates []string
	for _, r := range list {
		dates = append(dates, r.Date)
	}
	if strings.Join(dates, ",") != "2025-06-02,2025-05-31,2025-05-15" {
		t.Errorf("dates = %v", dates)
	}

	empty, err := c.History(ctx, "2020-01-01", "2020-01-31")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil list, got %v, %v", empty, err)
	}

	tests := []struct {
		name       string
		start, end string
	}{
		{"bad start", "June 1", "2025-06-02"},
		{"bad end", "2025-06-01", "2025-13-01"},
		{"reversed", "2025-06-02", "2025-06-01"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.History(ctx, tc.start, tc.end); !apperr.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestClosure_NotFound(t *testing.T) {
	c := newDesk(t, memstore.New(), desk.Options{})
	if _, err := c.Closure(context.Background(), "2024-12-25"); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := c.Closure(context.Background(), "yesterday"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDateKeysUseLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 02:00 UTC on June 2 is still June 1 in New York.
	late := time.Date(2025, 6, 2, 2, 0, 0, 0, time.UTC)
	c := desk.New(memstore.New(), memstore.New(), desk.Options{
		Location: ny,
		Now:      func() time.Time { return late },
	})
	if got := c.Today(); got != "2025-06-01" {
		t.Errorf("Today = %s, want 2025-06-01", got)
	}
	if got := c.Yesterday(); got != "2025-05-31" {
		t.Errorf("Yesterday = %s, want 2025-05-31", got)
	}
}
