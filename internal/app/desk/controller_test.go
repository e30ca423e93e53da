package desk_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/roomdesk/internal/app/desk"
	"github.com/dalemusser/roomdesk/internal/app/store/memstore"
	"github.com/dalemusser/roomdesk/internal/app/system/apperr"
	"github.com/dalemusser/roomdesk/internal/app/system/changemark"
	"github.com/dalemusser/roomdesk/internal/app/system/metrics"
	"github.com/dalemusser/roomdesk/internal/domain/models"
	"github.com/dalemusser/roomdesk/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

var fixedNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newDesk(t *testing.T, store *memstore.Store, opts desk.Options) *desk.Controller {
	t.Helper()
	if opts.Now == nil {
		opts.Now = clock
	}
	c := desk.New(store, store, opts)
	if _, err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return c
}

func roomByNumber(t *testing.T, rooms []models.Room, n int) models.Room {
	t.Helper()
	for _, r := range rooms {
		if r.Number == n {
			return r
		}
	}
	t.Fatalf("room %d not found", n)
	return models.Room{}
}

func TestStart_SeedsFromYesterdaysClosure(t *testing.T) {
	store := memstore.NewWithRooms(testutil.SampleRooms())
	seed := []models.Room{{Number: 999, Type: "SXQL", Grade: models.GradeA}}
	if err := store.Upsert(context.Background(), models.ClosureRecord{Date: "2025-06-01", Timestamp: fixedNow.Add(-12 * time.Hour), Rooms: seed}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	c := newDesk(t, store, desk.Options{})
	snap := c.Rooms()

	if snap.Source != desk.SourceClosure {
		t.Errorf("Source = %q, want %q", snap.Source, desk.SourceClosure)
	}
	if len(snap.Rooms) != 1 || snap.Rooms[0].Number != 999 {
		t.Errorf("expected the closure snapshot, got %+v", snap.Rooms)
	}
	if snap.Version != "" {
		t.Errorf("closure seed should carry no version, got %q", snap.Version)
	}
}

func TestStart_LoadsLiveSetWithoutClosure(t *testing.T) {
	store := memstore.NewWithRooms(testutil.SampleRooms())
	c := newDesk(t, store, desk.Options{})

	snap := c.Rooms()
	if snap.Source != desk.SourceLive {
		t.Errorf("Source = %q, want %q", snap.Source, desk.SourceLive)
	}
	if len(snap.Rooms) != len(testutil.SampleRooms()) {
		t.Fatalf("got %d rooms, want %d", len(snap.Rooms), len(testutil.SampleRooms()))
	}
	if got := roomByNumber(t, snap.Rooms, 104).Type; got != "KXPL" {
		t.Errorf("legacy type not normalized on load: %q", got)
	}
	if snap.Version == "" {
		t.Error("live set should carry a version")
	}
}

func TestStart_EmptyWhenNothingStored(t *testing.T) {
	c := newDesk(t, memstore.New(), desk.Options{})
	snap := c.Rooms()
	if snap.Source != desk.SourceEmpty || len(snap.Rooms) != 0 {
		t.Errorf("expected empty set, got source=%q rooms=%d", snap.Source, len(snap.Rooms))
	}
	if len(c.Types()) != len(models.DefaultRoomTypes()) {
		t.Errorf("expected default types, got %d", len(c.Types()))
	}
}

func TestStart_StoreFailureIsPersistenceError(t *testing.T) {
	store := memstore.NewWithRooms(testutil.SampleRooms())
	store.SetFail(errors.New("unreachable"))

	c := desk.New(store, store, desk.Options{Now: clock})
	_, err := c.Start(context.Background())
	if !apperr.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if c.Started() {
		t.Error("failed Start should not mark the controller started")
	}

	store.SetFail(nil)
	if _, err := c.Start(context.Background()); err != nil {
		t.Fatalf("retry Start failed: %v", err)
	}
	if !c.Started() {
		t.Error("expected started after retry")
	}
}

func TestStart_RunsOnce(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewWithRooms(testutil.SampleRooms())
	c := newDesk(t, store, desk.Options{})

	if _, err := store.Save(ctx, nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	snap, err := c.Start(ctx)
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if len(snap.Rooms) != len(testutil.SampleRooms()) {
		t.Errorf("second Start reloaded; got %d rooms", len(snap.Rooms))
	}
}

func TestAssign(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewWithRooms(testutil.SampleRooms())
	m := metrics.New()
	c := newDesk(t, store, desk.Options{Metrics: m})

	room, err := c.Assign(ctx, 101)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if !room.IsOccupied || room.Grade != models.GradeA {
		t.Errorf("unexpected room after assign: %+v", room)
	}

	set, _ := store.Load(ctx)
	if !roomByNumber(t, set.Rooms, 101).IsOccupied {
		t.Error("assignment was not persisted")
	}
	if c.Rooms().Version == "" {
		t.Error("expected a version after a write")
	}

	expected := `
# HELP roomdesk_assignments_total Rooms assigned by agents.
# TYPE roomdesk_assignments_total counter
roomdesk_assignments_total 1
`
	if err := promtest.GatherAndCompare(m.Registry(), strings.NewReader(expected), "roomdesk_assignments_total"); err != nil {
		t.Errorf("assignment counter: %v", err)
	}
}

func TestAssign_UnknownRoom(t *testing.T) {
	c := newDesk(t, memstore.NewWithRooms(testutil.SampleRooms()), desk.Options{})
	before := c.Rooms()

	_, err := c.Assign(context.Background(), 4242)
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if c.Rooms().Version != before.Version {
		t.Error("state changed after a rejected assign")
	}
}

func TestUpdate_PersistFailureLeavesStateUnchanged(t *testing.T) {
	store := memstore.NewWithRooms(testutil.SampleRooms())
	c := newDesk(t, store, desk.Options{})
	before := c.Rooms()

	store.SetFail(errors.New("write refused"))
	_, err := c.Assign(context.Background(), 101)
	if !apperr.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	after := c.Rooms()
	if roomByNumber(t, after.Rooms, 101).IsOccupied {
		t.Error("in-memory state changed despite failed save")
	}
	if after.Version != before.Version {
		t.Errorf("version changed: %q -> %q", before.Version, after.Version)
	}
}

func TestToggleStatus(t *testing.T) {
	c := newDesk(t, memstore.NewWithRooms(testutil.SampleRooms()), desk.Options{})

	room, err := c.ToggleStatus(context.Background(), 103)
	if err != nil {
		t.Fatalf("ToggleStatus failed: %v", err)
	}
	if room.IsOccupied {
		t.Error("expected 103 to become vacant")
	}
	if _, err := c.ToggleStatus(context.Background(), 1); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestBulkUpdate(t *testing.T) {
	ctx := context.Background()
	c := newDesk(t, memstore.NewWithRooms(testutil.SampleRooms()), desk.Options{})

	snap, err := c.BulkUpdate(ctx, []int{201, 202, 777}, "grade", "B+")
	if err != nil {
		t.Fatalf("BulkUpdate failed: %v", err)
	}
	for _, n := range []int{201, 202} {
		if g := roomByNumber(t, snap.Rooms, n).Grade; g != models.GradeBPlus {
			t.Errorf("room %d grade = %q, want B+", n, g)
		}
	}
	if g := roomByNumber(t, snap.Rooms, 101).Grade; g != models.GradeA {
		t.Errorf("unselected room changed: %q", g)
	}

	tests := []struct {
		name     string
		selected []int
		field    string
		value    string
	}{
		{"no selection", nil, "grade", "A"},
		{"unknown field", []int{101}, "type", "SXQL"},
		{"empty grade", []int{101}, "grade", ""},
		{"bad grade", []int{101}, "grade", "D"},
		{"bad status", []int{101}, "status", "dirty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.BulkUpdate(ctx, tc.selected, tc.field, tc.value); !apperr.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewWithRooms(testutil.SampleRooms())
	c := newDesk(t, store, desk.Options{})

	res, err := c.Upload(ctx, strings.NewReader("room_number,room_type,grade\n301,kpxl,A\n302,SXQL\n"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if res.Snapshot == nil || len(res.Snapshot.Rooms) != 2 {
		t.Fatalf("expected 2 rooms after upload, got %+v", res.Snapshot)
	}
	if got := roomByNumber(t, res.Snapshot.Rooms, 301).Type; got != "KXPL" {
		t.Errorf("type = %q, want KXPL", got)
	}
	if g := roomByNumber(t, res.Snapshot.Rooms, 302).Grade; g != models.Ungraded {
		t.Errorf("expected ungraded, got %q", g)
	}
}

func TestUpload_RejectsWholeFileOnBadLine(t *testing.T) {
	ctx := context.Background()
	c := newDesk(t, memstore.NewWithRooms(testutil.SampleRooms()), desk.Options{})
	before := c.Rooms()

	res, err := c.Upload(ctx, strings.NewReader("301,KXTY,A\n302,ZZZZ,B\n303,SXQL,Q\n"))
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if res.Parse == nil || len(res.Parse.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %+v", res.Parse)
	}
	if res.Snapshot != nil {
		t.Error("rejected upload should carry no snapshot")
	}
	if len(c.Rooms().Rooms) != len(before.Rooms) {
		t.Error("rooms changed after rejected upload")
	}
}

func TestPreviewUpload_DoesNotWrite(t *testing.T) {
	c := newDesk(t, memstore.NewWithRooms(testutil.SampleRooms()), desk.Options{})
	before := c.Rooms().Version

	res, err := c.PreviewUpload(strings.NewReader("301,KXTY,A\n"))
	if err != nil {
		t.Fatalf("PreviewUpload failed: %v", err)
	}
	if len(res.Rooms) != 1 {
		t.Errorf("expected 1 parsed room, got %d", len(res.Rooms))
	}
	if c.Rooms().Version != before {
		t.Error("preview wrote to the store")
	}
}

func TestPreviewUpload_TooManyRows(t *testing.T) {
	c := newDesk(t, memstore.New(), desk.Options{MaxUploadRows: 2})
	_, err := c.PreviewUpload(strings.NewReader("1,KXTY\n2,KXTY\n3,KXTY\n"))
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestReplaceAll(t *testing.T) {
	ctx := context.Background()
	c := newDesk(t, memstore.New(), desk.Options{})

	_, err := c.ReplaceAll(ctx, []models.Room{{Number: 1, Type: "KXTY"}, {Number: 1, Type: "SXQL"}})
	if !apperr.IsValidation(err) {
		t.Errorf("duplicate numbers: expected validation error, got %v", err)
	}
	_, err = c.ReplaceAll(ctx, []models.Room{{Number: 1, Type: "PENTHOUSE"}})
	if !apperr.IsValidation(err) {
		t.Errorf("unknown type: expected validation error, got %v", err)
	}
	snap, err := c.ReplaceAll(ctx, []models.Room{{Number: 2, Type: "KPXL"}})
	if err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	if snap.Rooms[0].Type != "KXPL" {
		t.Errorf("type = %q, want KXPL", snap.Rooms[0].Type)
	}
}

func TestAddRoomType(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	c := newDesk(t, store, desk.Options{})

	rt, err := c.AddRoomType(ctx, "  suite ", "<b>Corner</b> suite")
	if err != nil {
		t.Fatalf("AddRoomType failed: %v", err)
	}
	if rt.Code != "SUITE" || rt.Description != "Corner suite" {
		t.Errorf("unexpected type: %+v", rt)
	}
	stored, _ := store.LoadTypes(ctx)
	if len(stored) != len(models.DefaultRoomTypes())+1 {
		t.Errorf("expected catalog to grow, got %d", len(stored))
	}

	tests := []struct {
		name string
		code string
		want string
	}{
		{"empty", "   ", "Room type is required"},
		{"duplicate", "Suite", "This room type already exists"},
		{"legacy duplicate", "kpxl", "This room type already exists"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.AddRoomType(ctx, tc.code, "")
			if !apperr.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if err.Error() != tc.want {
				t.Errorf("error = %q, want %q", err.Error(), tc.want)
			}
		})
	}

	// New types are accepted by uploads right away.
	if _, err := c.Upload(ctx, strings.NewReader("900,SUITE,A\n")); err != nil {
		t.Errorf("upload with new type failed: %v", err)
	}
}

func TestFixRoomTypes(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewWithRooms(testutil.SampleRooms())
	c := newDesk(t, store, desk.Options{})

	n, err := c.FixRoomTypes(ctx)
	if err != nil {
		t.Fatalf("FixRoomTypes failed: %v", err)
	}
	if n != 1 {
		t.Errorf("fixed %d rooms, want 1", n)
	}
	set, _ := store.Load(ctx)
	if got := roomByNumber(t, set.Rooms, 104).Type; got != "KXPL" {
		t.Errorf("stored type = %q, want KXPL", got)
	}

	n, err = c.FixRoomTypes(ctx)
	if err != nil || n != 0 {
		t.Errorf("second run: n=%d err=%v, want 0, nil", n, err)
	}
}

func TestRefresh_UsesChangeMarker(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewWithRooms(testutil.SampleRooms())
	marker := &changemark.Memory{}

	a := newDesk(t, store, desk.Options{Marker: marker})
	b := newDesk(t, store, desk.Options{Marker: marker})

	if _, err := a.Assign(ctx, 102); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	changed, err := b.Refresh(ctx)
	if err != nil || !changed {
		t.Fatalf("first refresh: changed=%v err=%v", changed, err)
	}
	if !roomByNumber(t, b.Rooms().Rooms, 102).IsOccupied {
		t.Error("b did not pick up a's assignment")
	}

	changed, err = b.Refresh(ctx)
	if err != nil || changed {
		t.Errorf("second refresh: changed=%v err=%v, want false, nil", changed, err)
	}

}

func TestRefresh_SeesWritersWithoutMarker(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewWithRooms(testutil.SampleRooms())
	marker := &changemark.Memory{}

	server := newDesk(t, store, desk.Options{Marker: marker})
	if _, err := server.Assign(ctx, 101); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	// A second writer with no marker, as roomctl runs without Redis.
	cli := newDesk(t, store, desk.Options{})
	if _, err := cli.Upload(ctx, strings.NewReader("501,SXQL,A\n")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	changed, err := server.Refresh(ctx)
	if err != nil || !changed {
		t.Fatalf("refresh: changed=%v err=%v, want true, nil", changed, err)
	}
	rooms := server.Rooms().Rooms
	if len(rooms) != 1 || rooms[0].Number != 501 {
		t.Fatalf("server kept a stale set: %+v", rooms)
	}

	// A later server write must build on the imported set.
	if _, err := server.Assign(ctx, 501); err != nil {
		t.Fatalf("Assign after refresh failed: %v", err)
	}
	set, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(set.Rooms) != 1 || !set.Rooms[0].IsOccupied {
		t.Errorf("stored rooms = %+v, want only 501 occupied", set.Rooms)
	}
}

func TestRefresh_ReplacesClosureSeed(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewWithRooms(testutil.SampleRooms())
	_ = store.Upsert(ctx, models.ClosureRecord{Date: "2025-06-01", Rooms: []models.Room{{Number: 5, Type: "SXQL"}}})

	c := newDesk(t, store, desk.Options{})
	changed, err := c.Refresh(ctx)
	if err != nil || !changed {
		t.Fatalf("refresh: changed=%v err=%v", changed, err)
	}
	if c.Rooms().Source != desk.SourceLive {
		t.Errorf("Source = %q, want live", c.Rooms().Source)
	}
}

func TestRefresh_StoreFailure(t *testing.T) {
	store := memstore.NewWithRooms(testutil.SampleRooms())
	c := newDesk(t, store, desk.Options{})
	store.SetFail(errors.New("down"))

	if _, err := c.Refresh(context.Background()); !apperr.IsPersistence(err) {
		t.Errorf("expected persistence error, got %v", err)
	}
	if len(c.Rooms().Rooms) != len(testutil.SampleRooms()) {
		t.Error("state lost after failed refresh")
	}
}

func TestSubscribe(t *testing.T) {
	c := newDesk(t, memstore.NewWithRooms(testutil.SampleRooms()), desk.Options{})
	ch, cancel := c.Subscribe()

	if _, err := c.Assign(context.Background(), 101); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	select {
	case snap := <-ch:
		if !roomByNumber(t, snap.Rooms, 101).IsOccupied {
			t.Error("published snapshot does not include the assignment")
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
}

func TestSubscribe_SlowReaderGetsLatest(t *testing.T) {
	ctx := context.Background()
	c := newDesk(t, memstore.NewWithRooms(testutil.SampleRooms()), desk.Options{})
	ch, cancel := c.Subscribe()
	defer cancel()

	_, _ = c.Assign(ctx, 101)
	_, _ = c.Assign(ctx, 102)

	snap := <-ch
	if !roomByNumber(t, snap.Rooms, 102).IsOccupied {
		t.Error("expected the most recent snapshot")
	}
}

func TestShutdown_EndsSubscriptions(t *testing.T) {
	c := newDesk(t, memstore.NewWithRooms(testutil.SampleRooms()), desk.Options{})
	first, cancelFirst := c.Subscribe()
	second, cancelSecond := c.Subscribe()

	select {
	case <-c.Done():
		t.Fatal("Done closed before Shutdown")
	default:
	}
	c.Shutdown()
	c.Shutdown()
	<-c.Done()

	for i, ch := range []<-chan desk.Snapshot{first, second} {
		select {
		case _, ok := <-ch:
			if ok {
				t.Errorf("subscriber %d: received a snapshot, want closed channel", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d still open after Shutdown", i)
		}
	}

	// Unsubscribing after Shutdown must not close the channel again.
	cancelFirst()
	cancelSecond()

	late, cancelLate := c.Subscribe()
	defer cancelLate()
	if _, ok := <-late; ok {
		t.Error("Subscribe after Shutdown should return a closed channel")
	}

	// Writes still work; there is just nobody to tell.
	if _, err := c.Assign(context.Background(), 101); err != nil {
		t.Errorf("Assign after Shutdown failed: %v", err)
	}
}
