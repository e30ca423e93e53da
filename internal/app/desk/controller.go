// internal/app/desk/controller.go
//
// Package desk owns the live room set. Every handler, the poller, and the
// ops CLI go through a Controller: it loads state on start, applies
// mutations through a single persist-then-swap path, and publishes each new
// snapshot to subscribers.
package desk

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/roomdesk/internal/app/store/storeerr"
	"github.com/dalemusser/roomdesk/internal/app/system/apperr"
	"github.com/dalemusser/roomdesk/internal/app/system/archive"
	"github.com/dalemusser/roomdesk/internal/app/system/changemark"
	"github.com/dalemusser/roomdesk/internal/app/system/csvutil"
	"github.com/dalemusser/roomdesk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/roomdesk/internal/app/system/metrics"
	"github.com/dalemusser/roomdesk/internal/app/system/roomops"
	"github.com/dalemusser/roomdesk/internal/app/system/validators"
	"github.com/dalemusser/roomdesk/internal/domain/models"
	"go.uber.org/zap"
)

// Where the current in-memory room set came from.
const (
	SourceEmpty   = "empty"
	SourceClosure = "closure"
	SourceLive    = "live"
)

// Snapshot is an immutable copy of the live room set.
type Snapshot struct {
	Rooms     []models.Room `json:"rooms"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Version   string        `json:"version"`
	Source    string        `json:"source"`
}

// UploadResult is returned by Upload and PreviewUpload.
type UploadResult struct {
	Parse    *csvutil.ParseResult `json:"parse"`
	Snapshot *Snapshot            `json:"snapshot,omitempty"`
}

// Options configures a Controller. Every field is optional.
type Options struct {
	// Location is used for closure date keys. Nil means UTC.
	Location *time.Location
	// Now is the clock. Nil means time.Now.
	Now func() time.Time
	// Marker publishes the version of each write for pollers elsewhere.
	Marker changemark.Marker
	// Archive receives a CSV copy of every closure.
	Archive archive.Store
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	// MaxUploadRows caps room uploads; 0 uses csvutil.MaxRows.
	MaxUploadRows int
}

// Controller is the single owner of the in-memory room set.
type Controller struct {
	repo     RoomRepository
	raw      RoomRepository
	closures ClosureStore

	loc     *time.Location
	now     func() time.Time
	marker  changemark.Marker
	archive archive.Store
	metrics *metrics.Metrics
	log     *zap.Logger
	maxRows int

	// mu serializes Start, Refresh and every mutation, including the
	// repository write.
	mu      sync.Mutex
	started bool

	stateMu   sync.RWMutex
	rooms     []models.Room
	updatedAt time.Time
	version   string
	source    string
	types     []models.RoomType

	subsMu  sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
	closed  bool
	done    chan struct{}
}

// New builds a Controller over repo and closures. Call Start before use.
func New(repo RoomRepository, closures ClosureStore, opts Options) *Controller {
	c := &Controller{
		repo:     normalizingRepo{repo},
		raw:      repo,
		closures: normalizingClosures{closures},
		loc:      opts.Location,
		now:      opts.Now,
		marker:   opts.Marker,
		archive:  opts.Archive,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		maxRows:  opts.MaxUploadRows,
		rooms:    []models.Room{},
		source:   SourceEmpty,
		types:    models.DefaultRoomTypes(),
		subs:     make(map[int]chan Snapshot),
		done:     make(chan struct{}),
	}
	if c.loc == nil {
		c.loc = time.UTC
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.maxRows == 0 {
		c.maxRows = csvutil.MaxRows
	}
	return c
}

func versionOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Start / read                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// Start loads the room types and the initial room set. Yesterday's closure,
// when present, seeds the set; otherwise the live record is loaded. A
// missing live record yields an empty set. Once Start has succeeded later
// calls return the current snapshot without touching the stores.
func (c *Controller) Start(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return c.Rooms(), nil
	}

	types, err := c.repo.LoadTypes(ctx)
	if err != nil {
		return Snapshot{}, apperr.Persistence("load room types", err)
	}

	yesterday := c.Yesterday()
	rec, err := c.closures.FindByDate(ctx, yesterday)
	switch {
	case err == nil:
		c.setState(rec.Rooms, rec.Timestamp, "", SourceClosure)
		c.log.Info("room set seeded from closure",
			zap.String("date", yesterday),
			zap.Int("rooms", len(rec.Rooms)))
	case errors.Is(err, storeerr.ErrNotFound):
		set, lerr := c.repo.Load(ctx)
		switch {
		case lerr == nil:
			c.setState(set.Rooms, set.UpdatedAt, versionOf(set.UpdatedAt), SourceLive)
			c.log.Info("room set loaded", zap.Int("rooms", len(set.Rooms)))
		case errors.Is(lerr, storeerr.ErrNotFound):
			c.setState(nil, time.Time{}, "", SourceEmpty)
			c.log.Info("no stored rooms; starting empty")
		default:
			return Snapshot{}, apperr.Persistence("load rooms", lerr)
		}
	default:
		return Snapshot{}, apperr.Persistence("load closure "+yesterday, err)
	}

	c.stateMu.Lock()
	c.types = types
	c.stateMu.Unlock()

	c.started = true
	snap := c.Rooms()
	c.metrics.ObserveRooms(snap.Rooms)
	c.publish(snap)
	return snap, nil
}

// Started reports whether Start has succeeded.
func (c *Controller) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Rooms returns a copy of the current room set.
func (c *Controller) Rooms() Snapshot {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return Snapshot{
		Rooms:     models.CloneRooms(c.rooms),
		UpdatedAt: c.updatedAt,
		Version:   c.version,
		Source:    c.source,
	}
}

// Room returns one room by number.
func (c *Controller) Room(number int) (models.Room, bool) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return roomops.FindRoom(c.rooms, number)
}

// Types returns a copy of the room type catalog.
func (c *Controller) Types() []models.RoomType {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	out := make([]models.RoomType, len(c.types))
	copy(out, c.types)
	return out
}

func (c *Controller) setState(rooms []models.Room, updatedAt time.Time, version, source string) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.rooms = models.CloneRooms(rooms)
	c.updatedAt = updatedAt
	c.version = version
	c.source = source
}

func (c *Controller) currentVersion() string {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.version
}

/*─────────────────────────────────────────────────────────────────────────────*
| Mutations                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// update computes the next room set from the current one, persists it, and
// only then swaps it in and publishes. On any error the state is unchanged.
func (c *Controller) update(ctx context.Context, op string, fn func(current []models.Room) ([]models.Room, error)) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fn(c.Rooms().Rooms)
	if err != nil {
		return Snapshot{}, err
	}
	next, _ = models.NormalizeRooms(next)

	updatedAt, err := c.repo.Save(ctx, next)
	if err != nil {
		c.log.Error("room save failed", zap.String("op", op), zap.Error(err))
		return Snapshot{}, apperr.Persistence(op, err)
	}

	version := versionOf(updatedAt)
	c.setState(next, updatedAt, version, SourceLive)

	if c.marker != nil {
		if err := c.marker.Set(ctx, version); err != nil {
			c.log.Warn("change marker update failed", zap.String("op", op), zap.Error(err))
		}
	}

	snap := c.Rooms()
	c.metrics.ObserveRooms(snap.Rooms)
	c.publish(snap)
	return snap, nil
}

// Assign marks room number occupied for an agent.
func (c *Controller) Assign(ctx context.Context, number int) (models.Room, error) {
	snap, err := c.update(ctx, "assign room", func(cur []models.Room) ([]models.Room, error) {
		return roomops.AssignRoom(cur, number)
	})
	if err != nil {
		return models.Room{}, err
	}
	c.metrics.Assigned()
	room, _ := roomops.FindRoom(snap.Rooms, number)
	return room, nil
}

// ToggleStatus flips the occupancy of room number.
func (c *Controller) ToggleStatus(ctx context.Context, number int) (models.Room, error) {
	snap, err := c.update(ctx, "toggle room status", func(cur []models.Room) ([]models.Room, error) {
		return roomops.ToggleStatus(cur, number)
	})
	if err != nil {
		return models.Room{}, err
	}
	room, _ := roomops.FindRoom(snap.Rooms, number)
	return room, nil
}

// BulkUpdate sets field to value on the selected rooms.
func (c *Controller) BulkUpdate(ctx context.Context, selected []int, field, value string) (Snapshot, error) {
	if len(selected) == 0 {
		return Snapshot{}, apperr.Validation("no rooms selected")
	}
	snap, err := c.update(ctx, "bulk update rooms", func(cur []models.Room) ([]models.Room, error) {
		return roomops.ApplyBulkUpdate(cur, selected, field, value)
	})
	if err != nil {
		return Snapshot{}, err
	}
	c.metrics.BulkUpdated(field)
	return snap, nil
}

// ReplaceAll makes rooms the complete room set. Every type must be in the
// catalog and room numbers must be unique.
func (c *Controller) ReplaceAll(ctx context.Context, rooms []models.Room) (Snapshot, error) {
	known := make(map[string]bool)
	for _, t := range c.Types() {
		known[t.Code] = true
	}
	var unknown []string
	for _, r := range rooms {
		if t := models.NormalizeType(r.Type); !known[t] {
			unknown = append(unknown, t)
		}
	}
	if len(unknown) > 0 {
		return Snapshot{}, apperr.Validation("unknown room types", unknown...)
	}
	return c.update(ctx, "replace rooms", func([]models.Room) ([]models.Room, error) {
		return roomops.ReplaceAllRooms(rooms)
	})
}

// PreviewUpload parses a room file against the current catalog without
// changing anything.
func (c *Controller) PreviewUpload(r io.Reader) (*csvutil.ParseResult, error) {
	res, err := csvutil.ParseRoomCSV(r, csvutil.ParseOptions{
		KnownTypes: models.TypeCodes(c.Types()),
		MaxRows:    c.maxRows,
	})
	if errors.Is(err, csvutil.ErrTooManyRows) {
		return nil, apperr.Validation("room file has too many rows", err.Error())
	}
	if err != nil {
		return nil, apperr.Validation("room file could not be read", err.Error())
	}
	return res, nil
}

// Upload parses a room file and, when every line is valid, replaces the
// room set with it. A file with any bad line changes nothing; the result
// then carries the row errors alongside a ValidationError.
func (c *Controller) Upload(ctx context.Context, r io.Reader) (UploadResult, error) {
	res, err := c.PreviewUpload(r)
	if err != nil {
		c.metrics.Uploaded(false)
		return UploadResult{}, err
	}
	if res.HasErrors() {
		c.metrics.Uploaded(false)
		return UploadResult{Parse: res}, apperr.Validation("room file rejected", res.Messages()...)
	}
	snap, err := c.ReplaceAll(ctx, res.Rooms)
	if err != nil {
		c.metrics.Uploaded(false)
		return UploadResult{Parse: res}, err
	}
	c.metrics.Uploaded(true)
	return UploadResult{Parse: res, Snapshot: &snap}, nil
}

// AddRoomType appends a type to the catalog. Codes are upper-cased and
// must not already exist; the description is reduced to plain text.
func (c *Controller) AddRoomType(ctx context.Context, code, description string) (models.RoomType, error) {
	code = models.NormalizeType(htmlsanitize.PlainText(code))
	if code == "" {
		return models.RoomType{}, apperr.Validation("Room type is required")
	}
	rt := models.NewRoomType(code, htmlsanitize.PlainText(description))
	if err := validators.Struct(rt); err != nil {
		return models.RoomType{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.Types()
	for _, t := range current {
		if strings.EqualFold(t.Code, rt.Code) {
			return models.RoomType{}, apperr.Validation("This room type already exists")
		}
	}
	next := append(current, rt)
	if err := c.repo.SaveTypes(ctx, next); err != nil {
		return models.RoomType{}, apperr.Persistence("save room types", err)
	}
	c.stateMu.Lock()
	c.types = next
	c.stateMu.Unlock()
	return rt, nil
}

// FixRoomTypes rewrites legacy type codes in the stored room set and saves
// it once. It returns how many rooms were changed; zero means nothing was
// written.
func (c *Controller) FixRoomTypes(ctx context.Context) (int, error) {
	set, err := c.raw.Load(ctx)
	if errors.Is(err, storeerr.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Persistence("load rooms", err)
	}

	fixed, changed := models.NormalizeRooms(set.Rooms)
	if !changed {
		return 0, nil
	}
	n := 0
	for i := range fixed {
		if fixed[i].Type != set.Rooms[i].Type {
			n++
		}
	}
	if _, err := c.update(ctx, "fix room types", func([]models.Room) ([]models.Room, error) {
		return fixed, nil
	}); err != nil {
		return 0, err
	}
	c.log.Info("room types fixed", zap.Int("rooms", n))
	return n, nil
}

// Refresh reloads the live record, replacing the in-memory set. The reload
// is skipped when the stored version equals the held one. A change marker
// that differs from the held version goes straight to the reload; writers
// without a marker are still caught by the version check. It reports whether
// the set changed.
func (c *Controller) Refresh(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	held := c.currentVersion()
	if held != "" && !c.markerMoved(ctx, held) {
		stored, err := c.repo.Version(ctx)
		if errors.Is(err, storeerr.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, apperr.Persistence("check room version", err)
		}
		if versionOf(stored) == held {
			return false, nil
		}
	}

	set, err := c.repo.Load(ctx)
	if errors.Is(err, storeerr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Persistence("load rooms", err)
	}

	if types, terr := c.repo.LoadTypes(ctx); terr != nil {
		c.log.Warn("room types reload failed", zap.Error(terr))
	} else {
		c.stateMu.Lock()
		c.types = types
		c.stateMu.Unlock()
	}

	version := versionOf(set.UpdatedAt)
	c.setState(set.Rooms, set.UpdatedAt, version, SourceLive)
	if version == held {
		return false, nil
	}

	snap := c.Rooms()
	c.metrics.ObserveRooms(snap.Rooms)
	c.publish(snap)
	return true, nil
}

// markerMoved reports whether the change marker holds a version other than
// held. No marker, no mark yet, or a read error all report false.
func (c *Controller) markerMoved(ctx context.Context, held string) bool {
	if c.marker == nil {
		return false
	}
	mark, err := c.marker.Get(ctx)
	if err != nil {
		if !errors.Is(err, changemark.ErrNoMark) {
			c.log.Warn("change marker read failed", zap.Error(err))
		}
		return false
	}
	return mark != held
}

/*─────────────────────────────────────────────────────────────────────────────*
| Subscribers                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// Subscribe returns a channel that receives every new snapshot and a
// function that unsubscribes and closes it. A slow subscriber only ever
// sees the most recent snapshot. After Shutdown the channel comes back closed.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	ch := make(chan Snapshot, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	return ch, func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		// Shutdown may already have closed it.
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
}

// Shutdown ends every subscription so open streams return. It is safe to
// call more than once and does not stop writes.
func (c *Controller) Shutdown() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

// Done is closed once Shutdown has run.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) publish(s Snapshot) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		s := s
		s.Rooms = models.CloneRooms(s.Rooms)
		select {
		case ch <- s:
		default:
			// Drop the stale snapshot and deliver the new one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}
