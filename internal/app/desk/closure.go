// internal/app/desk/closure.go
package desk

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/dalemusser/roomdesk/internal/app/store/storeerr"
	"github.com/dalemusser/roomdesk/internal/app/system/apperr"
	"github.com/dalemusser/roomdesk/internal/app/system/archive"
	"github.com/dalemusser/roomdesk/internal/app/system/csvutil"
	"github.com/dalemusser/roomdesk/internal/domain/models"
	"go.uber.org/zap"
)

// Day states reported by Status.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// DefaultHistoryDays is the span History covers when no range is given.
const DefaultHistoryDays = 30

// DayStatus describes today's closure state.
type DayStatus struct {
	Date     string     `json:"date"`
	State    string     `json:"state"`
	ClosedAt *time.Time `json:"closedAt,omitempty"`
}

// CloseResult is the outcome of closing the day.
type CloseResult struct {
	Record  models.ClosureRecord  `json:"-"`
	Summary models.ClosureSummary `json:"summary"`
	// ClosedAt is the record timestamp.
	ClosedAt time.Time `json:"closedAt"`
	// ArchivedAt is where the CSV copy was written, when archiving is on
	// and succeeded.
	ArchivedAt string `json:"archivedAt,omitempty"`
}

// Today is the current date key in the controller's location.
func (c *Controller) Today() string {
	return models.DateKey(c.now(), c.loc)
}

// Yesterday is the previous date key in the controller's location.
func (c *Controller) Yesterday() string {
	return models.DateKey(c.now().In(c.loc).AddDate(0, 0, -1), c.loc)
}

// DefaultHistoryRange is the last DefaultHistoryDays days through today.
func (c *Controller) DefaultHistoryRange() (start, end string) {
	now := c.now().In(c.loc)
	return models.DateKey(now.AddDate(0, 0, -DefaultHistoryDays), c.loc), models.DateKey(now, c.loc)
}

// Close snapshots the stored room set as today's closure record. Closing the
// same day again replaces the earlier record. The snapshot is read from the
// repository, not from memory, so it reflects writes from every instance.
func (c *Controller) Close(ctx context.Context) (CloseResult, error) {
	set, err := c.repo.Load(ctx)
	if err != nil && !errors.Is(err, storeerr.ErrNotFound) {
		return CloseResult{}, apperr.Persistence("load rooms", err)
	}

	rec := models.ClosureRecord{
		Date:      c.Today(),
		Timestamp: c.now().UTC(),
		Rooms:     models.CloneRooms(set.Rooms),
	}
	if err := c.closures.Upsert(ctx, rec); err != nil {
		c.log.Error("closure save failed", zap.String("date", rec.Date), zap.Error(err))
		return CloseResult{}, apperr.Persistence("save closure "+rec.Date, err)
	}
	c.metrics.Closed()

	res := CloseResult{Record: rec, Summary: rec.Summary(), ClosedAt: rec.Timestamp}
	if c.archive != nil {
		res.ArchivedAt = c.archiveClosure(ctx, rec)
	}
	c.log.Info("day closed",
		zap.String("date", rec.Date),
		zap.Int("rooms", len(rec.Rooms)),
		zap.String("archived_at", res.ArchivedAt))
	return res, nil
}

// archiveClosure writes the CSV export of rec. Failures are logged only;
// the closure record is already stored.
func (c *Controller) archiveClosure(ctx context.Context, rec models.ClosureRecord) string {
	body := csvutil.FormatRooms(rec.Rooms)
	loc, err := c.archive.Put(ctx, archive.ClosureKey(rec.Date, "csv"), bytes.NewBufferString(body), "text/csv")
	if err != nil {
		c.log.Warn("closure archive failed", zap.String("date", rec.Date), zap.Error(err))
		return ""
	}
	return loc
}

// History returns closure records with start <= date <= end, newest first.
func (c *Controller) History(ctx context.Context, start, end string) ([]models.ClosureRecord, error) {
	if _, err := models.ParseDateKey(start); err != nil {
		return nil, apperr.Validation("invalid start date", start)
	}
	if _, err := models.ParseDateKey(end); err != nil {
		return nil, apperr.Validation("invalid end date", end)
	}
	if start > end {
		return nil, apperr.Validation("start date is after end date")
	}
	list, err := c.closures.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, apperr.Persistence("list closures", err)
	}
	if list == nil {
		list = []models.ClosureRecord{}
	}
	return list, nil
}

// Closure returns the record for date.
func (c *Controller) Closure(ctx context.Context, date string) (models.ClosureRecord, error) {
	if _, err := models.ParseDateKey(date); err != nil {
		return models.ClosureRecord{}, apperr.Validation("invalid date", date)
	}
	rec, err := c.closures.FindByDate(ctx, date)
	if errors.Is(err, storeerr.ErrNotFound) {
		return models.ClosureRecord{}, apperr.NotFound("closure", date)
	}
	if err != nil {
		return models.ClosureRecord{}, apperr.Persistence("load closure "+date, err)
	}
	return rec, nil
}

// Status reports whether today has been closed.
func (c *Controller) Status(ctx context.Context) (DayStatus, error) {
	today := c.Today()
	rec, err := c.closures.FindByDate(ctx, today)
	switch {
	case err == nil:
		ts := rec.Timestamp
		return DayStatus{Date: today, State: StateClosed, ClosedAt: &ts}, nil
	case errors.Is(err, storeerr.ErrNotFound):
		return DayStatus{Date: today, State: StateOpen}, nil
	default:
		return DayStatus{}, apperr.Persistence("load closure "+today, err)
	}
}
