// internal/app/features/auditlog/list.go
package auditlog

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/dalemusser/roomdesk/internal/app/features/errors"
	"github.com/dalemusser/roomdesk/internal/app/store/audit"
	"github.com/dalemusser/roomdesk/internal/app/system/apperr"
	"github.com/dalemusser/roomdesk/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

const (
	pageSize = 50

	defaultFailedHours = 24
	maxFailedHours     = 7 * 24
	failedLimit        = 100
)

type eventRow struct {
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"eventType"`
	Role          string            `json:"role,omitempty"`
	IP            string            `json:"ip"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failureReason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

type listVM struct {
	Events     []eventRow `json:"events"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
}

type failedVM struct {
	Since  time.Time  `json:"since"`
	Events []eventRow `json:"events"`
}

func rows(events []audit.Event) []eventRow {
	out := make([]eventRow, 0, len(events))
	for _, e := range events {
		out = append(out, eventRow{
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			Role:          e.Role,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		})
	}
	return out
}

func (h *Handler) available(w http.ResponseWriter) bool {
	if h.Store == nil {
		uierrors.WriteError(w, http.StatusNotFound, "Audit events are only kept with the mongo store.")
		return false
	}
	return true
}

// filterFrom reads category, event_type, role, start_date, end_date and page.
// Dates are YYYY-MM-DD in UTC; the end date is inclusive.
func filterFrom(r *http.Request) (audit.QueryFilter, int, error) {
	filter := audit.QueryFilter{
		Category:  query.Get(r, "category"),
		EventType: query.Get(r, "event_type"),
		Role:      query.Get(r, "role"),
		Limit:     pageSize,
	}

	page := 1
	if v := query.Get(r, "page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			return filter, 0, apperr.Validation("invalid page", v)
		}
		page = p
	}
	filter.Offset = int64((page - 1) * pageSize)

	if v := query.Get(r, "start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, 0, apperr.Validation("invalid start_date", v)
		}
		filter.StartTime = &t
	}
	if v := query.Get(r, "end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, 0, apperr.Validation("invalid end_date", v)
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &end
	}
	if filter.StartTime != nil && filter.EndTime != nil && filter.EndTime.Before(*filter.StartTime) {
		return filter, 0, apperr.Validation("end_date is before start_date")
	}
	return filter, page, nil
}

// ServeList handles GET /admin/audit, newest first, one page at a time.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	filter, page, err := filterFrom(r)
	if err != nil {
		h.ErrLog.Respond(w, r, "audit: bad filter", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "audit list")
	defer cancel()

	events, err := h.Store.Query(ctx, filter)
	if err != nil {
		h.ErrLog.Respond(w, r, "audit: query", apperr.Persistence("query audit events", err))
		return
	}
	total, err := h.Store.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.Respond(w, r, "audit: count", apperr.Persistence("count audit events", err))
		return
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	uierrors.WriteJSON(w, http.StatusOK, listVM{
		Events:     rows(events),
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	})
}

// ServeFailedLogins handles GET /admin/audit/failed-logins?hours=N: wrong
// admin passwords and invalid roles in the last N hours (default 24).
func (h *Handler) ServeFailedLogins(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	hours := defaultFailedHours
	if v := query.Get(r, "hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxFailedHours {
			h.ErrLog.LogBadRequest(w, r, "audit: bad hours", errors.New(v), "hours must be between 1 and 168.")
			return
		}
		hours = n
	}
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "audit failed logins")
	defer cancel()

	events, err := h.Store.GetFailedLogins(ctx, since, failedLimit)
	if err != nil {
		h.ErrLog.Respond(w, r, "audit: failed logins", apperr.Persistence("query failed logins", err))
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, failedVM{Since: since, Events: rows(events)})
}
