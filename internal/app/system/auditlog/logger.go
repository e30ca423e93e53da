// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/roomdesk/internal/app/store/audit"
	"github.com/dalemusser/roomdesk/internal/app/system/auth"
	"github.com/dalemusser/roomdesk/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destination settings.
const (
	ModeAll = "all" // store + zap
	ModeDB  = "db"  // store only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls login/logout events.
	Auth string
	// Rooms controls room and closure events.
	Rooms string
}

// DefaultConfig logs everything everywhere.
func DefaultConfig() Config {
	return Config{Auth: ModeAll, Rooms: ModeAll}
}

// ParseMode normalizes a configured mode, falling back to "all".
func ParseMode(s string) string {
	switch m := strings.ToLower(strings.TrimSpace(s)); m {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return m
	}
	return ModeAll
}

// Sink persists audit events. *audit.Store satisfies it.
type Sink interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger provides convenience methods for logging audit events.
// It writes to a Sink (when one is configured) and to zap.
type Logger struct {
	store  Sink
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil, in which case "db"
// destinations are skipped.
func New(store Sink, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.Role != "" {
		fields = append(fields, zap.String("role", event.Role))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = ParseMode(l.config.Auth)
	case audit.CategoryRooms, audit.CategoryClosure:
		setting = ParseMode(l.config.Rooms)
	default:
		setting = ModeAll
	}

	if setting == ModeOff {
		return
	}
	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// event fills the request-derived fields.
func event(r *http.Request, category, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		Role:      auth.CurrentRole(r),
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful role selection.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, role string) {
	e := event(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	e.Role = role
	l.Log(ctx, e)
}

// LoginFailedWrongPassword logs a rejected admin password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request) {
	e := event(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword, false)
	e.Role = auth.RoleAdmin
	e.FailureReason = "wrong password"
	l.Log(ctx, e)
}

// LoginFailedInvalidRole logs a login for a role that does not exist.
func (l *Logger) LoginFailedInvalidRole(ctx context.Context, r *http.Request, role string) {
	e := event(r, audit.CategoryAuth, audit.EventLoginFailedInvalidRole, false)
	e.FailureReason = "invalid role"
	e.Details = map[string]string{"requested_role": role}
	l.Log(ctx, e)
}

// Logout logs a logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request) {
	l.Log(ctx, event(r, audit.CategoryAuth, audit.EventLogout, true))
}

// --- Room Events ---

// RoomAssigned logs an agent assignment.
func (l *Logger) RoomAssigned(ctx context.Context, r *http.Request, number int, roomType string) {
	e := event(r, audit.CategoryRooms, audit.EventRoomAssigned, true)
	e.Details = map[string]string{
		"room_number": strconv.Itoa(number),
		"room_type":   roomType,
	}
	l.Log(ctx, e)
}

// RoomStatusToggled logs an admin toggle.
func (l *Logger) RoomStatusToggled(ctx context.Context, r *http.Request, number int, occupied bool) {
	e := event(r, audit.CategoryRooms, audit.EventRoomStatusToggled, true)
	e.Details = map[string]string{
		"room_number": strconv.Itoa(number),
		"occupied":    strconv.FormatBool(occupied),
	}
	l.Log(ctx, e)
}

// RoomsBulkUpdated logs a bulk grade or status change.
func (l *Logger) RoomsBulkUpdated(ctx context.Context, r *http.Request, field, value string, count int) {
	e := event(r, audit.CategoryRooms, audit.EventRoomsBulkUpdated, true)
	e.Details = map[string]string{
		"field": field,
		"value": value,
		"count": strconv.Itoa(count),
	}
	l.Log(ctx, e)
}

// RoomsUploaded logs a wholesale replacement.
func (l *Logger) RoomsUploaded(ctx context.Context, r *http.Request, count int) {
	e := event(r, audit.CategoryRooms, audit.EventRoomsUploaded, true)
	e.Details = map[string]string{"count": strconv.Itoa(count)}
	l.Log(ctx, e)
}

// RoomsUploadRejected logs an upload that failed validation.
func (l *Logger) RoomsUploadRejected(ctx context.Context, r *http.Request, errorCount int) {
	e := event(r, audit.CategoryRooms, audit.EventRoomsUploadRejected, false)
	e.FailureReason = "invalid file"
	e.Details = map[string]string{"errors": strconv.Itoa(errorCount)}
	l.Log(ctx, e)
}

// RoomTypeAdded logs a new catalog entry.
func (l *Logger) RoomTypeAdded(ctx context.Context, r *http.Request, code string) {
	e := event(r, audit.CategoryRooms, audit.EventRoomTypeAdded, true)
	e.Details = map[string]string{"code": code}
	l.Log(ctx, e)
}

// RoomTypesFixed logs a legacy type rewrite. r may be nil for startup runs.
func (l *Logger) RoomTypesFixed(ctx context.Context, r *http.Request, changed int) {
	var e audit.Event
	if r != nil {
		e = event(r, audit.CategoryRooms, audit.EventRoomTypesFixed, true)
	} else {
		e = audit.Event{Category: audit.CategoryRooms, EventType: audit.EventRoomTypesFixed, Success: true, IP: "system"}
	}
	e.Details = map[string]string{"changed": strconv.Itoa(changed)}
	l.Log(ctx, e)
}

// --- Closure Events ---

// DayClosed logs a daily closure.
func (l *Logger) DayClosed(ctx context.Context, r *http.Request, date string, rooms int, archivedAt string) {
	e := event(r, audit.CategoryClosure, audit.EventDayClosed, true)
	e.Details = map[string]string{
		"date":  date,
		"rooms": strconv.Itoa(rooms),
	}
	if archivedAt != "" {
		e.Details["archive"] = archivedAt
	}
	l.Log(ctx, e)
}
