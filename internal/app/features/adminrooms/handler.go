// internal/app/features/adminrooms/handler.go
package adminrooms

import (
	"time"

	"github.com/dalemusser/roomdesk/internal/app/desk"
	uierrors "github.com/dalemusser/roomdesk/internal/app/features/errors"
	"github.com/dalemusser/roomdesk/internal/app/system/auditlog"
	"github.com/dalemusser/roomdesk/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the admin room table and its mutations.
type Handler struct {
	Desk     *desk.Controller
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(d *desk.Controller, auditLog *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Desk:     d,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: auditLog,
	}
}

type roomsVM struct {
	Rooms      []models.Room `json:"rooms"`
	Total      int           `json:"total"`
	Shown      int           `json:"shown"`
	TypeFilter string        `json:"typeFilter"`
	Query      string        `json:"query"`
	Types      []string      `json:"types"`
	UpdatedAt  time.Time     `json:"updatedAt"`
	Version    string        `json:"version"`
}
