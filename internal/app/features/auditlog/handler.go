// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"
	"time"

	uierrors "github.com/dalemusser/roomdesk/internal/app/features/errors"
	"github.com/dalemusser/roomdesk/internal/app/store/audit"
	"go.uber.org/zap"
)

// Reader is the read side of the audit store.
type Reader interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, filter audit.QueryFilter) (int64, error)
	GetFailedLogins(ctx context.Context, since time.Time, limit int64) ([]audit.Event, error)
}

type Handler struct {
	Store  Reader // nil when the backend keeps no audit trail
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs the audit log handler. A nil store makes every
// route answer 404.
func NewHandler(store Reader, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:  store,
		Log:    logger,
		ErrLog: errLog,
	}
}
