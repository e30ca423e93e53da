// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	uierrors "github.com/dalemusser/roomdesk/internal/app/features/errors"
	"github.com/dalemusser/roomdesk/internal/app/system/auditlog"
	"github.com/dalemusser/roomdesk/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   auditLog,
	}
}

// ServeLogout handles GET and POST /logout. It always clears the cookie,
// even when the old one could not be decoded.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	sess := h.SessionMgr.Session(w, r)
	wasSignedIn := sess.CurrentRole() != ""

	if err := sess.Logout(); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	if wasSignedIn {
		h.AuditLog.Logout(r.Context(), r)
	}

	// HTMX handling: use HX-Redirect to force a client-side navigation to "/".
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]bool{"signedIn": false})
}
