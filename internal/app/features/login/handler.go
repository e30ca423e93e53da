// internal/app/features/login/handler.go
package login

import (
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/roomdesk/internal/app/features/errors"
	"github.com/dalemusser/roomdesk/internal/app/system/apperr"
	"github.com/dalemusser/roomdesk/internal/app/system/auditlog"
	"github.com/dalemusser/roomdesk/internal/app/system/auth"
	"github.com/dalemusser/roomdesk/internal/app/system/limits"
	"github.com/dalemusser/roomdesk/internal/app/system/ratelimit"
	"github.com/dalemusser/roomdesk/internal/app/system/validators"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Password   *auth.PasswordChecker
	Limiter    *ratelimit.LoginLimiter
}

func NewHandler(sessionMgr *auth.SessionManager, password *auth.PasswordChecker, limiter *ratelimit.LoginLimiter, auditLog *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   auditLog,
		Password:   password,
		Limiter:    limiter,
	}
}

type loginRequest struct {
	Role     string `json:"role" validate:"max=32"`
	Password string `json:"password" validate:"max=256"`
}

type loginResponse struct {
	SignedIn bool   `json:"signedIn"`
	Role     string `json:"role,omitempty"`
}

// ServeLogin handles GET /login and reports the current role.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	role := h.SessionMgr.Session(w, r).CurrentRole()
	uierrors.WriteJSON(w, http.StatusOK, loginResponse{SignedIn: role != "", Role: role})
}

// HandleLoginPost handles POST /login.
//
// Agents sign in by choosing the role. Admins must also give the shared
// admin password. Accepts a JSON body or a urlencoded form.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	req, err := h.readRequest(w, r)
	if err != nil {
		h.ErrLog.Respond(w, r, "login: bad request", err)
		return
	}

	role := auth.NormalizeRole(req.Role)
	if !auth.ValidRole(role) {
		h.AuditLog.LoginFailedInvalidRole(r.Context(), r, req.Role)
		uierrors.WriteError(w, http.StatusBadRequest, "Please choose a valid role.")
		return
	}

	if role == auth.RoleAdmin {
		if ok, msg := h.Limiter.Check(r); !ok {
			h.Log.Warn("admin sign-in rate limited", zap.String("ip", ratelimit.ClientIP(r)))
			uierrors.WriteError(w, http.StatusTooManyRequests, msg)
			return
		}
		if !h.Password.Check(req.Password) {
			h.AuditLog.LoginFailedWrongPassword(r.Context(), r)
			uierrors.WriteError(w, http.StatusUnauthorized, "Incorrect password.")
			return
		}
		h.Limiter.Reset(r)
	}

	if err := h.SessionMgr.Session(w, r).Login(role); err != nil {
		h.ErrLog.LogServerError(w, r, "login: save session", err, "Could not sign you in. Please retry.")
		return
	}

	h.AuditLog.LoginSuccess(r.Context(), r, role)
	h.Log.Info("signed in", zap.String("role", role))
	uierrors.WriteJSON(w, http.StatusOK, loginResponse{SignedIn: true, Role: role})
}

func (h *Handler) readRequest(w http.ResponseWriter, r *http.Request) (loginRequest, error) {
	var req loginRequest
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
		if err := r.ParseForm(); err != nil {
			return req, apperr.Validation("invalid form data")
		}
		req.Role = r.PostFormValue("role")
		req.Password = r.PostFormValue("password")
		return req, validators.Struct(req)
	}
	err := validators.DecodeJSON(w, r, limits.MaxJSONBodySize, &req)
	return req, err
}
