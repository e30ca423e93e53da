package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/roomdesk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that read chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// WithRole injects a signed-in user with role, bypassing the session cookie.
func WithRole(r *http.Request, role string) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{Role: role})
}

// NewRequest creates a request with an optional body.
func NewRequest(method, target, body string) *http.Request {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	return httptest.NewRequest(method, target, rdr)
}

// NewJSONRequest creates a request with a JSON body and content type.
func NewJSONRequest(method, target, body string) *http.Request {
	req := NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AdminRequest creates a JSON request signed in as admin.
func AdminRequest(method, target, body string) *http.Request {
	return WithRole(NewJSONRequest(method, target, body), auth.RoleAdmin)
}

// AgentRequest creates a JSON request signed in as agent.
func AgentRequest(method, target, body string) *http.Request {
	return WithRole(NewJSONRequest(method, target, body), auth.RoleAgent)
}

// SessionManager returns a session manager with a fixed test key, for
// exercising feature routes behind the auth middleware.
func SessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}
