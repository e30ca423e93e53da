package login_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/roomdesk/internal/app/features/errors"
	"github.com/dalemusser/roomdesk/internal/app/features/login"
	"github.com/dalemusser/roomdesk/internal/app/system/auditlog"
	"github.com/dalemusser/roomdesk/internal/app/system/auth"
	"github.com/dalemusser/roomdesk/internal/app/system/ratelimit"
	"github.com/dalemusser/roomdesk/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestHandler(t *testing.T) (*login.Handler, *observer.ObservedLogs) {
	t.Helper()
	logger := zap.NewNop()
	errLog := uierrors.NewErrorLogger(logger)

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	password, err := auth.NewPasswordChecker("hawkeye", "")
	if err != nil {
		t.Fatalf("NewPasswordChecker failed: %v", err)
	}

	core, logs := observer.New(zap.InfoLevel)
	audit := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.ModeLog, Rooms: auditlog.ModeOff})

	limiter := ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 3, time.Minute)
	t.Cleanup(limiter.Stop)

	return login.NewHandler(sessionMgr, password, limiter, audit, errLog, logger), logs
}

func post(h *login.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.HandleLoginPost(rec, testutil.NewJSONRequest(http.MethodPost, "/login", body))
	return rec
}

func TestHandleLoginPost_AgentNeedsNoPassword(t *testing.T) {
	h, logs := newTestHandler(t)

	rec := post(h, `{"role":"agent"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}

	var resp struct {
		SignedIn bool   `json:"signedIn"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.SignedIn || resp.Role != auth.RoleAgent {
		t.Errorf("unexpected response: %+v", resp)
	}
	if logs.FilterMessage("audit event").Len() != 1 {
		t.Errorf("expected one audit entry, got %d", logs.Len())
	}
}

func TestHandleLoginPost_AdminPassword(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"correct password", `{"role":"admin","password":"hawkeye"}`, http.StatusOK},
		{"role is case-insensitive", `{"role":"Admin","password":"hawkeye"}`, http.StatusOK},
		{"wrong password", `{"role":"admin","password":"falcon"}`, http.StatusUnauthorized},
		{"missing password", `{"role":"admin"}`, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(h, tc.body)
			if rec.Code != tc.wantCode {
				t.Errorf("expected status %d, got %d", tc.wantCode, rec.Code)
			}
			if tc.wantCode != http.StatusOK && len(rec.Result().Cookies()) != 0 {
				t.Error("failed login should not set a cookie")
			}
		})
	}
}

func TestHandleLoginPost_AdminRateLimited(t *testing.T) {
	h, _ := newTestHandler(t)

	for i := 0; i < 3; i++ {
		if rec := post(h, `{"role":"admin","password":"guess"}`); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}
	if rec := post(h, `{"role":"admin","password":"hawkeye"}`); rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 once the admin window is spent, got %d", rec.Code)
	}
	if rec := post(h, `{"role":"agent"}`); rec.Code != http.StatusOK {
		t.Errorf("agents are not throttled, got %d", rec.Code)
	}
}

func TestHandleLoginPost_InvalidRole(t *testing.T) {
	h, _ := newTestHandler(t)
	for _, body := range []string{`{"role":"guest"}`, `{"role":""}`} {
		if rec := post(h, body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestHandleLoginPost_MalformedJSON(t *testing.T) {
	h, _ := newTestHandler(t)
	if rec := post(h, `{"role":`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleLoginPost_Form(t *testing.T) {
	h, _ := newTestHandler(t)
	form := url.Values{"role": {"admin"}, "password": {"hawkeye"}}

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.HandleLoginPost(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestServeLogin_ReportsRoleFromCookie(t *testing.T) {
	h, _ := newTestHandler(t)

	signIn := post(h, `{"role":"agent"}`)
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	for _, c := range signIn.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, req)

	if !strings.Contains(rec.Body.String(), `"role":"agent"`) {
		t.Errorf("expected agent role, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	if !strings.Contains(rec.Body.String(), `"signedIn":false`) {
		t.Errorf("expected signed out, got %s", rec.Body.String())
	}
}
