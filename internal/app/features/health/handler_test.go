package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/roomdesk/internal/app/desk"
	"github.com/dalemusser/roomdesk/internal/app/features/health"
	"github.com/dalemusser/roomdesk/internal/app/store/backend"
	"github.com/dalemusser/roomdesk/internal/app/store/memstore"
	"github.com/dalemusser/roomdesk/internal/testutil"
	"go.uber.org/zap"
)

type response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Driver   string `json:"driver"`
	Rooms    int    `json:"rooms"`
	Source   string `json:"source"`
	Error    string `json:"error"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, resp
}

func TestServe_StoreConnected(t *testing.T) {
	d, store := testutil.NewDesk(t, testutil.SampleRooms())
	b := backend.Memory(store)
	h := health.NewHandler(b, d, b.Driver, zap.NewNop())

	rec, resp := serve(t, h)
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if resp.Status != "ok" || resp.Database != "connected" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Rooms != 6 || resp.Source != desk.SourceLive || resp.Driver != backend.DriverMemory {
		t.Errorf("unexpected desk fields: %+v", resp)
	}
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestServe_StoreDown(t *testing.T) {
	h := health.NewHandler(downStore{}, nil, "mongo", zap.NewNop())

	rec, resp := serve(t, h)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if resp.Status != "error" || resp.Database != "disconnected" || resp.Error != "connection refused" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestServe_NotStarted(t *testing.T) {
	store := memstore.New()
	d := desk.New(store, store, desk.Options{})
	h := health.NewHandler(backend.Memory(store), d, "memory", zap.NewNop())

	rec, resp := serve(t, h)
	if rec.Code != http.StatusServiceUnavailable || resp.Status != "starting" {
		t.Errorf("got %d %+v", rec.Code, resp)
	}
}
