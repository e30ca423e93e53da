package bootstrap

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/roomdesk/internal/app/store/backend"
	"github.com/dalemusser/roomdesk/internal/app/system/archive"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func memoryConfig() AppConfig {
	return AppConfig{
		StoreDriver:     backend.DriverMemory,
		SessionKey:      "test-session-key-for-testing-only-0123456789",
		SessionName:     "roomdesk-test",
		SessionMaxAge:   time.Hour,
		AdminPassword:   "hawkeye",
		PollInterval:    20 * time.Millisecond,
		ClosureTimezone: "UTC",
		MaxUploadRows:   100,
		ArchiveType:     archive.DriverNone,
		AuditLogAuth:    "log",
		AuditLogRooms:   "log",
		StreamKeepAlive: time.Second,
	}
}

func TestValidateConfig(t *testing.T) {
	dev := &config.CoreConfig{Env: "dev"}
	prod := &config.CoreConfig{Env: "prod"}

	tests := []struct {
		name    string
		core    *config.CoreConfig
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"memory ok", dev, func(*AppConfig) {}, false},
		{"mongo ok", dev, func(c *AppConfig) {
			c.StoreDriver = backend.DriverMongo
			c.MongoURI = "mongodb://localhost:27017"
			c.MongoDatabase = "roomdesk"
		}, false},
		{"mongo bad uri", dev, func(c *AppConfig) {
			c.StoreDriver = backend.DriverMongo
			c.MongoURI = "localhost"
			c.MongoDatabase = "roomdesk"
		}, true},
		{"sqlite needs path", dev, func(c *AppConfig) { c.StoreDriver = backend.DriverSQLite }, true},
		{"postgres needs dsn", dev, func(c *AppConfig) { c.StoreDriver = backend.DriverPostgres }, true},
		{"unknown driver", dev, func(c *AppConfig) { c.StoreDriver = "cassandra" }, true},
		{"dev key in prod", prod, func(c *AppConfig) { c.SessionKey = devSessionKey }, true},
		{"strong key in prod", prod, func(*AppConfig) {}, false},
		{"no admin password", dev, func(c *AppConfig) { c.AdminPassword = "" }, true},
		{"zero poll interval", dev, func(c *AppConfig) { c.PollInterval = 0 }, true},
		{"bad timezone", dev, func(c *AppConfig) { c.ClosureTimezone = "Mars/Olympus" }, true},
		{"s3 needs bucket", dev, func(c *AppConfig) { c.ArchiveType = archive.DriverS3 }, true},
		{"unknown archive", dev, func(c *AppConfig) { c.ArchiveType = "ftp" }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := memoryConfig()
			tc.mutate(&cfg)
			err := ValidateConfig(tc.core, cfg, testLogger())
			if tc.wantErr && err == nil {
				t.Error("expected an error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (c *client) do(method, path, contentType, body string) (int, string) {
	c.t.Helper()
	req, err := http.NewRequest(method, c.base+path, strings.NewReader(body))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestLifecycle_MemoryStore(t *testing.T) {
	ctx := context.Background()
	core := &config.CoreConfig{Env: "dev"}
	cfg := memoryConfig()
	logger := testLogger()

	if err := ValidateConfig(core, cfg, logger); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	deps, err := ConnectDB(ctx, core, cfg, logger)
	if err != nil {
		t.Fatalf("ConnectDB: %v", err)
	}
	if err := EnsureSchema(ctx, core, cfg, deps, logger); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := Startup(ctx, core, cfg, deps, logger); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	h, err := BuildHandler(core, cfg, deps, logger)
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	srv := httptest.NewServer(h)
	jar, _ := cookiejar.New(nil)
	c := &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
	defer func() {
		srv.Close()
		c.http.CloseIdleConnections()
		if err := Shutdown(ctx, core, cfg, deps, logger); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	}()

	if code, _ := c.do(http.MethodGet, "/health", "", ""); code != http.StatusOK {
		t.Fatalf("health = %d", code)
	}
	if code, _ := c.do(http.MethodGet, "/admin/rooms", "", ""); code != http.StatusUnauthorized {
		t.Errorf("signed-out admin rooms = %d, want 401", code)
	}
	if code, _ := c.do(http.MethodPost, "/login", "application/json", `{"role":"admin","password":"nope"}`); code != http.StatusUnauthorized {
		t.Errorf("wrong password = %d, want 401", code)
	}
	if code, body := c.do(http.MethodPost, "/login", "application/json", `{"role":"admin","password":"hawkeye"}`); code != http.StatusOK {
		t.Fatalf("admin login = %d %s", code, body)
	}

	code, body := c.do(http.MethodPost, "/admin/rooms/upload", "text/csv", "room_number,room_type,grade\n101,KXTY,A\n102,KXTY,B\n201,SXQL,A\n")
	if code != http.StatusOK {
		t.Fatalf("upload = %d %s", code, body)
	}

	code, body = c.do(http.MethodPost, "/agent/rooms/101/assign", "", "")
	if code != http.StatusOK {
		t.Fatalf("assign = %d %s", code, body)
	}

	code, body = c.do(http.MethodGet, "/agent/categories", "", "")
	if code != http.StatusOK {
		t.Fatalf("categories = %d", code)
	}
	var cats []struct {
		Category  string `json:"category"`
		Available int    `json:"available"`
	}
	if err := json.Unmarshal([]byte(body), &cats); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(cats) != 2 || cats[0].Available != 1 || cats[1].Available != 1 {
		t.Errorf("categories = %+v", cats)
	}

	if code, body = c.do(http.MethodPost, "/closure", "", ""); code != http.StatusOK {
		t.Fatalf("close = %d %s", code, body)
	}
	if code, body = c.do(http.MethodGet, "/closure/history", "", ""); code != http.StatusOK || !strings.Contains(body, `"occupied":1`) {
		t.Errorf("history = %d %s", code, body)
	}

	if code, _ := c.do(http.MethodGet, "/admin/audit", "", ""); code != http.StatusNotFound {
		t.Errorf("audit on memory store = %d, want 404", code)
	}

	_, metricsBody := c.do(http.MethodGet, "/metrics", "", "")
	if !strings.Contains(metricsBody, "roomdesk_assignments_total 1") {
		t.Errorf("metrics missing assignment count:\n%s", metricsBody)
	}

	if code, _ := c.do(http.MethodPost, "/logout", "", ""); code != http.StatusOK {
		t.Errorf("logout = %d", code)
	}
	if code, _ := c.do(http.MethodGet, "/closure/status", "", ""); code != http.StatusUnauthorized {
		t.Errorf("status after logout = %d, want 401", code)
	}
}

func TestShutdown_EndsRoomStreams(t *testing.T) {
	ctx := context.Background()
	core := &config.CoreConfig{Env: "dev"}
	cfg := memoryConfig()
	logger := testLogger()

	deps, err := ConnectDB(ctx, core, cfg, logger)
	if err != nil {
		t.Fatalf("ConnectDB: %v", err)
	}
	if err := EnsureSchema(ctx, core, cfg, deps, logger); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := Startup(ctx, core, cfg, deps, logger); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	h, err := BuildHandler(core, cfg, deps, logger)
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	srv := httptest.NewServer(h)
	// Close waits for in-flight requests, so it hangs if a stream survives.
	defer srv.Close()

	jar, _ := cookiejar.New(nil)
	c := &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
	if code, body := c.do(http.MethodPost, "/login", "application/json", `{"role":"agent"}`); code != http.StatusOK {
		t.Fatalf("agent login = %d %s", code, body)
	}

	streamCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(streamCtx, http.MethodGet, srv.URL+"/rooms/stream", nil)
	resp, err := c.http.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream = %d", resp.StatusCode)
	}
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64<<10), 1<<20)
	if !sc.Scan() {
		t.Fatalf("no first event: %v", sc.Err())
	}

	if err := Shutdown(ctx, core, cfg, deps, logger); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	for sc.Scan() {
	}
	if err := sc.Err(); err != nil {
		t.Errorf("stream did not end after Shutdown: %v", err)
	}
}

func TestBuildHandler_TrustProxyHeaders(t *testing.T) {
	// Eleven wrong admin passwords, each claiming a new forwarded address.
	// The default per-IP login window allows ten.
	lastStatus := func(t *testing.T, trust bool) int {
		ctx := context.Background()
		core := &config.CoreConfig{Env: "dev"}
		cfg := memoryConfig()
		cfg.TrustProxyHeaders = trust
		logger := testLogger()

		deps, err := ConnectDB(ctx, core, cfg, logger)
		if err != nil {
			t.Fatalf("ConnectDB: %v", err)
		}
		defer func() { _ = Shutdown(ctx, core, cfg, deps, logger) }()
		h, err := BuildHandler(core, cfg, deps, logger)
		if err != nil {
			t.Fatalf("BuildHandler: %v", err)
		}

		var code int
		for i := 0; i < 11; i++ {
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"role":"admin","password":"nope"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			code = rec.Code
		}
		return code
	}

	if code := lastStatus(t, false); code != http.StatusTooManyRequests {
		t.Errorf("untrusted headers: last attempt = %d, want 429", code)
	}
	if code := lastStatus(t, true); code != http.StatusUnauthorized {
		t.Errorf("trusted proxy: last attempt = %d, want 401", code)
	}
}
