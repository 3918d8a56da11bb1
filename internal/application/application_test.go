package application

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/kirotools/admin-console/internal/config"
	"github.com/kirotools/admin-console/internal/runtimeconfig"
)

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		ShutdownGracePeriod:  time.Second,
		ReadHeaderTimeout:    time.Second,
		WriteTimeout:         time.Second,
		IdleTimeout:          time.Second,
		EnableRequestLogging: false,
		RateLimitRPS:         100,
		RateLimitBurst:       100,
	}
}

func TestNewInitializesDependencies(t *testing.T) {
	t.Cleanup(runtimeconfig.Clear)

	cfg := baseTestConfig(":8085")
	cfg.BasePath = "/console"
	logger := zaptest.NewLogger(t)

	app, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if app.server == nil || app.router == nil || app.handler == nil || app.pool == nil {
		t.Fatalf("expected server, router, handler, and pool to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
	if got := runtimeconfig.Get().BasePath; got != "/console" {
		t.Fatalf("expected runtime slot populated with /console, got %q", got)
	}
}

func TestNewLoadsCredentialsFile(t *testing.T) {
	t.Cleanup(runtimeconfig.Clear)

	path := filepath.Join(t.TempDir(), "credentials.yaml")
	content := []byte(`
credentials:
  - priority: 0
    auth_method: social
  - priority: 1
    auth_method: idc
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write credentials file: %v", err)
	}

	cfg := baseTestConfig(":0")
	cfg.CredentialsFile = path

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if snap := app.pool.Snapshot(); snap.Total != 2 {
		t.Fatalf("expected 2 credentials from file, got %d", snap.Total)
	}
}

func TestNewRejectsInvalidCredentialsFile(t *testing.T) {
	t.Cleanup(runtimeconfig.Clear)

	cfg := baseTestConfig(":0")
	cfg.CredentialsFile = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for missing credentials file")
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestBuildRootHandlerRootMount(t *testing.T) {
	apiInvoked := false
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/health" {
			t.Fatalf("unexpected path passed to API handler: %s", r.URL.Path)
		}
		apiInvoked = true
		w.WriteHeader(http.StatusNoContent)
	})
	uiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ui"))
	})
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})

	handler := BuildRootHandler(apiHandler, uiHandler, metricsHandler, "")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/health", nil))
	if rec.Code != http.StatusNoContent || !apiInvoked {
		t.Fatalf("expected API handler invocation, got status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Body.String() != "ui" {
		t.Fatalf("expected UI handler at root, got %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Body.String() != "metrics" {
		t.Fatalf("expected metrics handler, got %q", rec.Body.String())
	}
}

func TestBuildRootHandlerBasePathMount(t *testing.T) {
	var apiPath string
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})
	uiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ui"))
	})
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	handler := BuildRootHandler(apiHandler, uiHandler, metricsHandler, "/console")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/console/api/admin/health", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if apiPath != "/api/admin/health" {
		t.Fatalf("expected base path stripped before API handler, got %q", apiPath)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/console/", nil))
	if rec.Body.String() != "ui" {
		t.Fatalf("expected UI under base path, got %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/console", nil))
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("expected redirect for bare base path, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/console/" {
		t.Fatalf("expected redirect to /console/, got %q", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/elsewhere", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 outside base path, got %d", rec.Code)
	}
}

func TestUIServedWithInjectedConfig(t *testing.T) {
	t.Cleanup(runtimeconfig.Clear)

	cfg := baseTestConfig(":0")
	cfg.BasePath = "/console"

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/console/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `window.__KIRO_CONFIG__={"basePath":"/console"}`) {
		t.Fatalf("expected injected runtime config in UI response:\n%s", rec.Body.String())
	}
}
