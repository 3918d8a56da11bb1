package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "ADMIN_BASE_PATH", "CREDENTIALS_FILE", "USAGE_ENDPOINT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.BasePath != "" {
		t.Fatalf("expected empty base path, got %q", cfg.BasePath)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if !cfg.EnableRequestLogging {
		t.Fatalf("expected request logging enabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ADMIN_BASE_PATH", "console/")
	t.Setenv("RATE_LIMIT_RPS", "5")
	t.Setenv("RATE_LIMIT_BURST", "10")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.BasePath != "/console" {
		t.Fatalf("expected normalized base path /console, got %q", cfg.BasePath)
	}
	if cfg.RateLimitRPS != 5 || cfg.RateLimitBurst != 10 {
		t.Fatalf("unexpected rate limit settings: %v/%v", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
port: "8443"
base_path: /app
credentials_file: /etc/console/credentials.yaml
usage_endpoint: https://usage.example.com/v1/limits
shutdown_grace_period: 5s
enable_request_logging: true
rate_limit:
  rps: 50
  burst: 100
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "8443" {
		t.Fatalf("expected port 8443, got %s", cfg.Port)
	}
	if cfg.BasePath != "/app" {
		t.Fatalf("expected base path /app, got %q", cfg.BasePath)
	}
	if cfg.CredentialsFile != "/etc/console/credentials.yaml" {
		t.Fatalf("unexpected credentials file: %q", cfg.CredentialsFile)
	}
	if cfg.UsageEndpoint != "https://usage.example.com/v1/limits" {
		t.Fatalf("unexpected usage endpoint: %q", cfg.UsageEndpoint)
	}
	if cfg.ShutdownGracePeriod != 5*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.RateLimitRPS != 50 || cfg.RateLimitBurst != 100 {
		t.Fatalf("unexpected rate limit settings: %v/%v", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadYAMLRequestLoggingKey(t *testing.T) {
	clearConfigEnv(t)

	t.Run("absent key keeps default", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("port: \"8443\"\n"), 0o600); err != nil {
			t.Fatalf("write config file: %v", err)
		}

		cfg, err := Load(&CLIOverrides{ConfigFile: path})
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if !cfg.EnableRequestLogging {
			t.Fatalf("expected request logging to stay enabled when key is absent")
		}
	})

	t.Run("explicit false wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("enable_request_logging: false\n"), 0o600); err != nil {
			t.Fatalf("write config file: %v", err)
		}

		cfg, err := Load(&CLIOverrides{ConfigFile: path})
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.EnableRequestLogging {
			t.Fatalf("expected request logging disabled by explicit false")
		}
	})
}

func TestLoadCLIOverridesWinOverEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ADMIN_BASE_PATH", "/env-path")

	port := "7777"
	basePath := "/cli-path/"
	cfg, err := Load(&CLIOverrides{Port: &port, BasePath: &basePath})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7777" {
		t.Fatalf("expected CLI port to win, got %s", cfg.Port)
	}
	if cfg.BasePath != "/cli-path" {
		t.Fatalf("expected CLI base path to win, got %q", cfg.BasePath)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearConfigEnv(t)

	if _, err := Load(&CLIOverrides{ConfigFile: "does-not-exist.yaml"}); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"  /  ", ""},
		{"app", "/app"},
		{"/app", "/app"},
		{"/app/", "/app"},
		{"  /app/console/  ", "/app/console"},
	}

	for _, tc := range cases {
		if got := NormalizeBasePath(tc.raw); got != tc.want {
			t.Fatalf("NormalizeBasePath(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
