package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_URL", "")
	t.Setenv("BACKEND_URL", "")
	t.Setenv("CHEMOVENTRY_ENV", "")
	t.Setenv("HTTP_TIMEOUT", "")

	cfg := Load()
	if cfg.APIURL != "http://localhost:8000" {
		t.Fatalf("expected default api url, got %q", cfg.APIURL)
	}
	if cfg.Environment != EnvDevelopment {
		t.Fatalf("expected development, got %q", cfg.Environment)
	}
	if cfg.IsProduction() {
		t.Fatalf("expected non-production default")
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", cfg.HTTPTimeout)
	}
	if cfg.LabelStoreName != "qrcode-storage" {
		t.Fatalf("unexpected label store name %q", cfg.LabelStoreName)
	}
}

func TestLoadTrimsTrailingSlash(t *testing.T) {
	t.Setenv("API_URL", "https://backend.example.com///")
	cfg := Load()
	if cfg.APIURL != "https://backend.example.com" {
		t.Fatalf("unexpected api url %q", cfg.APIURL)
	}
}

func TestLoadBackendURLFallback(t *testing.T) {
	t.Setenv("API_URL", "")
	t.Setenv("BACKEND_URL", "http://django:8000/")
	cfg := Load()
	if cfg.APIURL != "http://django:8000" {
		t.Fatalf("unexpected api url %q", cfg.APIURL)
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")
	t.Setenv("HTTP_TIMEOUT", "soon")
	cfg := Load()
	if cfg.RateLimitPerMinute != 120 {
		t.Fatalf("expected fallback 120, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.HTTPTimeout)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	t.Setenv("CHEMOVENTRY_ENV", "")
	path := filepath.Join(t.TempDir(), "chemoventry.yaml")
	body := "environment: production\napi_url: https://api.lab.test/\nallowed_origins:\n  - https://lab.test\nhttp_timeout: 5s\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production, got %q", cfg.Environment)
	}
	if cfg.APIURL != "https://api.lab.test" {
		t.Fatalf("unexpected api url %q", cfg.APIURL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://lab.test" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.HTTPTimeout)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
