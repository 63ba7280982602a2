package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.DataDir != dir {
		t.Errorf("data dir = %q, want %q", cfg.DataDir, dir)
	}
	if cfg.Sync.Debounce != 2*time.Second {
		t.Errorf("debounce = %v, want 2s", cfg.Sync.Debounce)
	}
	if cfg.Dashboard.Port != 8719 {
		t.Errorf("dashboard port = %d, want 8719", cfg.Dashboard.Port)
	}
	if cfg.Dashboard.Enabled {
		t.Error("dashboard should default to disabled")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
remote:
  url: libsql://prod.example.turso.io
  auth_token: tok-123
storage:
  bucket: hmp-assets
sync:
  debounce: 500ms
dashboard:
  enabled: true
  port: 9000
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Remote.URL != "libsql://prod.example.turso.io" {
		t.Errorf("remote url = %q", cfg.Remote.URL)
	}
	if cfg.Remote.AuthToken != "tok-123" {
		t.Errorf("auth token = %q", cfg.Remote.AuthToken)
	}
	if cfg.Storage.Bucket != "hmp-assets" {
		t.Errorf("bucket = %q", cfg.Storage.Bucket)
	}
	if cfg.Sync.Debounce != 500*time.Millisecond {
		t.Errorf("debounce = %v, want 500ms", cfg.Sync.Debounce)
	}
	if !cfg.Dashboard.Enabled || cfg.Dashboard.Port != 9000 {
		t.Errorf("dashboard = %+v", cfg.Dashboard)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "/data/.hmp"}

	if got := cfg.DatabasePath(); got != filepath.Join("/data/.hmp", "local.db") {
		t.Errorf("database path = %q", got)
	}
	if got := cfg.PhotoCacheDir(); got != filepath.Join("/data/.hmp", "photos") {
		t.Errorf("photo cache dir = %q", got)
	}
	if got := cfg.SessionPath(); got != filepath.Join("/data/.hmp", "session.json") {
		t.Errorf("session path = %q", got)
	}
}

func TestEnsureDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".hmp")
	cfg := &Config{DataDir: dir}

	if err := cfg.EnsureDataDir(); err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if _, err := os.Stat(cfg.PhotoCacheDir()); err != nil {
		t.Errorf("photo cache dir missing: %v", err)
	}
}
