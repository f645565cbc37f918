package config

import (
	"path/filepath"
	"testing"
	"time"
)

// isolate points all config and data lookups at a temp home.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TRELLO_DATA_DIR", "")
	t.Setenv("TRELLO_SYNC_URL", "")
	t.Setenv("TRELLO_API_KEY", "")
	t.Setenv("TRELLO_SYNC_INTERVAL", "")
	t.Setenv("TRELLO_SYNC_RETRY_DELAY", "")
	t.Setenv("TRELLO_SYNC_MAX_RETRIES", "")
	t.Setenv("TRELLO_SYNC_AUTO_MERGE", "")
	return home
}

func TestDefaults(t *testing.T) {
	home := isolate(t)

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("data dir: %v", err)
	}
	want := filepath.Join(home, ".local", "share", "trello")
	if dir != want {
		t.Errorf("data dir: got %q, want %q", dir, want)
	}
	if got := ServerURL(); got != "http://localhost:8484" {
		t.Errorf("server url: got %q", got)
	}
	if got := SyncInterval(); got != 5*time.Minute {
		t.Errorf("interval: got %v, want 5m", got)
	}
	if got := RetryDelay(); got != 2*time.Second {
		t.Errorf("retry delay: got %v, want 2s", got)
	}
	if got := MaxRetries(); got != 3 {
		t.Errorf("max retries: got %d, want 3", got)
	}
	if !AutoMerge() {
		t.Error("auto-merge should default on")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	isolate(t)

	retries := 7
	merge := false
	cfg := &Config{
		DataDir: "/custom/data",
		Sync: SyncConfig{
			URL:        "https://board.example.com",
			APIKey:     "k-123",
			Enabled:    true,
			Interval:   "30s",
			RetryDelay: "500ms",
			MaxRetries: &retries,
			AutoMerge:  &merge,
		},
	}
	if err := Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Sync.URL != cfg.Sync.URL || loaded.Sync.APIKey != cfg.Sync.APIKey {
		t.Errorf("loaded: got %+v", loaded.Sync)
	}

	if got := ServerURL(); got != "https://board.example.com" {
		t.Errorf("server url from file: got %q", got)
	}
	if got := SyncInterval(); got != 30*time.Second {
		t.Errorf("interval from file: got %v", got)
	}
	if got := RetryDelay(); got != 500*time.Millisecond {
		t.Errorf("retry delay from file: got %v", got)
	}
	if got := MaxRetries(); got != 7 {
		t.Errorf("max retries from file: got %d", got)
	}
	if AutoMerge() {
		t.Error("auto-merge should honor the file value")
	}
	dir, err := DataDir()
	if err != nil {
		t.Fatalf("data dir: %v", err)
	}
	if dir != "/custom/data" {
		t.Errorf("data dir from file: got %q", dir)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)

	if err := Save(&Config{Sync: SyncConfig{URL: "https://from-file", APIKey: "file-key"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	t.Setenv("TRELLO_SYNC_URL", "https://from-env")
	t.Setenv("TRELLO_API_KEY", "env-key")
	t.Setenv("TRELLO_SYNC_INTERVAL", "90s")
	t.Setenv("TRELLO_SYNC_MAX_RETRIES", "1")
	t.Setenv("TRELLO_SYNC_AUTO_MERGE", "false")
	t.Setenv("TRELLO_DATA_DIR", "/env/data")

	if got := ServerURL(); got != "https://from-env" {
		t.Errorf("server url: got %q", got)
	}
	if got := APIKey(); got != "env-key" {
		t.Errorf("api key: got %q", got)
	}
	if got := SyncInterval(); got != 90*time.Second {
		t.Errorf("interval: got %v", got)
	}
	if got := MaxRetries(); got != 1 {
		t.Errorf("max retries: got %d", got)
	}
	if AutoMerge() {
		t.Error("auto-merge env override to false ignored")
	}
	dir, _ := DataDir()
	if dir != "/env/data" {
		t.Errorf("data dir: got %q", dir)
	}
}

func TestInvalidEnvValuesFallBack(t *testing.T) {
	isolate(t)

	t.Setenv("TRELLO_SYNC_INTERVAL", "soon")
	t.Setenv("TRELLO_SYNC_MAX_RETRIES", "-4")

	if got := SyncInterval(); got != 5*time.Minute {
		t.Errorf("interval: got %v, want default", got)
	}
	if got := MaxRetries(); got != 3 {
		t.Errorf("max retries: got %d, want default", got)
	}
}
