// Package config loads the client configuration from
// ~/.config/trello/config.json with environment-variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// SyncConfig holds sync-related settings.
type SyncConfig struct {
	URL        string `json:"url"`
	APIKey     string `json:"api_key,omitempty"`
	Enabled    bool   `json:"enabled"`
	Interval   string `json:"interval,omitempty"`    // duration string, default "5m"
	RetryDelay string `json:"retry_delay,omitempty"` // duration string, default "2s"
	MaxRetries *int   `json:"max_retries,omitempty"` // nil = default 3
	AutoMerge  *bool  `json:"auto_merge,omitempty"`  // nil = default true
}

// Config is the global client config.
type Config struct {
	DataDir string     `json:"data_dir,omitempty"`
	Sync    SyncConfig `json:"sync"`
}

const defaultServerURL = "http://localhost:8484"

// Dir returns ~/.config/trello, creating it if necessary.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "trello")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Load reads the global config, returning defaults when the file is absent.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the global config.
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// DataDir returns the directory for local durable state.
// Priority: TRELLO_DATA_DIR env > config.json > ~/.local/share/trello.
func DataDir() (string, error) {
	if v := os.Getenv("TRELLO_DATA_DIR"); v != "" {
		return v, nil
	}
	cfg, err := Load()
	if err == nil && cfg.DataDir != "" {
		return cfg.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "trello"), nil
}

// ServerURL returns the sync server URL.
// Priority: TRELLO_SYNC_URL env > config.json > default.
func ServerURL() string {
	if v := os.Getenv("TRELLO_SYNC_URL"); v != "" {
		return v
	}
	cfg, err := Load()
	if err == nil && cfg.Sync.URL != "" {
		return cfg.Sync.URL
	}
	return defaultServerURL
}

// APIKey returns the sync API key, if any.
// Priority: TRELLO_API_KEY env > config.json.
func APIKey() string {
	if v := os.Getenv("TRELLO_API_KEY"); v != "" {
		return v
	}
	cfg, err := Load()
	if err == nil {
		return cfg.Sync.APIKey
	}
	return ""
}

// SyncInterval returns the periodic sync interval.
// Priority: TRELLO_SYNC_INTERVAL env > config.json > 5m.
func SyncInterval() time.Duration {
	if v := os.Getenv("TRELLO_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	cfg, err := Load()
	if err == nil && cfg.Sync.Interval != "" {
		if d, err := time.ParseDuration(cfg.Sync.Interval); err == nil {
			return d
		}
	}
	return 5 * time.Minute
}

// RetryDelay returns the initial sync retry backoff.
// Priority: TRELLO_SYNC_RETRY_DELAY env > config.json > 2s.
func RetryDelay() time.Duration {
	if v := os.Getenv("TRELLO_SYNC_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	cfg, err := Load()
	if err == nil && cfg.Sync.RetryDelay != "" {
		if d, err := time.ParseDuration(cfg.Sync.RetryDelay); err == nil {
			return d
		}
	}
	return 2 * time.Second
}

// MaxRetries returns the bounded per-trigger retry count.
// Priority: TRELLO_SYNC_MAX_RETRIES env > config.json > 3.
func MaxRetries() int {
	if v := os.Getenv("TRELLO_SYNC_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	cfg, err := Load()
	if err == nil && cfg.Sync.MaxRetries != nil && *cfg.Sync.MaxRetries >= 0 {
		return *cfg.Sync.MaxRetries
	}
	return 3
}

// AutoMerge returns whether three-way auto-merge is attempted before raising
// a conflict. Priority: TRELLO_SYNC_AUTO_MERGE env > config.json > true.
func AutoMerge() bool {
	if v := os.Getenv("TRELLO_SYNC_AUTO_MERGE"); v != "" {
		return v == "1" || v == "true"
	}
	cfg, err := Load()
	if err == nil && cfg.Sync.AutoMerge != nil {
		return *cfg.Sync.AutoMerge
	}
	return true
}
