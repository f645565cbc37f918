package server

import (
	"os"
	"strings"
	"time"
)

// Config holds the server configuration, loaded from environment variables.
type Config struct {
	ListenAddr      string
	BoardDBPath     string
	ShutdownTimeout time.Duration
	LogFormat       string // "json" (default) or "text"
	LogLevel        string // "debug", "info" (default), "warn", "error"

	AllowedOrigins []string // CORS; "*" by default
}

// LoadConfig reads configuration from environment variables with sensible
// defaults. A .env file, if present, is expected to have been loaded by the
// caller before this runs.
func LoadConfig() Config {
	cfg := Config{
		ListenAddr:      ":8484",
		BoardDBPath:     "./data/board.db",
		ShutdownTimeout: 30 * time.Second,
		LogFormat:       "json",
		LogLevel:        "info",
		AllowedOrigins:  []string{"*"},
	}

	if v := os.Getenv("BOARD_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("BOARD_DB_PATH"); v != "" {
		cfg.BoardDBPath = v
	}
	if v := os.Getenv("BOARD_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	if v := os.Getenv("BOARD_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("BOARD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("BOARD_CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}
	return cfg
}
