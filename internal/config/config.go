package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andthens/BluePrint/internal/render"
	"github.com/andthens/BluePrint/internal/schema"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Storage
	UploadDir   string
	OutputDir   string
	KeepUploads bool

	// Worker pool (watch command)
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Report defaults
	DefaultFormat string
	DefaultLayout string

	// Report registry
	ReportTTL       time.Duration
	CleanupInterval time.Duration

	// PurgeOutputs removes a report's file when it leaves the registry.
	PurgeOutputs bool

	LogLevel string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "5000"),

		APIKey: os.Getenv("BLUEPRINT_API_KEY"),

		UploadDir:   envOr("UPLOAD_DIR", "uploads"),
		OutputDir:   envOr("OUTPUT_DIR", "outputs"),
		KeepUploads: envBool("KEEP_UPLOADS", true),

		WorkerCount:  envInt("WATCH_WORKERS", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		DefaultFormat: envOr("DEFAULT_FORMAT", "docx"),
		DefaultLayout: envOr("DEFAULT_LAYOUT", string(schema.LayoutChanges)),

		ReportTTL:       envDuration("REPORT_TTL", 1*time.Hour),
		CleanupInterval: envDuration("CLEANUP_INTERVAL", 5*time.Minute),
		PurgeOutputs:    envBool("PURGE_OUTPUTS", true),

		LogLevel: envOr("LOG_LEVEL", "info"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.ReportTTL <= 0 {
		cfg.ReportTTL = 1 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if _, err := render.ForFormat(c.DefaultFormat); err != nil {
		return fmt.Errorf("DEFAULT_FORMAT: %w", err)
	}
	if _, err := schema.ParseLayout(c.DefaultLayout); err != nil {
		return fmt.Errorf("DEFAULT_LAYOUT: %w", err)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.KeepUploads && c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR is required when KEEP_UPLOADS is set")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps LOG_LEVEL values onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

// NewLogger returns a JSON logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
