package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds settings shared by every command. Values come from the
// environment (optionally via a .env file) and are overridden by flags.
type Config struct {
	APIBaseURL  string        `validate:"required,url"`
	UserAgent   string        `validate:"max=200"`
	StateFile   string        `validate:"required"`
	LogLevel    string        `validate:"oneof=debug info warn error"`
	HTTPTimeout time.Duration `validate:"gte=0"`
	RateLimit   float64       `validate:"gte=0"` // requests per second, 0 disables pacing
}

const (
	EnvAPIBaseURL  = "GALLERY_API_URL"
	EnvUserAgent   = "GALLERY_USER_AGENT"
	EnvStateFile   = "GALLERY_STATE_FILE"
	EnvLogLevel    = "GALLERY_LOG_LEVEL"
	EnvHTTPTimeout = "GALLERY_HTTP_TIMEOUT"
	EnvRateLimit   = "GALLERY_RATE_LIMIT"
)

// FromEnv builds a config from environment variables with defaults
func FromEnv() (*Config, error) {
	cfg := &Config{
		APIBaseURL:  getEnv(EnvAPIBaseURL, "https://api.artic.edu"),
		UserAgent:   getEnv(EnvUserAgent, "gallery (https://github.com/lehigh-university-libraries/gallery)"),
		StateFile:   getEnv(EnvStateFile, defaultStateFile()),
		LogLevel:    strings.ToLower(getEnv(EnvLogLevel, "info")),
		HTTPTimeout: 30 * time.Second,
		RateLimit:   1,
	}

	if raw := os.Getenv(EnvHTTPTimeout); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHTTPTimeout, err)
		}
		cfg.HTTPTimeout = timeout
	}

	if raw := os.Getenv(EnvRateLimit); raw != "" {
		perSecond, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvRateLimit, err)
		}
		cfg.RateLimit = perSecond
	}
	return cfg, nil
}

// Validate checks every field
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SlogLevel maps LogLevel onto slog
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".gallery-state.yaml"
	}
	return filepath.Join(dir, "gallery", "state.yaml")
}
