// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings
	Port int    // HTTP port for cmd/api
	Env  string // development, staging, production

	// Lookup history
	DatabasePath string // Path to SQLite file; empty disables console history

	// Authentication
	APIKey string // API key guarding the lookups endpoint

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // auto, json, text

	// Terminal
	Color string // auto, always, never
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// DefaultAPIDatabasePath is used by the HTTP server when DATABASE_PATH is unset.
const DefaultAPIDatabasePath = "./data/textcal.db"

// Load reads configuration from environment variables.
// It first loads from .env file if present.
func Load() (*Config, error) {
	// Missing .env is fine; real env vars win either way
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Port = getEnvInt("PORT", 8080)
	cfg.Env = getEnv("ENV", EnvDevelopment)

	cfg.DatabasePath = getEnv("DATABASE_PATH", "")

	cfg.APIKey = getEnv("API_KEY", "")

	// The console prints calendars on stdout; keep logs quiet by default
	cfg.LogLevel = getEnv("LOG_LEVEL", "warn")
	cfg.LogFormat = getEnv("LOG_FORMAT", "auto")

	cfg.Color = getEnv("COLOR", ColorAuto)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	// API key is required in production
	if c.Env == EnvProduction && c.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required in production"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	switch c.LogFormat {
	case "auto", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: auto, json, text; got %q", c.LogFormat))
	}

	if err := ValidateColor(c.Color); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ValidateColor checks a COLOR value, also used for the --color flag.
func ValidateColor(mode string) error {
	switch mode {
	case ColorAuto, ColorAlways, ColorNever:
		return nil
	default:
		return fmt.Errorf("COLOR must be one of: auto, always, never; got %q", mode)
	}
}

// HistoryEnabled reports whether lookups should be recorded.
func (c *Config) HistoryEnabled() bool {
	return c.DatabasePath != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// getEnv reads an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
