// Package logging provides structured, context-aware logging built on zap.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level  zapcore.Level
	Format string // json or console
}

// NewDefaultConfig returns the production defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "json",
	}
}

// ConfigFromEnv reads LOG_LEVEL and LOG_FORMAT, falling back to defaults.
func ConfigFromEnv() (*Config, error) {
	cfg := NewDefaultConfig()

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		level, err := zapcore.ParseLevel(strings.ToLower(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Level = level
	}
	if raw := os.Getenv("LOG_FORMAT"); raw != "" {
		cfg.Format = strings.ToLower(raw)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", c.Format)
	}
	return nil
}
