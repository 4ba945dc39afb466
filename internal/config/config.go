// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Storage
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// Interview defaults for `start`
	JobRole         string `json:"job_role,omitempty"`
	ExperienceLevel string `json:"experience_level,omitempty"`
	CandidateID     string `json:"candidate_id,omitempty"` // Candidate UUID; empty runs anonymous sessions

	// Behavior
	APIKey       string `json:"api_key,omitempty"`       // Gemini API key
	SettingsFile string `json:"settings_file,omitempty"` // Path to interview.yaml overrides
	Verbose      bool   `json:"verbose,omitempty"`       // Print boxed summaries
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required fields are checked by each command after merging with flags.
func (c *Config) Validate() error {
	if c.CandidateID != "" {
		if _, err := uuid.Parse(c.CandidateID); err != nil {
			return fmt.Errorf("config error: 'candidate_id' is not a valid UUID: %w", err)
		}
	}

	if c.SettingsFile != "" {
		if _, err := os.Stat(c.SettingsFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: settings file not found: %s", c.SettingsFile)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
// Bools are not merged because unset and false look the same; CLI flags win.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&result.DatabaseURL, defaults.DatabaseURL)
	fill(&result.JobRole, defaults.JobRole)
	fill(&result.ExperienceLevel, defaults.ExperienceLevel)
	fill(&result.CandidateID, defaults.CandidateID)
	fill(&result.APIKey, defaults.APIKey)
	fill(&result.SettingsFile, defaults.SettingsFile)

	return result
}
