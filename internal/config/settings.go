package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jonathan/interview-coach/internal/agents"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

//go:embed interview.yaml
var defaultSettings []byte

// EnvPrefix is the prefix of environment overrides for orchestrator settings.
const EnvPrefix = "INTERVIEW_"

const maxSettingsFileSize = 1024 * 1024 // 1MB

// Settings holds the orchestrator configuration.
type Settings struct {
	WindowSize int                     `koanf:"window_size"`
	Retry      RetrySettings           `koanf:"retry"`
	RateLimit  RateLimitSettings       `koanf:"rate_limit"`
	Roles      map[string]RoleSettings `koanf:"roles"`
}

// RetrySettings bounds retries of transient completion failures.
type RetrySettings struct {
	MaxAttempts int           `koanf:"max_attempts"`
	BaseBackoff time.Duration `koanf:"base_backoff"`
	MaxBackoff  time.Duration `koanf:"max_backoff"`
}

// RateLimitSettings throttles outgoing completion calls. PerSecond 0 disables it.
type RateLimitSettings struct {
	PerSecond float64 `koanf:"per_second"`
	Burst     int     `koanf:"burst"`
}

// RoleSettings is one entry of the static role configuration map.
type RoleSettings struct {
	Tier        string        `koanf:"tier"`
	Temperature float32       `koanf:"temperature"`
	Timeout     time.Duration `koanf:"timeout"`
	PromptKey   string        `koanf:"prompt_key"`
}

// LoadSettings loads embedded defaults, then the optional YAML file, then INTERVIEW_* environment variables.
func LoadSettings(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultSettings), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load default settings: %w", err)
	}

	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat settings file: %w", err)
		}
		if info.Size() > maxSettingsFileSize {
			return nil, fmt.Errorf("settings file too large: %d bytes (max %d)", info.Size(), maxSettingsFileSize)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load settings file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}
	return &s, nil
}

// envKey maps INTERVIEW_RETRY_MAX_ATTEMPTS to retry.max_attempts.
// Sections are matched by known prefix because field names contain underscores too.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))

	if rest, ok := strings.CutPrefix(key, "roles_"); ok {
		role, field, found := strings.Cut(rest, "_")
		if !found {
			return "roles." + role
		}
		return "roles." + role + "." + field
	}
	for _, section := range []string{"rate_limit", "retry"} {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}

// Validate checks ranges and that every role is configured.
func (s *Settings) Validate() error {
	if s.WindowSize < 1 {
		return fmt.Errorf("window_size must be at least 1, got %d", s.WindowSize)
	}
	if s.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", s.Retry.MaxAttempts)
	}
	if s.Retry.BaseBackoff < 0 || s.Retry.MaxBackoff < 0 {
		return fmt.Errorf("retry backoff must not be negative")
	}
	if s.RateLimit.PerSecond < 0 {
		return fmt.Errorf("rate_limit.per_second must not be negative")
	}
	for _, role := range agents.Roles() {
		rs, ok := s.Roles[role]
		if !ok {
			return fmt.Errorf("roles.%s is not configured", role)
		}
		if _, err := llm.ParseTier(rs.Tier); err != nil {
			return fmt.Errorf("roles.%s.tier: %w", role, err)
		}
		if rs.Timeout <= 0 {
			return fmt.Errorf("roles.%s.timeout must be positive", role)
		}
	}
	return nil
}

// RetryPolicy returns the retry settings as an llm.RetryPolicy.
func (s *Settings) RetryPolicy() llm.RetryPolicy {
	return llm.RetryPolicy{
		MaxAttempts: s.Retry.MaxAttempts,
		BaseBackoff: s.Retry.BaseBackoff,
		MaxBackoff:  s.Retry.MaxBackoff,
	}
}

// RoleSettings returns the role configuration map keyed by role name.
func (s *Settings) RoleSettings() map[string]agents.Settings {
	out := make(map[string]agents.Settings, len(s.Roles))
	for role, rs := range s.Roles {
		tier, err := llm.ParseTier(rs.Tier)
		if err != nil {
			tier = agents.DefaultSettings(role).Tier
		}
		out[role] = agents.Settings{
			Tier:        tier,
			Temperature: rs.Temperature,
			Timeout:     rs.Timeout,
			PromptKey:   rs.PromptKey,
		}
	}
	return out
}
