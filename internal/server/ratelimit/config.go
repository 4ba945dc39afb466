package ratelimit

import (
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of rate limit environment variables, e.g. RATE_LIMIT_DEFAULT_LIMIT.
const EnvPrefix = "RATE_LIMIT_"

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Exact path, or a prefix when it ends with "/"
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig reads the RATE_LIMIT_* environment. Unset or unparsable values keep their defaults.
func LoadConfig() *Config {
	k := koanf.New(".")
	// The env provider only fails on a nil callback.
	_ = k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)

	if enabled, err := strconv.ParseBool(k.String("enabled")); err == nil && !enabled {
		return &Config{Enabled: false}
	}

	cfg := &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       parseIPList(k.String("whitelist")),
		Blacklist:       parseIPList(k.String("blacklist")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
	if v := k.Int("default_limit"); v > 0 {
		cfg.DefaultLimit = v
	}
	if v := k.Duration("default_window"); v > 0 {
		cfg.DefaultWindow = v
	}
	if v := k.Duration("cleanup_interval"); v > 0 {
		cfg.CleanupInterval = v
	}
	if v := k.Duration("idle_ttl"); v > 0 {
		cfg.IdleTTL = v
	}
	return cfg
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Starting an interview costs a completion call and a new session
		{Path: "/interviews", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},

		// Per-interview actions call the completion service
		{Path: "/interviews/", Method: "POST", Limit: 600, Window: time.Hour, Burst: 20},
		{Path: "/actions", Method: "POST", Limit: 600, Window: time.Hour, Burst: 20},
		{Path: "/actions/stream", Method: "POST", Limit: 600, Window: time.Hour, Burst: 20},

		// Credential endpoints are kept tight against guessing
		{Path: "/auth/", Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},

		{Path: "/interviews/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},

		// Reads use the default limit; /health and /metrics are unlimited
	}
}

// parseIPList turns a comma-separated list into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
