package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig overrides the default limit for a specific route prefix.
type EndpointConfig struct {
	PathPrefix string
	Method     string // empty matches any method
	Limit      int
	Window     time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns the built-in configuration: a generous default plus
// a strict limit on the endpoints that trigger external model calls.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    120,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		EndpointConfigs: []EndpointConfig{
			{PathPrefix: "/checklist", Method: "POST", Limit: 10, Window: time.Minute},
			{PathPrefix: "/chat", Method: "POST", Limit: 20, Window: time.Minute},
		},
	}
}

// LoadConfig builds the configuration from environment variables, falling
// back to DefaultConfig values. RATE_LIMIT_ENABLED=false disables limiting;
// RATE_LIMIT_RPM overrides the default per-minute limit.
func LoadConfig() *Config {
	config := DefaultConfig()

	if enabled := os.Getenv("RATE_LIMIT_ENABLED"); enabled != "" {
		config.Enabled = strings.EqualFold(enabled, "true")
	}
	if rpm := os.Getenv("RATE_LIMIT_RPM"); rpm != "" {
		if limit, err := strconv.Atoi(rpm); err == nil && limit > 0 {
			config.DefaultLimit = limit
		}
	}
	if rpm := os.Getenv("RATE_LIMIT_EVAL_RPM"); rpm != "" {
		if limit, err := strconv.Atoi(rpm); err == nil && limit > 0 {
			for i := range config.EndpointConfigs {
				config.EndpointConfigs[i].Limit = limit
			}
		}
	}

	return config
}

// limitFor returns the limit and window applying to a request.
func (c *Config) limitFor(path, method string) (int, time.Duration) {
	for _, ec := range c.EndpointConfigs {
		if matches(ec, path, method) {
			return ec.Limit, ec.Window
		}
	}
	return c.DefaultLimit, c.DefaultWindow
}

// bucketKey groups requests that share a limit into one bucket per client.
func bucketKey(path, method string, c *Config) string {
	for _, ec := range c.EndpointConfigs {
		if matches(ec, path, method) {
			return ec.Method + " " + ec.PathPrefix
		}
	}
	return "default"
}

func matches(ec EndpointConfig, path, method string) bool {
	if ec.Method != "" && !strings.EqualFold(ec.Method, method) {
		return false
	}
	return strings.HasPrefix(path, ec.PathPrefix)
}
