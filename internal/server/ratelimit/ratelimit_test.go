package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Enabled:       true,
		DefaultLimit:  3,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{PathPrefix: "/checklist", Method: "POST", Limit: 1, Window: time.Minute},
		},
	}
}

func TestLimiterAllowsUpToLimit(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()

	for i := 0; i < 3; i++ {
		allowed, info := l.Allow("client-a", "/items", "GET")
		assert.True(t, allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 3, info.Limit)
	}

	allowed, info := l.Allow("client-a", "/items", "GET")
	assert.False(t, allowed)
	assert.GreaterOrEqual(t, info.RetryAfter, time.Second)
}

func TestLimiterIsolatesClients(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()

	for i := 0; i < 3; i++ {
		l.Allow("client-a", "/items", "GET")
	}
	allowed, _ := l.Allow("client-a", "/items", "GET")
	require.False(t, allowed)

	allowed, _ = l.Allow("client-b", "/items", "GET")
	assert.True(t, allowed, "another client has its own bucket")
}

func TestLimiterEndpointOverride(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()

	allowed, info := l.Allow("client-a", "/checklist", "POST")
	require.True(t, allowed)
	assert.Equal(t, 1, info.Limit)

	allowed, _ = l.Allow("client-a", "/checklist", "POST")
	assert.False(t, allowed, "evaluation endpoint has a stricter limit")

	// The default bucket for the same client is untouched
	allowed, _ = l.Allow("client-a", "/items", "GET")
	assert.True(t, allowed)
}

func TestLimiterMethodScoping(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()

	allowed, info := l.Allow("client-a", "/checklist", "GET")
	require.True(t, allowed)
	assert.Equal(t, 3, info.Limit, "only POST /checklist is restricted")
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(&Config{Enabled: false})
	defer l.Stop()

	for i := 0; i < 100; i++ {
		allowed, _ := l.Allow("client-a", "/checklist", "POST")
		assert.True(t, allowed)
	}
}

func TestLimiterNilConfigUsesDefaults(t *testing.T) {
	l := NewLimiter(nil)
	defer l.Stop()

	allowed, info := l.Allow("client-a", "/items", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 120, info.Limit)
}

func TestTokenBucketRefill(t *testing.T) {
	// 1 token capacity, refills 100 tokens/second
	tb := newTokenBucket(1, 100)

	require.True(t, tb.allow())
	require.False(t, tb.allow())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, tb.allow(), "bucket refills over time")
}

func TestConfigLimitFor(t *testing.T) {
	cfg := testConfig()

	limit, window := cfg.limitFor("/checklist", "POST")
	assert.Equal(t, 1, limit)
	assert.Equal(t, time.Minute, window)

	limit, _ = cfg.limitFor("/items", "GET")
	assert.Equal(t, 3, limit)
}

func TestDefaultConfigRestrictsEvaluation(t *testing.T) {
	cfg := DefaultConfig()

	limit, _ := cfg.limitFor("/checklist", "POST")
	assert.Less(t, limit, cfg.DefaultLimit)

	limit, _ = cfg.limitFor("/chat", "POST")
	assert.Less(t, limit, cfg.DefaultLimit)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_RPM", "42")

	cfg := LoadConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
}
