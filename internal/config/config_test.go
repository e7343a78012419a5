package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_PORT", "LOG_LEVEL", "LINKEDIN_API_URL", "UPSTREAM_TIMEOUT", "ALLOWED_ORIGINS",
		"RATE_LIMIT_PER_MINUTE", "RATE_LIMIT_BURST", "TRUSTED_PROXY", "AGENT_SERVER_URL", "AGENT_STORE_PATH", "AGENT_REPLY_DELAY",
	} {
		t.Setenv(key, "")
	}
	// Empty duration and int values fall back to their defaults.
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("LINKEDIN_API_URL", DefaultLinkedInAPIURL)
	t.Setenv("ALLOWED_ORIGINS", "*")
	t.Setenv("AGENT_SERVER_URL", "http://localhost:8080/")

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, time.Second, cfg.AgentReplyDelay)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.False(t, cfg.TrustedProxy)
	assert.Equal(t, "http://localhost:8080", cfg.AgentServerURL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LINKEDIN_API_URL", "http://upstream.test/me")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	t.Setenv("RATE_LIMIT_BURST", " 5 ")
	t.Setenv("TRUSTED_PROXY", "true")
	t.Setenv("AGENT_REPLY_DELAY", "250ms")

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "http://upstream.test/me", cfg.LinkedInAPIURL)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 0, cfg.RateLimitPerMinute)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.True(t, cfg.TrustedProxy)
	assert.Equal(t, 250*time.Millisecond, cfg.AgentReplyDelay)
}

func TestFromEnv_InvalidDuration(t *testing.T) {
	t.Setenv("UPSTREAM_TIMEOUT", "soon")

	_, err := fromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPSTREAM_TIMEOUT")
}

func TestFromEnv_InvalidInt(t *testing.T) {
	for _, key := range []string{"RATE_LIMIT_PER_MINUTE", "RATE_LIMIT_BURST"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "sixty")

			_, err := fromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestFromEnv_InvalidBool(t *testing.T) {
	t.Setenv("TRUSTED_PROXY", "maybe")

	_, err := fromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRUSTED_PROXY")
}

func TestValidate(t *testing.T) {
	valid := Config{
		HTTPPort:           "8080",
		LogLevel:           "INFO",
		LinkedInAPIURL:     DefaultLinkedInAPIURL,
		UpstreamTimeout:    time.Second,
		RateLimitPerMinute: 60,
		RateLimitBurst:     10,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty port", func(c *Config) { c.HTTPPort = "" }},
		{"empty upstream", func(c *Config) { c.LinkedInAPIURL = "" }},
		{"zero timeout", func(c *Config) { c.UpstreamTimeout = 0 }},
		{"negative rate", func(c *Config) { c.RateLimitPerMinute = -1 }},
		{"zero burst", func(c *Config) { c.RateLimitBurst = 0 }},
		{"negative delay", func(c *Config) { c.AgentReplyDelay = -time.Second }},
		{"bad level", func(c *Config) { c.LogLevel = "LOUD" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("WARN")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("nope")
	assert.Error(t, err)
}
