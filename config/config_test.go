package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("ADVISORY_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.OpenAIAPIKey)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 10*time.Second, cfg.AdvisoryTimeout)
	assert.Equal(t, 15*time.Minute, cfg.AdvisoryTTL)
	assert.Equal(t, 2.0, cfg.RateDeviationThreshold)
	assert.Equal(t, 0.05, cfg.MaturityTolerance)
	assert.Equal(t, 30, cfg.RateLimitCapacity)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("ADVISORY_TIMEOUT", "3s")
	t.Setenv("MATURITY_TOLERANCE", "0.1")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, "gpt-4.1-mini", cfg.OpenAIModel)
	assert.Equal(t, 3*time.Second, cfg.AdvisoryTimeout)
	assert.Equal(t, 0.1, cfg.MaturityTolerance)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoad_IgnoresUnparseableValues(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("ADVISORY_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.AdvisoryTimeout)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"PORT":                     "70000",
		"ADVISORY_TIMEOUT":         "-1s",
		"RATE_DEVIATION_THRESHOLD": "0",
		"RATE_LIMIT_CAPACITY":      "-5",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
