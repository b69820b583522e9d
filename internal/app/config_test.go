package app

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/tallybook/tallybook/testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LOCK_BACKEND", "redis")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.True(t, cfg.Rate().Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, LockBackendRedis, cfg.LockBackend)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, "0 2 * * *", cfg.OverdueSweepCron)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("GST_RATE", "0.15")
	t.Setenv("LOCK_BACKEND", "local")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "0.15", cfg.Rate().String())
	assert.Equal(t, LockBackendLocal, cfg.LockBackend)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"rate not a number":  {"GST_RATE": "ten percent"},
		"rate out of range":  {"GST_RATE": "1.5"},
		"zero rate":          {"GST_RATE": "0"},
		"unknown lock":       {"LOCK_BACKEND": "etcd"},
		"zero lock ttl":      {"LOCK_TTL": "0s"},
		"non-positive limit": {"RATE_LIMIT_PER_MINUTE": "0"},
		"bad duration":       {"APP_READ_TIMEOUT": "soon"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestInTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())
}

func TestNewLoggerFormats(t *testing.T) {
	assert.NotNil(t, NewLogger(&Config{LogFormat: "json"}))
	assert.NotNil(t, NewLogger(nil))
}
