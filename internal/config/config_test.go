package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("DISPATCH_PACE_MILLIS", "")
	t.Setenv("DISPATCH_INTERVAL_SECONDS", "")
	t.Setenv("DISPATCH_RUN_ON_START", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Dispatch.Pace())
	assert.True(t, cfg.Dispatch.RunOnStart)
	assert.Zero(t, cfg.Dispatch.Interval())
	assert.Empty(t, cfg.Postgres.DSN)
	assert.Equal(t, "dispatch:feed", cfg.Redis.FeedKey)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DISPATCH_PACE_MILLIS", "250")
	t.Setenv("DISPATCH_INTERVAL_SECONDS", "30")
	t.Setenv("DISPATCH_RUN_ON_START", "false")
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Dispatch.Pace())
	assert.Equal(t, 30*time.Second, cfg.Dispatch.Interval())
	assert.False(t, cfg.Dispatch.RunOnStart)
	assert.Equal(t, "127.0.0.1:9000", cfg.App.Addr())
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("redis db", func(t *testing.T) {
		t.Setenv("REDIS_DB", "zero")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("negative pace", func(t *testing.T) {
		t.Setenv("DISPATCH_PACE_MILLIS", "-1")
		_, err := Load()
		assert.Error(t, err)
	})
}
