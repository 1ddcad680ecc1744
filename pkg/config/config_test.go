package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults when the environment is empty", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "development", cfg.AppEnv)
		assert.Equal(t, "rest", cfg.RemoteKind)
		assert.Equal(t, 15*time.Minute, cfg.SyncInterval)
		assert.Equal(t, 5, cfg.SyncMaxAttempts)
		assert.Equal(t, 24*time.Hour, cfg.PushDedupeTTL)
		assert.Equal(t, 100, cfg.OutboxBatchSize)
		assert.False(t, cfg.FirstSync)
		assert.False(t, cfg.RedisEnabled)
		assert.False(t, cfg.RabbitMQEnabled)
	})

	t.Run("reads overrides from the environment", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("REMOTE_STORE", "postgres")
		t.Setenv("SYNC_INTERVAL", "5m")
		t.Setenv("SYNC_MAX_ATTEMPTS", "3")
		t.Setenv("FIRST_SYNC", "true")
		t.Setenv("QUESTA_USER_ID", "0e545a54-3788-4a58-9f1d-b6a274f8b44e")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "production", cfg.AppEnv)
		assert.Equal(t, "postgres", cfg.RemoteKind)
		assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
		assert.Equal(t, 3, cfg.SyncMaxAttempts)
		assert.True(t, cfg.FirstSync)
		assert.Equal(t, "0e545a54-3788-4a58-9f1d-b6a274f8b44e", cfg.UserID)
	})

	t.Run("falls back on unparseable values", func(t *testing.T) {
		t.Setenv("SYNC_INTERVAL", "not-a-duration")
		t.Setenv("SYNC_MAX_ATTEMPTS", "not-a-number")
		t.Setenv("FIRST_SYNC", "not-a-bool")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 15*time.Minute, cfg.SyncInterval)
		assert.Equal(t, 5, cfg.SyncMaxAttempts)
		assert.False(t, cfg.FirstSync)
	})
}

func TestConfig_EnvHelpers(t *testing.T) {
	t.Run("development mode", func(t *testing.T) {
		cfg := &Config{AppEnv: "development"}
		assert.True(t, cfg.IsDevelopment())
		assert.False(t, cfg.IsProduction())
	})

	t.Run("production mode", func(t *testing.T) {
		cfg := &Config{AppEnv: "production"}
		assert.False(t, cfg.IsDevelopment())
		assert.True(t, cfg.IsProduction())
	})
}
