package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, DriverBolt, cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Outbox.MaxRetry)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "http://localhost:3000/api/v1/", cfg.HealthURL())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("API_BASE_URL", "https://assets.example.com/api/v1/")
	t.Setenv("API_TIMEOUT", "5")
	t.Setenv("API_HEALTH_PATH", "health")
	t.Setenv("SESSION_STORE_DRIVER", "REDIS")
	t.Setenv("OUTBOX_SYNC_INTERVAL", "1m")
	t.Setenv("OUTBOX_MAX_RETRY", "not-a-number")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://assets.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, time.Minute, cfg.Outbox.SyncInterval)
	assert.Equal(t, 5, cfg.Outbox.MaxRetry)
	assert.Equal(t, "https://assets.example.com/api/v1/health", cfg.HealthURL())
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SESSION_STORE_DRIVER", "sqlite")

	_, err := Load()

	assert.Error(t, err)
}

func TestLoad_RejectsEmptyBaseURL(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("API_BASE_URL", "/")

	_, err := Load()

	assert.Error(t, err)
}
