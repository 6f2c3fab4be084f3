package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tckz/tempo-downloads/internal/store"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "tempo_downloads_real", cfg.CounterKey)
	assert.Equal(t, DefaultAdminSecret, cfg.AdminSecret)
	assert.Equal(t, 2*time.Second, cfg.TrackTimeout)
	assert.True(t, cfg.LaunchEpoch.Equal(time.Date(2026, 1, 7, 8, 0, 0, 0, time.UTC)))

	sc := cfg.Store()
	assert.Equal(t, store.BackendRedis, sc.Backend)
	assert.False(t, sc.Configured())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"STORE_BACKEND": "redis",
		"KV_URL":        "rediss://kv.example.com:6379",
		"KV_TOKEN":      "token",
		"LAUNCH_EPOCH":  "2025-12-31T00:00:00Z",
		"ADMIN_SECRET":  "hunter2",
		"TRACK_TIMEOUT": "250ms",
	})
	require.NoError(t, err)

	assert.Equal(t, "hunter2", cfg.AdminSecret)
	assert.Equal(t, 250*time.Millisecond, cfg.TrackTimeout)
	assert.True(t, cfg.LaunchEpoch.Equal(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, cfg.Store().Configured())
}

func TestLoadBadEpoch(t *testing.T) {
	_, err := LoadFrom(map[string]string{"LAUNCH_EPOCH": "yesterday"})
	assert.Error(t, err)
}
