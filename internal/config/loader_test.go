package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "pipeline"
log_level = "debug"

[storage]
backend = "memory"

[ingest]
limit = 25
interval = "2m"

[scoring]
cooldown = "30m"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "pipeline", cfg.Mode)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "memory", cfg.Storage.Backend)
	require.Equal(t, 25, cfg.Ingest.Limit)
	require.Equal(t, 2*time.Minute, cfg.Ingest.Interval.Duration)
	require.Equal(t, 30*time.Minute, cfg.Scoring.Cooldown.Duration)

	// Untouched sections keep their defaults.
	require.Equal(t, "https://gamma-api.polymarket.com", cfg.Polymarket.GammaHost)
	require.Equal(t, 8000, cfg.Server.Port)
	require.True(t, cfg.Scoring.ActiveOnly)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[storage]
backend = "memory"
`)

	t.Setenv("MARKETPULSE_MODE", "score")
	t.Setenv("MARKETPULSE_INGEST_LIMIT", "99")
	t.Setenv("MARKETPULSE_SCORING_COOLDOWN", "15m")
	t.Setenv("MARKETPULSE_SERVER_CRON_SECRET", "hunter2")
	t.Setenv("MARKETPULSE_REDIS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "score", cfg.Mode)
	require.Equal(t, 99, cfg.Ingest.Limit)
	require.Equal(t, 15*time.Minute, cfg.Scoring.Cooldown.Duration)
	require.Equal(t, "hunter2", cfg.Server.CronSecret)
	require.True(t, cfg.Redis.Enabled)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		cfg := Defaults()
		require.NoError(t, cfg.Validate())
	})

	t.Run("unknown mode rejected", func(t *testing.T) {
		cfg := Defaults()
		cfg.Mode = "turbo"
		err := cfg.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown mode")
	})

	t.Run("unknown storage backend rejected", func(t *testing.T) {
		cfg := Defaults()
		cfg.Storage.Backend = "sqlite"
		err := cfg.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown backend")
	})

	t.Run("pipeline mode requires intervals", func(t *testing.T) {
		cfg := Defaults()
		cfg.Mode = "pipeline"
		cfg.Ingest.Interval.Duration = 0
		err := cfg.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "interval must be positive")
	})

	t.Run("alert threshold bounds", func(t *testing.T) {
		cfg := Defaults()
		cfg.Scoring.AlertThreshold = 120
		err := cfg.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "alert_threshold")
	})
}
