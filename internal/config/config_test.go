package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.False(t, cfg.EnableScheduler)
	assert.Equal(t, 60*time.Second, cfg.QuoteCacheTTL)
	assert.Equal(t, 10*time.Second, cfg.HTTPClientTimeout)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FINNHUB_API_KEY", "key123")
	t.Setenv("CRON_JOB_SECRET", "hush")
	t.Setenv("QUOTE_CACHE_TTL", "30s")
	t.Setenv("ENABLE_SCHEDULER", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "key123", cfg.FinnhubAPIKey)
	assert.Equal(t, "hush", cfg.CronJobSecret)
	assert.Equal(t, 30*time.Second, cfg.QuoteCacheTTL)
	assert.True(t, cfg.EnableScheduler)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "not-a-number")
	t.Setenv("QUOTE_CACHE_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 60*time.Second, cfg.QuoteCacheTTL)
}

func TestDatabasePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.DataDir, "walletfolio.db"), cfg.DatabasePath())
}
