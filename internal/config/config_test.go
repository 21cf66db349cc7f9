package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.TelegramBotToken)
	assert.Equal(t, "./badger_data", cfg.BadgerDBPath)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, "https://api.microlink.io", cfg.MicrolinkEndpoint)
	assert.False(t, cfg.BrowserEnabled)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 15*time.Second, cfg.RefetchTimeout)
	assert.Equal(t, 7*24*time.Hour, cfg.StaleAfter)
	assert.Equal(t, 200*time.Millisecond, cfg.DispatchDebounce)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	assert.Equal(t, 1000, cfg.SessionCacheSize)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, level)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
TELEGRAM_BOT_TOKEN: from-file
REDIS_URL: redis://localhost:6379/1
LOG_LEVEL: debug
STALE_AFTER: 48h
BROWSER_ENABLED: true
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("INSTAGRAM_TOKEN", "ig")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.TelegramBotToken)
	assert.Equal(t, "redis://localhost:6379/1", cfg.RedisURL)
	assert.Equal(t, "ig", cfg.InstagramToken)
	assert.Equal(t, 48*time.Hour, cfg.StaleAfter)
	assert.True(t, cfg.BrowserEnabled)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "")
		_, err := LoadConfig(t.TempDir())
		assert.ErrorContains(t, err, "TELEGRAM_BOT_TOKEN")
	})

	t.Run("bad log level", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "token")
		t.Setenv("LOG_LEVEL", "loud")
		_, err := LoadConfig(t.TempDir())
		assert.ErrorContains(t, err, "LOG_LEVEL")
	})

	t.Run("zero stale window", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "token")
		t.Setenv("STALE_AFTER", "0s")
		_, err := LoadConfig(t.TempDir())
		assert.ErrorContains(t, err, "STALE_AFTER")
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("TELEGRAM_BOT_TOKEN: [unclosed"), 0o600))
		t.Setenv("TELEGRAM_BOT_TOKEN", "token")
		_, err := LoadConfig(dir)
		assert.Error(t, err)
	})
}
