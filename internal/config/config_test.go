package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		path := writeConfig(t, "app_secret: s\ndb:\n  dsn: postgres://x\n")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "8000", cfg.Server.Port)
		assert.Equal(t, 60*time.Second, cfg.Cache.TTL)
		assert.Equal(t, "gochannel", cfg.Queue.Driver)
		assert.Equal(t, 72*time.Hour, cfg.Tokens.ConfirmationTTL)
		assert.Equal(t, 20, cfg.Pagination.DefaultPageSize)
	})
	t.Run("env override", func(t *testing.T) {
		path := writeConfig(t, "app_secret: s\ndb:\n  dsn: postgres://x\n")
		t.Setenv("SERVER_PORT", "9999")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "9999", cfg.Server.Port)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		assert.Error(t, err)
	})
	t.Run("missing required", func(t *testing.T) {
		path := writeConfig(t, "debug: true\n")
		_, err := Load(path)
		assert.Error(t, err)
	})
}
