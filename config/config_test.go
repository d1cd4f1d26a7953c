package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, msg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "journal_session", cfg.Auth.CookieName)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 20, cfg.UI.PageSize)
	assert.Equal(t, "journal.db", filepath.Base(cfg.Database.Path))
	assert.Contains(t, msg, "default")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JOURNAL_SERVER_PORT", "9090")
	t.Setenv("JOURNAL_AUTH_TOKEN_TTL", "2h")

	cfg, _, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
database:
  path: /tmp/journal-test.db
server:
  port: "4000"
auth:
  cookie_name: diary
ui:
  page_size: 5
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, msg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/journal-test.db", cfg.Database.Path)
	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "diary", cfg.Auth.CookieName)
	assert.Equal(t, 5, cfg.UI.PageSize)
	assert.Contains(t, msg, path)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandTilde("~/journal.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "journal.db"), got)

	got, err = ExpandTilde("/var/lib/journal.db")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/journal.db", got)
}
