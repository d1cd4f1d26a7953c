package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitGlobalLoggers_WritesByLevel(t *testing.T) {
	dir := t.TempDir()
	appPath := filepath.Join(dir, "logs", "app.log")
	accessPath := filepath.Join(dir, "logs", "access.log")

	require.NoError(t, InitGlobalLoggers(appPath, accessPath, "info"))
	t.Cleanup(CloseLogFiles)
	assert.Equal(t, "INFO", Level())

	Debug("hidden debug line")
	Info("visible info line %d", 42)
	AccessInfo("GET /api/entries 200")

	appLog, err := os.ReadFile(appPath)
	require.NoError(t, err)
	assert.Contains(t, string(appLog), "visible info line 42")
	assert.NotContains(t, string(appLog), "hidden debug line")

	accessLog, err := os.ReadFile(accessPath)
	require.NoError(t, err)
	assert.Contains(t, string(accessLog), "GET /api/entries 200")
}

func TestInitGlobalLoggers_RejectsUnknownLevel(t *testing.T) {
	dir := t.TempDir()
	err := InitGlobalLoggers(filepath.Join(dir, "app.log"), filepath.Join(dir, "access.log"), "chatty")
	assert.Error(t, err)
}

func TestWarnHonorsLevel(t *testing.T) {
	dir := t.TempDir()
	appPath := filepath.Join(dir, "app.log")

	require.NoError(t, InitGlobalLoggers(appPath, filepath.Join(dir, "access.log"), "ERROR"))
	t.Cleanup(CloseLogFiles)

	Warn("suppressed warning")
	Info("suppressed info")

	appLog, err := os.ReadFile(appPath)
	require.NoError(t, err)
	assert.NotContains(t, string(appLog), "suppressed warning")
	assert.NotContains(t, string(appLog), "suppressed info")
}
