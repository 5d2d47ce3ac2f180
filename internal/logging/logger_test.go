package logging

import (
	"authviz/internal/config"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Console(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "warn"

	var buf bytes.Buffer
	logger, err := newLogger(cfg, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "WARN")
}

func TestNewLogger_File(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(t.TempDir(), "authviz.log")

	logger, err := New(cfg)
	require.NoError(t, err)

	logger.Info("run finished")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(cfg.Logging.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"run finished"`)
	assert.Contains(t, string(data), `"level":"info"`)
}

func TestNewLogger_BadLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "loud"

	_, err := New(cfg)
	assert.Error(t, err)
}
