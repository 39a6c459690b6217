package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"picstego/config"
)

func TestNewLevels(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "warn"
	logger, err := New(cfg)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))

	cfg.LogLevel = "loud"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestNewWritesFile(t *testing.T) {
	cfg := config.Default()
	cfg.LogFormat = "console"
	cfg.LogFile = filepath.Join(t.TempDir(), "picstego.log")

	logger, err := New(cfg)
	require.NoError(t, err)
	logger.Info("embedded message", zap.Int("bits", 48))
	_ = logger.Sync()

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"embedded message"`)
	assert.Contains(t, string(data), `"bits":48`)
}
