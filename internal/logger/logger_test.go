package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"campusdate/backend/internal/config"
)

func TestNewLogger(t *testing.T) {
	t.Run("无效级别回退到info", func(t *testing.T) {
		log, err := NewLogger(Config{Level: "verbose"})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("写入日志文件", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "app.log")
		log, err := FromConfig(&config.LogConfig{Level: "debug", File: path})
		require.NoError(t, err)
		log.Info("hello file")
		_ = log.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "hello file")
		assert.Contains(t, string(data), `"level":"info"`)
		assert.Contains(t, string(data), `"service":"campusdate"`)
	})
}

func TestNewLogger_DevelopmentConsole(t *testing.T) {
	log, err := NewLogger(Config{Level: "debug", Development: true, Sampling: true})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}
