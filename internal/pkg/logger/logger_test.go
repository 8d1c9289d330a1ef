package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nope"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestInitWritesToLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, Init(LogOption{Format: "json", LogDir: dir, Level: "info"}))
	defer func() { _ = Init(LogOption{Format: "console", Level: "info"}) }()

	Infof("[logger:test] hello: n=%d", 1)
	_ = Sync()

	data, err := os.ReadFile(filepath.Join(dir, defaultFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[logger:test] hello: n=1")
}
