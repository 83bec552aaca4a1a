package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"loud", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_WritesRotatedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, closer, err := New(Options{Level: "info", Dir: dir})
	require.NoError(t, err)

	logger.Infow("model loaded", "path", "best.onnx")
	logger.Debug("suppressed at info level")
	closer()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)

	content := string(data)
	assert.True(t, strings.Contains(content, `"msg":"model loaded"`), content)
	assert.True(t, strings.Contains(content, `"path":"best.onnx"`), content)
	assert.False(t, strings.Contains(content, "suppressed"), content)
}

func TestNew_ConsoleOnly(t *testing.T) {
	logger, closer, err := New(Options{Level: "warn"})
	require.NoError(t, err)
	defer closer()

	assert.NotNil(t, logger)
	assert.False(t, logger.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Desugar().Core().Enabled(zapcore.WarnLevel))
}
