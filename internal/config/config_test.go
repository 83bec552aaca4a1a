package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MUDRA_DATA_DIR", t.TempDir())
	for _, key := range []string{
		"MUDRA_MODEL", "MUDRA_FALLBACK_MODEL", "MUDRA_DATASET", "MUDRA_INPUT_SIZE",
		"MUDRA_CONF", "MUDRA_NMS", "MUDRA_HISTORY_DB", "MUDRA_VIDEO_CODEC",
		"MUDRA_MOTION_GATE", "MUDRA_CAMERAS", "MUDRA_CAMERA_FPS", "MUDRA_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Empty(t, cfg.ModelPath)
	assert.Equal(t, DefaultFallbackModel, cfg.FallbackModelPath)
	assert.Equal(t, DefaultDataset, cfg.DatasetPath)
	assert.Equal(t, DefaultInputSize, cfg.InputSize)
	assert.InDelta(t, DefaultConfidence, cfg.ConfThreshold, 1e-9)
	assert.InDelta(t, DefaultNMS, cfg.NMSThreshold, 1e-9)
	assert.Empty(t, cfg.HistoryDB)
	assert.Equal(t, DefaultVideoCodec, cfg.VideoCodec)
	assert.Zero(t, cfg.MotionGate)
	assert.Equal(t, []int{0, 1, 2}, cfg.Cameras)
	assert.Equal(t, DefaultCameraFPS, cfg.CameraFPS)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("MUDRA_DATA_DIR", dataDir)
	t.Setenv("MUDRA_MODEL", "/weights/best.onnx")
	t.Setenv("MUDRA_INPUT_SIZE", "320")
	t.Setenv("MUDRA_CONF", "0.5")
	t.Setenv("MUDRA_MOTION_GATE", "1.5")
	t.Setenv("MUDRA_CAMERAS", "4, x, 7")
	t.Setenv("MUDRA_CAMERA_FPS", "15")

	cfg := Load()

	assert.Equal(t, "/weights/best.onnx", cfg.ModelPath)
	assert.Equal(t, 320, cfg.InputSize)
	assert.InDelta(t, 0.5, cfg.ConfThreshold, 1e-9)
	assert.InDelta(t, 1.5, cfg.MotionGate, 1e-9)
	assert.Equal(t, []int{4, 7}, cfg.Cameras)
	assert.Equal(t, 15, cfg.CameraFPS)
	assert.Equal(t, filepath.Join(dataDir, "logs"), cfg.LogDir())
}

func TestLoad_InvalidNumbersKeepDefaults(t *testing.T) {
	t.Setenv("MUDRA_DATA_DIR", t.TempDir())
	t.Setenv("MUDRA_INPUT_SIZE", "big")
	t.Setenv("MUDRA_CONF", "high")
	t.Setenv("MUDRA_CAMERAS", "a,b")

	cfg := Load()

	assert.Equal(t, DefaultInputSize, cfg.InputSize)
	assert.InDelta(t, DefaultConfidence, cfg.ConfThreshold, 1e-9)
	assert.Equal(t, []int{0, 1, 2}, cfg.Cameras)
}

func TestDefaultSavePath(t *testing.T) {
	cfg := &Config{OutputDir: "/out"}
	now := time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)

	tests := []struct {
		kind SaveKind
		want string
	}{
		{SaveImage, "/out/result_20250309_140507.jpg"},
		{SaveVideo, "/out/video_20250309_140507.mp4"},
		{SaveHistory, "/out/history_20250309_140507.csv"},
		{SaveKind("other"), "/out/result_20250309_140507"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			require.Equal(t, filepath.FromSlash(tt.want), cfg.DefaultSavePath(tt.kind, now))
		})
	}
}
