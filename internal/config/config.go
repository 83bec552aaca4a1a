// Package config loads runtime settings for the mudra hand-sign detector.
//
// Values come from the process environment, optionally seeded from a .env
// file. Nothing is ever written back.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults used when the environment does not override a setting.
const (
	DefaultFallbackModel = "yolo11n.onnx"
	DefaultDataset       = "data.yaml"
	DefaultInputSize     = 640
	DefaultConfidence    = 0.25
	DefaultNMS           = 0.45
	DefaultVideoCodec    = "mp4v"
	DefaultLogLevel      = "info"
	DefaultCameraFPS     = 30
	DefaultPreviewWidth  = 640
	DefaultPreviewHeight = 480
)

// Config holds every tunable the application reads at startup.
type Config struct {
	// ModelPath points at custom weights. Empty means use the fallback.
	ModelPath         string
	FallbackModelPath string
	DatasetPath       string

	InputSize     int
	ConfThreshold float64
	NMSThreshold  float64

	DataDir   string
	OutputDir string
	// HistoryDB is the SQLite file for the history log. Empty keeps the
	// log in memory for the lifetime of the process.
	HistoryDB string

	VideoCodec string
	// MotionGate is the percentage of changed pixels below which a live
	// frame reuses the previous detections. Zero disables gating.
	MotionGate float64
	Cameras    []int
	// CameraFPS is the capture rate requested from live cameras.
	CameraFPS  int

	PreviewWidth  int
	PreviewHeight int

	LogLevel string
}

// Load reads .env files (working directory first, then the data directory)
// and builds a Config from the environment.
func Load() *Config {
	_ = godotenv.Load(".env")

	dataDir := getEnv("MUDRA_DATA_DIR", filepath.Join(homeDir(), ".mudra"))
	_ = godotenv.Load(filepath.Join(dataDir, ".env"))

	return &Config{
		ModelPath:         getEnv("MUDRA_MODEL", ""),
		FallbackModelPath: getEnv("MUDRA_FALLBACK_MODEL", DefaultFallbackModel),
		DatasetPath:       getEnv("MUDRA_DATASET", DefaultDataset),
		InputSize:         getEnvAsInt("MUDRA_INPUT_SIZE", DefaultInputSize),
		ConfThreshold:     getEnvAsFloat("MUDRA_CONF", DefaultConfidence),
		NMSThreshold:      getEnvAsFloat("MUDRA_NMS", DefaultNMS),
		DataDir:           dataDir,
		OutputDir:         getEnv("MUDRA_OUTPUT_DIR", filepath.Join(homeDir(), "mudra-results")),
		HistoryDB:         getEnv("MUDRA_HISTORY_DB", ""),
		VideoCodec:        getEnv("MUDRA_VIDEO_CODEC", DefaultVideoCodec),
		MotionGate:        getEnvAsFloat("MUDRA_MOTION_GATE", 0),
		Cameras:           getEnvAsInts("MUDRA_CAMERAS", []int{0, 1, 2}),
		CameraFPS:         getEnvAsInt("MUDRA_CAMERA_FPS", DefaultCameraFPS),
		PreviewWidth:      DefaultPreviewWidth,
		PreviewHeight:     DefaultPreviewHeight,
		LogLevel:          getEnv("MUDRA_LOG_LEVEL", DefaultLogLevel),
	}
}

// LogDir is where rotated log files are written.
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvAsInts parses a comma separated list. Invalid entries are skipped;
// an empty result falls back to the default.
func getEnvAsInts(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []int
	for _, part := range strings.Split(value, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
