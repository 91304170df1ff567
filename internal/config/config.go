package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	Password     string
	LogDirectory string
	LogLevel     string

	ModelPath           string
	ConfigPath          string
	DetectionThreshold  float64
	DetectionInterval   time.Duration
	OverlayClearOnEmpty bool

	CameraID     string
	CameraWidth  int
	CameraHeight int
	CameraFPS    int

	DemoMode    bool   // Wymusza generator demo nawet gdy model jest dostępny
	DemoProfile string // camera-feed albo grid

	LayoutPath string

	NtfyTopic   string
	NtfyTimeout int // sekundy

	ArchiveDB                string
	ImageDirectory           string
	ImageBufferLimit         int // 0 oznacza domyślne wartości z pakietu storage
	ImageBufferFlushInterval int // sekundy
}

// Load reads an optional .env file and then builds the configuration from the environment.
func Load() *Config {
	// Brak pliku .env nie jest błędem
	_ = godotenv.Load()

	return &Config{
		Port:         getEnvAsInt("PORT", 8080),
		Password:     getEnv("PASSWORD", ""),
		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		ModelPath:           getEnv("MODEL_PATH", filepath.Join(".", "models", "frozen_inference_graph.pb")),
		ConfigPath:          getEnv("CONFIG_PATH", filepath.Join(".", "models", "ssd_mobilenet_v1_coco_2017_11_17.pbtxt")),
		DetectionThreshold:  getEnvAsFloat("DETECTION_THRESHOLD", 0.5),
		DetectionInterval:   time.Duration(getEnvAsInt("DETECTION_INTERVAL_MS", 2000)) * time.Millisecond,
		OverlayClearOnEmpty: getEnvAsBool("OVERLAY_CLEAR_ON_EMPTY", false),

		CameraID:     getEnv("CAMERA_ID", "cam-001"),
		CameraWidth:  getEnvAsInt("CAMERA_WIDTH", 1280),
		CameraHeight: getEnvAsInt("CAMERA_HEIGHT", 720),
		CameraFPS:    getEnvAsInt("CAMERA_FPS", 15),

		DemoMode:    getEnvAsBool("DEMO_MODE", false),
		DemoProfile: getEnv("DEMO_PROFILE", "camera-feed"),

		LayoutPath: getEnv("LAYOUT_PATH", filepath.Join(".", "layout.toml")),

		NtfyTopic:   getEnv("NTFY_TOPIC", ""),
		NtfyTimeout: getEnvAsInt("NTFY_TIMEOUT", 10),

		ArchiveDB:                getEnv("ARCHIVE_DB", ""),
		ImageDirectory:           getEnv("IMAGE_DIR", filepath.Join(".", "images")),
		ImageBufferLimit:         getEnvAsInt("BUFFER_LIMIT", 0),
		ImageBufferFlushInterval: getEnvAsInt("FLUSH_INTERVAL", 0),
	}
}

// ArchiveEnabled reports whether detections are written behind to SQLite.
func (c *Config) ArchiveEnabled() bool {
	return strings.TrimSpace(c.ArchiveDB) != ""
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
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
