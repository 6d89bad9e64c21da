package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the service configuration, sourced from environment variables
// with an optional .env file.
type Config struct {
	Addr            string
	WeightsPath     string
	LabelsPath      string
	ONNXLibraryPath string

	InputSize        int
	PoolSize         int
	DefaultThreshold float64
	SeverityHigh     float64
	SeverityMedium   float64

	SessionTTL     time.Duration
	MaxUploadBytes int64
	Debug          bool
}

// LoadConfig reads configuration from the environment. A missing .env file
// is not an error.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:             envString("LISTEN_ADDR", ":8080"),
		WeightsPath:      envString("MODEL_PATH", "models/microsoft_infra.onnx"),
		LabelsPath:       os.Getenv("MODEL_LABELS"),
		ONNXLibraryPath:  os.Getenv("ONNX_RUNTIME_LIB"),
		InputSize:        envInt("MODEL_INPUT_SIZE", 1024),
		PoolSize:         envInt("SESSION_POOL_SIZE", 4),
		DefaultThreshold: envFloat("CONFIDENCE_THRESHOLD", 0.25),
		SeverityHigh:     envFloat("SEVERITY_HIGH", 0.75),
		SeverityMedium:   envFloat("SEVERITY_MEDIUM", 0.5),
		SessionTTL:       envDuration("SESSION_TTL", 30*time.Minute),
		MaxUploadBytes:   int64(envInt("MAX_UPLOAD_MB", 10)) << 20,
		Debug:            os.Getenv("DEBUG") == "true",
	}

	if cfg.InputSize <= 0 || cfg.InputSize%32 != 0 {
		return nil, fmt.Errorf("MODEL_INPUT_SIZE must be a positive multiple of 32, got %d", cfg.InputSize)
	}
	if cfg.DefaultThreshold <= 0 || cfg.DefaultThreshold >= 1 {
		return nil, fmt.Errorf("CONFIDENCE_THRESHOLD must lie in (0,1), got %g", cfg.DefaultThreshold)
	}
	if cfg.SeverityMedium <= 0 || cfg.SeverityHigh > 1 || cfg.SeverityMedium >= cfg.SeverityHigh {
		return nil, fmt.Errorf("severity thresholds must satisfy 0 < SEVERITY_MEDIUM < SEVERITY_HIGH <= 1")
	}

	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
