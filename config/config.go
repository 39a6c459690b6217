// Package config loads service settings from the environment
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port           string
	GinMode        string
	AllowedOrigins []string
	MaxUploadBytes int64
	MaxImagePixels int
	OutputFormat   string
	MinPSNR        float64
	SessionTTL     time.Duration
	SessionCacheMB int
	MetricsEnabled bool

	LogLevel      string
	LogFormat     string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

func Default() Config {
	return Config{
		Port:           "8080",
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxUploadBytes: 32 << 20,
		MaxImagePixels: 40_000_000,
		OutputFormat:   "png",
		MinPSNR:        40,
		SessionTTL:     10 * time.Minute,
		SessionCacheMB: 1024,
		MetricsEnabled: true,
		LogLevel:       "info",
		LogFormat:      "json",
		LogMaxSizeMB:   100,
		LogMaxBackups:  5,
		LogMaxAgeDays:  28,
	}
}

// Load overlays the environment on Default. Unparsable or out of range
// values keep their defaults.
func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("GIN_MODE"); raw != "" {
		cfg.GinMode = raw
	}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		var origins []string
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}
	if raw := os.Getenv("MAX_UPLOAD_BYTES"); raw != "" {
		if value, err := strconv.ParseInt(raw, 10, 64); err == nil && value > 0 {
			cfg.MaxUploadBytes = value
		}
	}
	if raw := os.Getenv("MAX_IMAGE_PIXELS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxImagePixels = value
		}
	}
	if raw := os.Getenv("OUTPUT_FORMAT"); raw != "" {
		switch v := strings.ToLower(raw); v {
		case "png", "bmp":
			cfg.OutputFormat = v
		}
	}
	if raw := os.Getenv("MIN_PSNR"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value >= 0 {
			cfg.MinPSNR = value
		}
	}
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if value, err := time.ParseDuration(raw); err == nil && value > 0 {
			cfg.SessionTTL = value
		}
	}
	if raw := os.Getenv("SESSION_CACHE_MB"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.SessionCacheMB = value
		}
	}
	if raw := os.Getenv("METRICS_ENABLED"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.MetricsEnabled = value
		}
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = strings.ToLower(raw)
	}
	if raw := os.Getenv("LOG_FORMAT"); raw != "" {
		switch v := strings.ToLower(raw); v {
		case "json", "console":
			cfg.LogFormat = v
		}
	}
	if raw := os.Getenv("LOG_FILE"); raw != "" {
		cfg.LogFile = raw
	}
	if raw := os.Getenv("LOG_MAX_SIZE_MB"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.LogMaxSizeMB = value
		}
	}
	if raw := os.Getenv("LOG_MAX_BACKUPS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.LogMaxBackups = value
		}
	}
	if raw := os.Getenv("LOG_MAX_AGE_DAYS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.LogMaxAgeDays = value
		}
	}
	return cfg
}
