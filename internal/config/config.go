package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

const envPrefix = "COUNSEL_"

type Config struct {
	Mode Mode `env:"MODE" envDefault:"local"`

	Port      string `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Storage: memory, sqlite, redis or firestore
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"sqlite"`
	DataDir        string `env:"DATA_DIR" envDefault:"./data"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`

	GCPProjectID string `env:"GCP_PROJECT"`
	GCPLocation  string `env:"GCP_LOCATION" envDefault:"us-central1"`
	ModelName    string `env:"MODEL_NAME" envDefault:"gemini-2.5-flash"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	// Analysis: mock, vertex, gemini or http
	AnalysisBackend string        `env:"ANALYSIS_BACKEND" envDefault:"mock"`
	AnalysisURL     string        `env:"ANALYSIS_URL"`
	AnalysisAPIKey  string        `env:"ANALYSIS_API_KEY"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"60s"`
	HistoryBudget   int           `env:"HISTORY_BUDGET" envDefault:"3000"`

	CloudinaryCloudName    string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryUploadPreset string `env:"CLOUDINARY_UPLOAD_PRESET"`
	UploadMaxBytes         int64  `env:"UPLOAD_MAX_BYTES" envDefault:"20971520"`

	ACRCloudHost      string `env:"ACRCLOUD_HOST" envDefault:"identify-eu-west-1.acrcloud.com"`
	ACRCloudAccessKey string `env:"ACRCLOUD_ACCESS_KEY"`
	ACRCloudSecretKey string `env:"ACRCLOUD_SECRET_KEY"`

	RiskPolicyFile string `env:"RISK_POLICY_FILE"`
}

// Load reads all COUNSEL_* env vars and builds the config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Mode = Mode(strings.ToLower(string(cfg.Mode)))
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.AnalysisBackend = strings.ToLower(strings.TrimSpace(cfg.AnalysisBackend))
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend specific requirements.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeLocal, ModeGCP:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}

	switch c.StorageBackend {
	case "memory", "sqlite", "redis":
	case "firestore":
		if c.GCPProjectID == "" {
			return errors.New("COUNSEL_GCP_PROJECT is required for the firestore storage backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	switch c.AnalysisBackend {
	case "mock":
	case "vertex":
		if c.GCPProjectID == "" || c.GCPLocation == "" {
			return errors.New("COUNSEL_GCP_PROJECT and COUNSEL_GCP_LOCATION must be set for the vertex analysis backend")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return errors.New("COUNSEL_GEMINI_API_KEY must be set for the gemini analysis backend")
		}
	case "http":
		if c.AnalysisURL == "" {
			return errors.New("COUNSEL_ANALYSIS_URL must be set for the http analysis backend")
		}
	default:
		return fmt.Errorf("unknown analysis backend %q", c.AnalysisBackend)
	}

	// Minimal validation in GCP mode
	if c.Mode == ModeGCP && c.GCPProjectID == "" {
		return errors.New("COUNSEL_GCP_PROJECT must be set in gcp mode")
	}

	if c.HistoryBudget <= 0 {
		return fmt.Errorf("history budget must be positive, got %d", c.HistoryBudget)
	}
	return nil
}

// UploadsEnabled reports whether the Cloudinary uploader is configured.
func (c *Config) UploadsEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryUploadPreset != ""
}

// AudioEnabled reports whether ACRCloud credentials are configured.
func (c *Config) AudioEnabled() bool {
	return c.ACRCloudAccessKey != "" && c.ACRCloudSecretKey != ""
}
