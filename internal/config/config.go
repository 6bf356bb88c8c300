package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the sync job.
type Config struct {
	Mercately  MercatelyConfig  `yaml:"mercately"`
	Database   DatabaseConfig   `yaml:"database"`
	Sync       SyncConfig       `yaml:"sync"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
}

// MercatelyConfig holds Mercately API configuration.
type MercatelyConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PageDelayMs    int    `yaml:"page_delay_ms"`
	MaxRetries     int    `yaml:"max_retries"`
}

// Timeout returns the per-request timeout as a duration.
func (c MercatelyConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PageDelay returns the inter-page delay as a duration.
func (c MercatelyConfig) PageDelay() time.Duration {
	return time.Duration(c.PageDelayMs) * time.Millisecond
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// SyncConfig holds reconciliation settings.
type SyncConfig struct {
	// Policy is "accumulate_new_only" or "upsert_in_window".
	Policy       string `yaml:"policy"`
	LookbackDays int    `yaml:"lookback_days"`
}

// CheckpointConfig holds checkpoint persistence settings. When S3Bucket is
// set the checkpoint lives in S3 (ECS deploys), otherwise in a local file.
type CheckpointConfig struct {
	Path     string `yaml:"path"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Key    string `yaml:"s3_key"`
	S3Region string `yaml:"s3_region"`
}

// Load reads and parses the configuration file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Mercately.BaseURL == "" {
		cfg.Mercately.BaseURL = "https://app.mercately.com/retailers/api/v1"
	}
	if cfg.Mercately.TimeoutSeconds == 0 {
		cfg.Mercately.TimeoutSeconds = 45
	}
	if cfg.Mercately.PageDelayMs == 0 {
		cfg.Mercately.PageDelayMs = 500
	}
	if cfg.Mercately.MaxRetries == 0 {
		cfg.Mercately.MaxRetries = 3
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Sync.Policy == "" {
		cfg.Sync.Policy = "accumulate_new_only"
	}
	if cfg.Sync.LookbackDays == 0 {
		cfg.Sync.LookbackDays = 7
	}
	if cfg.Checkpoint.Path == "" {
		cfg.Checkpoint.Path = "mercately_checkpoint.json"
	}
	if cfg.Checkpoint.S3Key == "" {
		cfg.Checkpoint.S3Key = "mercately/checkpoint.json"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS. A missing
// config file is not an error; defaults plus env vars are enough to run.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if os.IsNotExist(err) {
		cfg = &Config{}
		applyDefaults(cfg)
	} else if err != nil {
		return nil, err
	}

	if v := os.Getenv("MERCATELY_API_KEY"); v != "" {
		cfg.Mercately.APIKey = v
	}
	if v := os.Getenv("MERCATELY_BASE_URL"); v != "" {
		cfg.Mercately.BaseURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("SYNC_POLICY"); v != "" {
		cfg.Sync.Policy = v
	}
	if v := os.Getenv("SYNC_LOOKBACK_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SYNC_LOOKBACK_DAYS %q: %w", v, err)
		}
		cfg.Sync.LookbackDays = n
	}
	if v := os.Getenv("CHECKPOINT_PATH"); v != "" {
		cfg.Checkpoint.Path = v
	}
	if v := os.Getenv("CHECKPOINT_S3_BUCKET"); v != "" {
		cfg.Checkpoint.S3Bucket = v
	}
	if v := os.Getenv("CHECKPOINT_S3_REGION"); v != "" {
		cfg.Checkpoint.S3Region = v
	}

	return cfg, nil
}

// Validate reports configuration that would make a run fail at startup.
func (c *Config) Validate() error {
	if c.Mercately.APIKey == "" {
		return fmt.Errorf("mercately api_key is required (MERCATELY_API_KEY)")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required (DATABASE_URL)")
	}
	switch c.Sync.Policy {
	case "accumulate_new_only", "upsert_in_window":
	default:
		return fmt.Errorf("unknown sync policy %q", c.Sync.Policy)
	}
	if c.Sync.LookbackDays < 1 {
		return fmt.Errorf("lookback_days must be at least 1, got %d", c.Sync.LookbackDays)
	}
	return nil
}
