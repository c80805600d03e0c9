package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Graph struct {
	BaseURL string        `env:"GRAPH_BASE_URL" envDefault:"https://graph.facebook.com"`
	Version string        `env:"GRAPH_API_VERSION" envDefault:"v24.0"`
	Timeout time.Duration `env:"GRAPH_HTTP_TIMEOUT" envDefault:"2m"`
}

type Facebook struct {
	PageID      string `env:"FB_PAGE_ID"`
	AccessToken string `env:"FB_PAGE_ACCESS_TOKEN"`
}

type Instagram struct {
	UserID       string        `env:"IG_USER_ID"`
	AccessToken  string        `env:"IG_ACCESS_TOKEN"`
	PollInterval time.Duration `env:"IG_CONTAINER_POLL_INTERVAL" envDefault:"5s"`
	PollAttempts int           `env:"IG_CONTAINER_POLL_ATTEMPTS" envDefault:"60"`
}

type R2 struct {
	AccountID  string `env:"R2_ACCOUNT_ID"`
	AccessKey  string `env:"R2_ACCESS_KEY"`
	SecretKey  string `env:"R2_SECRET_KEY"`
	BucketName string `env:"R2_BUCKET_NAME"`
	// PublicURL is the base under which uploaded objects are publicly readable.
	PublicURL string `env:"R2_PUBLIC_URL"`
}

type Scheduler struct {
	CheckInterval time.Duration `env:"CHECK_INTERVAL" envDefault:"60s"`
}

type Staging struct {
	UploadDir      string        `env:"UPLOAD_DIR" envDefault:"./uploads"`
	Retention      time.Duration `env:"STAGING_RETENTION" envDefault:"24h"`
	SweepSpec      string        `env:"STAGING_SWEEP_SPEC" envDefault:"@every 1h"`
	MaxUploadBytes int           `env:"MAX_UPLOAD_BYTES" envDefault:"104857600"`
}

type Config struct {
	PostgresURI string `env:"POSTGRES_URI"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":3000"`
	Graph       Graph
	Facebook    Facebook
	Instagram   Instagram
	R2          R2
	Scheduler   Scheduler
	Staging     Staging
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.Scheduler.CheckInterval <= 0 {
		return nil, fmt.Errorf("CHECK_INTERVAL must be positive, got %s", cfg.Scheduler.CheckInterval)
	}
	return cfg, nil
}
