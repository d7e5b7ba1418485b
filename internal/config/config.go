package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all bridge configuration.
type Config struct {
	Bridge  BridgeConfig
	Host    HostConfig
	Logging LogConfig
}

// BridgeConfig holds sandbox-side channel configuration.
type BridgeConfig struct {
	Channel        string        `envconfig:"BRIDGE_CHANNEL" default:"operaton-bridge"`
	HostURL        string        `envconfig:"BRIDGE_HOST_URL" default:"ws://localhost:8700"`
	RequestTimeout time.Duration `envconfig:"BRIDGE_REQUEST_TIMEOUT" default:"30s"`
}

// HostConfig holds host daemon configuration.
type HostConfig struct {
	Port              string `envconfig:"PORT" default:"8700"`
	Host              string `envconfig:"HOST" default:"0.0.0.0"`
	StorePath         string `envconfig:"STORE_PATH" default:"data/store.json"`
	ManifestPath      string `envconfig:"BUNDLE_MANIFEST" default:"bundles.yaml"`
	CompressThreshold int    `envconfig:"BUNDLE_COMPRESS_MIN" default:"4096"`
	RateLimitRPS      int    `envconfig:"RATE_LIMIT_RPS" default:"100"`
	RateLimitBurst    int    `envconfig:"RATE_LIMIT_BURST" default:"200"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Channel:        "operaton-bridge",
			HostURL:        "ws://localhost:8700",
			RequestTimeout: 30 * time.Second,
		},
		Host: HostConfig{
			Port:              "8700",
			Host:              "0.0.0.0",
			StorePath:         "data/store.json",
			ManifestPath:      "bundles.yaml",
			CompressThreshold: 4096,
			RateLimitRPS:      100,
			RateLimitBurst:    200,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
