package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the runtime configuration, populated from the environment.
type Config struct {
	// ProxyURL is the base URL of the backend proxy.
	ProxyURL string `env:"DRIVEWAY_PROXY_URL,required"`

	// RootFolderID is the folder id the browser is rooted at.
	RootFolderID string `env:"DRIVEWAY_ROOT_FOLDER_ID" envDefault:"root"`

	// RootFolderName is the display name used for the root crumb until
	// the proxy resolves the real one.
	RootFolderName string `env:"DRIVEWAY_ROOT_FOLDER_NAME" envDefault:"My Drive"`

	// HTTPTimeout bounds each proxy request.
	HTTPTimeout time.Duration `env:"DRIVEWAY_HTTP_TIMEOUT" envDefault:"30s"`

	// StateDir is where consumed-code markers are persisted. When empty
	// the markers are kept in memory only.
	StateDir string `env:"DRIVEWAY_STATE_DIR"`

	// Environment selects the log format: "production" logs JSON,
	// anything else logs text.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Debug enables debug-level logging.
	Debug bool `env:"DRIVEWAY_DEBUG"`

	// MetricsEnabled turns the metrics endpoint on.
	MetricsEnabled bool `env:"METRICS_ENABLED"`

	// MetricsAddr is the listen address of the metrics endpoint.
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
}

// Load reads the configuration from the environment, preceded by a best
// effort load of a local .env file.
func Load() (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks constraints the env tags cannot express.
func (c *Config) Validate() error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}
	if c.MetricsEnabled && c.MetricsAddr == "" {
		return fmt.Errorf("metrics address must be set when metrics are enabled")
	}
	return nil
}
