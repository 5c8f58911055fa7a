package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"provisioning-portal/internal/logger"
)

// DefaultPipelineBaseURL is the organization placeholder used until a real
// pipeline host is configured.
const DefaultPipelineBaseURL = "https://dev.azure.com/your-organization"

// Config represents the portal runtime configuration
type Config struct {
	// Pipeline holds everything the pipeline client needs.
	Pipeline PipelineConfig

	Addr              string        `env:"PORTAL_ADDR"                envDefault:":5090"`
	SuccessResetDelay time.Duration `env:"PORTAL_SUCCESS_RESET_DELAY" envDefault:"3s"`
	CatalogFile       string        `env:"PORTAL_CATALOG_FILE"`
	LogLevel          string        `env:"PORTAL_LOG_LEVEL"           envDefault:"info"`
	OTelEndpoint      string        `env:"PORTAL_OTEL_ENDPOINT"`
}

// PipelineConfig represents the connection settings for the remote pipeline system
type PipelineConfig struct {
	BaseURL string        `env:"PORTAL_PIPELINE_BASE_URL" envDefault:"https://dev.azure.com/your-organization"`
	Token   string        `env:"AZURE_DEVOPS_TOKEN"`
	Timeout time.Duration `env:"PORTAL_PIPELINE_TIMEOUT"  envDefault:"0s"`
}

// Load reads the configuration from the process environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that env parsing alone cannot.
func (c Config) Validate() error {
	u, err := url.Parse(c.Pipeline.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid pipeline base URL %q: %w", c.Pipeline.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("pipeline base URL %q must be an absolute http(s) URL", c.Pipeline.BaseURL)
	}
	if c.Pipeline.Timeout < 0 {
		return fmt.Errorf("pipeline timeout must not be negative, got %s", c.Pipeline.Timeout)
	}
	if c.SuccessResetDelay <= 0 {
		return fmt.Errorf("success reset delay must be positive, got %s", c.SuccessResetDelay)
	}
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("listen address is required")
	}
	if err := logger.ValidateLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
