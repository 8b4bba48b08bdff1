package proxiedamp

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultScheme           = "https"
	DefaultHeaderName       = "Cloudfront-Forwarded-Proto"
	DefaultValidateQueryVar = "amp_validate"
	DefaultDevModeHandle    = "query-monitor"
)

// Config holds the settings read from the environment.
type Config struct {
	// Scheme is the value sent in HeaderName on rewritten loopback requests.
	Scheme string `env:"PROXIEDAMP_SCHEME" envDefault:"https"`
	// HeaderName carries the original scheme to the origin.
	HeaderName string `env:"PROXIEDAMP_HEADER_NAME" envDefault:"Cloudfront-Forwarded-Proto"`
	// ValidateQueryVar marks a URL as an AMP validation request.
	ValidateQueryVar string `env:"PROXIEDAMP_VALIDATE_QUERY_VAR" envDefault:"amp_validate"`
	// DevModeHandle is the toolbar asset whose dependency chain is exempted.
	DevModeHandle string `env:"PROXIEDAMP_DEVMODE_HANDLE" envDefault:"query-monitor"`
	// ExtraXPaths are appended to the built-in dev-mode rules.
	ExtraXPaths []string `env:"PROXIEDAMP_EXTRA_XPATHS" envSeparator:";"`
	LogRequests bool     `env:"LOG_REQUESTS"`
}

// DefaultConfig returns the built-in settings without consulting the environment.
func DefaultConfig() Config {
	return Config{
		Scheme:           DefaultScheme,
		HeaderName:       DefaultHeaderName,
		ValidateQueryVar: DefaultValidateQueryVar,
		DevModeHandle:    DefaultDevModeHandle,
	}
}

// LoadConfig reads Config from environment variables, falling back to the defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.withDefaults(), nil
}

// withDefaults fills fields left empty, e.g. PROXIEDAMP_SCHEME="".
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Scheme == "" {
		c.Scheme = d.Scheme
	}
	if c.HeaderName == "" {
		c.HeaderName = d.HeaderName
	}
	if c.ValidateQueryVar == "" {
		c.ValidateQueryVar = d.ValidateQueryVar
	}
	if c.DevModeHandle == "" {
		c.DevModeHandle = d.DevModeHandle
	}
	return c
}
