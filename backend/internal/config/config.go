package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config is read from the environment.
type Config struct {
	BackendURL      string        `env:"BACKEND_URL,required"`     // e.g. "http://localhost:3000"
	Port            string        `env:"PORT" envDefault:"8080"`
	CORSOrigin      string        `env:"CORS_ORIGIN" envDefault:"*"`
	StartingBalance float64       `env:"STARTING_BALANCE" envDefault:"10000"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute http(s) URL, got %q", c.BackendURL)
	}
	if c.StartingBalance < 0 {
		return fmt.Errorf("STARTING_BALANCE cannot be negative: %v", c.StartingBalance)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be greater than 0")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	return nil
}

// ListenAddr is the address passed to the HTTP server.
func (c Config) ListenAddr() string {
	return ":" + c.Port
}
