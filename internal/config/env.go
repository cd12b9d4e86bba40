// Package config loads process-wide defaults from the environment. Flags
// override every value here.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds the MICROSIM_* environment defaults.
type Env struct {
	Threads   int    `env:"MICROSIM_THREADS" envDefault:"0"`
	Jobs      int    `env:"MICROSIM_JOBS" envDefault:"1"`
	LogLevel  string `env:"MICROSIM_LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"MICROSIM_LOG_FORMAT" envDefault:"console"`
	Store     string `env:"MICROSIM_STORE"`

	OTelEndpoint string `env:"MICROSIM_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"MICROSIM_OTEL_ENABLED" envDefault:"true"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Env.
func Load() (Env, error) {
	var e Env
	err := ParseEnv(&e)
	return e, err
}
