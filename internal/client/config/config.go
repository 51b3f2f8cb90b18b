package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds all configuration for the client SDK.
type Config struct {
	// BaseURL is the screening backend the SDK talks to.
	BaseURL        string        `env:"LUNGSCREEN_API_URL" envDefault:"http://localhost:5000"`
	RequestTimeout time.Duration `env:"LUNGSCREEN_REQUEST_TIMEOUT" envDefault:"30s"`

	// SessionFile is where the token and profile are persisted between runs.
	SessionFile string `env:"LUNGSCREEN_SESSION_FILE" envDefault:".lungscreen_session.json"`

	// Signup validation rules. Institutions configure these; nothing is
	// hard-coded in the SDK.
	RequiredEmailDomain   string `env:"LUNGSCREEN_EMAIL_DOMAIN" envDefault:""`
	PasswordRequiresDigit bool   `env:"LUNGSCREEN_PASSWORD_REQUIRES_DIGIT" envDefault:"false"`
}

// LoadConfig loads client configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
