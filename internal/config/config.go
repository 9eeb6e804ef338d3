// Package config loads harvester settings from the environment, with an
// optional .env file for local runs.
package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrMissingCredentials indicates the authenticated collector was selected
// without a full reddit API credential set.
var ErrMissingCredentials = errors.New("missing reddit API credentials")

// Credentials holds the reddit API credential set. UserAgent is also used
// by the unauthenticated public client.
type Credentials struct {
	ClientID     string `envconfig:"REDDIT_CLIENT_ID"`
	ClientSecret string `envconfig:"REDDIT_CLIENT_SECRET"`
	Username     string `envconfig:"REDDIT_USERNAME"`
	Password     string `envconfig:"REDDIT_PASSWORD"`
	UserAgent    string `envconfig:"REDDIT_USER_AGENT"`
}

// Config is the environment-driven part of the harvester configuration;
// everything run-specific comes from flags.
type Config struct {
	Credentials
	Mode string `envconfig:"COLLECTOR_MODE" default:"public"`
}

// Load reads envFile if it exists (missing files are fine) and then the
// process environment.
func Load(envFile string) (*Config, error) {
	_ = godotenv.Load(envFile)
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &cfg, nil
}

// ValidateForAPI checks the fields the authenticated client requires.
func (c Credentials) ValidateForAPI() error {
	if c.ClientID == "" || c.ClientSecret == "" || c.UserAgent == "" {
		return fmt.Errorf("%w: set REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET and REDDIT_USER_AGENT", ErrMissingCredentials)
	}
	return nil
}
