package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// ClientConfig is what the API client needs to reach the backend.
type ClientConfig struct {
	Environment Environment
	BaseURL     string
	Timeout     time.Duration
}

var clientProfiles = map[Environment]ClientConfig{
	EnvDevelopment: {
		Environment: EnvDevelopment,
		BaseURL:     "http://localhost:8787",
		Timeout:     30 * time.Second,
	},
	EnvStaging: {
		Environment: EnvStaging,
		BaseURL:     "https://api.kjmin-dev-cf-playground.workers.dev",
		Timeout:     15 * time.Second,
	},
	EnvProduction: {
		Environment: EnvProduction,
		BaseURL:     "https://api.kjmin-dev-cf-playground.workers.dev",
		Timeout:     10 * time.Second,
	},
}

// ParseEnvironment maps anything other than staging/production to
// development.
func ParseEnvironment(value string) Environment {
	switch Environment(strings.ToLower(strings.TrimSpace(value))) {
	case EnvStaging:
		return EnvStaging
	case EnvProduction:
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

// ClientProfile returns the built-in defaults for env.
func ClientProfile(env Environment) ClientConfig {
	profile, ok := clientProfiles[env]
	if !ok {
		return clientProfiles[EnvDevelopment]
	}
	return profile
}

// LoadClient picks the profile named by TODO_APP_ENV (or envOverride when
// non-empty) and applies TODO_API_HOST / TODO_API_TIMEOUT.
func LoadClient(envOverride string) (ClientConfig, error) {
	name := envOverride
	if name == "" {
		name = os.Getenv("TODO_APP_ENV")
	}
	cfg := ClientProfile(ParseEnvironment(name))

	cfg.BaseURL = getEnv("TODO_API_HOST", cfg.BaseURL)
	if value := os.Getenv("TODO_API_TIMEOUT"); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return ClientConfig{}, fmt.Errorf("invalid TODO_API_TIMEOUT: %w", err)
		}
		cfg.Timeout = parsed
	}
	if cfg.Timeout <= 0 {
		return ClientConfig{}, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	return cfg, nil
}
