package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names recognized by ApplyEnv.
const (
	EnvAPIURL      = "FLEETDESK_API_URL"
	EnvRealtimeURL = "FLEETDESK_REALTIME_URL"
	EnvInviteURL   = "FLEETDESK_INVITE_URL"
	EnvTimeout     = "FLEETDESK_TIMEOUT"
	EnvMetricsAddr = "FLEETDESK_METRICS_ADDR"
	EnvToken       = "FLEETDESK_TOKEN"
)

// LoadDotEnv loads the given .env files into the process environment.
// Files that do not exist are skipped; variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnv overrides file values with FLEETDESK_* variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvRealtimeURL); v != "" {
		c.API.RealtimeURL = v
	}
	if v := os.Getenv(EnvInviteURL); v != "" {
		c.API.InviteURL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.API.Timeout = Duration{d}
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		c.Daemon.MetricsAddr = v
	}
	return nil
}

// TokenFromEnv returns the bootstrap bearer token from the environment, if any.
func TokenFromEnv() string {
	return os.Getenv(EnvToken)
}
