package session

import (
	"os"

	"github.com/matheus3301/fleetdesk/internal/config"
)

const DefaultSessionName = "main"

// Resolve determines the active session name using precedence:
// 1. flagOverride (--session flag)
// 2. $FLEETDESK_SESSION
// 3. config.toml default_session
// 4. "main"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	if v := os.Getenv("FLEETDESK_SESSION"); v != "" {
		return v
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultSession != "" {
		return cfg.DefaultSession
	}
	return DefaultSessionName
}

// LoadConfig reads the global config, then the session's .env file and the
// process environment on top of it.
func LoadConfig(name string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(ConfigPath())
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(EnvPath(name), ".env"); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
