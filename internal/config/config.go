package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.fleetdesk/config.toml.
type Config struct {
	DefaultSession string       `toml:"default_session"`
	API            APIConfig    `toml:"api"`
	Lists          ListsConfig  `toml:"lists"`
	Daemon         DaemonConfig `toml:"daemon"`
	TUI            TUIConfig    `toml:"tui"`
}

// APIConfig describes the REST backend and its realtime companion.
type APIConfig struct {
	BaseURL     string   `toml:"base_url"`
	RealtimeURL string   `toml:"realtime_url"`
	InviteURL   string   `toml:"invite_url"`
	Timeout     Duration `toml:"timeout"`
}

// ListsConfig tunes the paginated list caches.
type ListsConfig struct {
	PageSize       int      `toml:"page_size"`
	StaleAfter     Duration `toml:"stale_after"`
	SearchDebounce Duration `toml:"search_debounce"`
	EnrichWorkers  int      `toml:"enrich_workers"`
}

// DaemonConfig holds fleetd-only settings.
type DaemonConfig struct {
	MetricsAddr  string   `toml:"metrics_addr"`
	WritePoll    Duration `toml:"write_poll"`
	WriteRetries int      `toml:"write_retries"`
}

// TUIConfig holds fleettui-only settings.
type TUIConfig struct {
	RefreshEvery Duration `toml:"refresh_every"`
	MetricsAddr  string   `toml:"metrics_addr"`
	Theme        string   `toml:"theme"`
}

// Duration is a time.Duration that round-trips through TOML as "15s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080/api",
			Timeout: Duration{15 * time.Second},
		},
		Lists: ListsConfig{
			PageSize:       20,
			StaleAfter:     Duration{5 * time.Minute},
			SearchDebounce: Duration{500 * time.Millisecond},
			EnrichWorkers:  10,
		},
		Daemon: DaemonConfig{
			WritePoll:    Duration{500 * time.Millisecond},
			WriteRetries: 3,
		},
		TUI: TUIConfig{
			RefreshEvery: Duration{5 * time.Second},
		},
	}
}

// Load reads config from the given path on top of Default. Returns error if file missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load that falls back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
