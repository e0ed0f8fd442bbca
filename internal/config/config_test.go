package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultSession = "dispatch"
	cfg.API.BaseURL = "https://fleet.example.com/api"
	cfg.Lists.StaleAfter = Duration{2 * time.Minute}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultSession != "dispatch" {
		t.Errorf("DefaultSession = %q, want %q", loaded.DefaultSession, "dispatch")
	}
	if loaded.API.BaseURL != "https://fleet.example.com/api" {
		t.Errorf("BaseURL = %q", loaded.API.BaseURL)
	}
	if loaded.Lists.StaleAfter.Duration != 2*time.Minute {
		t.Errorf("StaleAfter = %v, want 2m", loaded.Lists.StaleAfter.Duration)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadOrDefaultMissing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Lists.PageSize != 20 {
		t.Errorf("PageSize = %d, want 20", cfg.Lists.PageSize)
	}
	if cfg.Lists.SearchDebounce.Duration != 500*time.Millisecond {
		t.Errorf("SearchDebounce = %v, want 500ms", cfg.Lists.SearchDebounce.Duration)
	}
}

func TestLoadKeepsDefaultsForOmittedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[api]\nbase_url = \"https://api.test\"\ntimeout = \"3s\"\n[tui]\ntheme = \"light\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.Timeout.Duration != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.API.Timeout.Duration)
	}
	if cfg.Lists.StaleAfter.Duration != 5*time.Minute {
		t.Errorf("StaleAfter = %v, want default 5m", cfg.Lists.StaleAfter.Duration)
	}
	if cfg.Lists.EnrichWorkers != 10 {
		t.Errorf("EnrichWorkers = %d, want 10", cfg.Lists.EnrichWorkers)
	}
	if cfg.TUI.Theme != "light" || cfg.TUI.RefreshEvery.Duration != 5*time.Second {
		t.Errorf("TUI = %+v, want light theme with default refresh", cfg.TUI)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[lists]\nstale_after = \"soon\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid duration")
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAPIURL, "https://env.example.com")
	t.Setenv(EnvRealtimeURL, "wss://env.example.com/ws")
	t.Setenv(EnvTimeout, "7s")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "https://env.example.com" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.RealtimeURL != "wss://env.example.com/ws" {
		t.Errorf("RealtimeURL = %q", cfg.API.RealtimeURL)
	}
	if cfg.API.Timeout.Duration != 7*time.Second {
		t.Errorf("Timeout = %v, want 7s", cfg.API.Timeout.Duration)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("FLEETDESK_INVITE_URL=https://invite.test\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvInviteURL, "")
	_ = os.Unsetenv(EnvInviteURL)

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatal(err)
	}
	if cfg.API.InviteURL != "https://invite.test" {
		t.Errorf("InviteURL = %q, want https://invite.test", cfg.API.InviteURL)
	}
}
