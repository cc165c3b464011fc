package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8085 {
		t.Errorf("Port = %d, want default 8085", cfg.Server.Port)
	}
	if cfg.Billing.Plan != "free" {
		t.Errorf("Plan = %q, want free", cfg.Billing.Plan)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ringflow.yml")
	doc := []byte("server:\n  port: 9090\n  base_url: https://voice.example.com\ntelephony:\n  account_sid: AC123\n")
	if err := os.WriteFile(path, doc, 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.BaseURL != "https://voice.example.com" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Telephony.AccountSID != "AC123" {
		t.Errorf("AccountSID = %q", cfg.Telephony.AccountSID)
	}
	// Unset fields keep their defaults.
	if cfg.Database.Path != ".ringflow/ringflow.db" {
		t.Errorf("Path = %q, want default", cfg.Database.Path)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RINGFLOW_SERVER_PORT", "7070")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want env override 7070", cfg.Server.Port)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ringflow.yml")

	cfg := DefaultConfig()
	cfg.Server.Port = 9191
	cfg.Telephony.AccountSID = "AC456"
	cfg.Billing.Plan = "starter"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Server.Port != 9191 || got.Telephony.AccountSID != "AC456" || got.Billing.Plan != "starter" {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestValidate(t *testing.T) {
	good := DefaultConfig()
	if err := good.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"missing base url", func(c *Config) { c.Server.BaseURL = "" }},
		{"missing db path", func(c *Config) { c.Database.Path = "" }},
		{"missing telephony url", func(c *Config) { c.Telephony.BaseURL = "" }},
		{"unknown plan", func(c *Config) { c.Billing.Plan = "platinum" }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want error", tc.name)
		}
	}
}
