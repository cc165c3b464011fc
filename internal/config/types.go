package config

// Config is the top-level ringflow configuration, corresponding to
// .ringflow.yml.
type Config struct {
	Server    ServerConfig    `yaml:"server" koanf:"server"`
	Database  DatabaseConfig  `yaml:"database" koanf:"database"`
	Telephony TelephonyConfig `yaml:"telephony" koanf:"telephony"`
	Billing   BillingConfig   `yaml:"billing" koanf:"billing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port" koanf:"port"`
	// BaseURL is the externally reachable URL of this service; the
	// telephony provider calls webhooks under it.
	BaseURL  string `yaml:"base_url" koanf:"base_url"`
	AllowAll bool   `yaml:"allow_all_cors" koanf:"allow_all_cors"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path" koanf:"path"`
}

// TelephonyConfig holds the provider account credentials.
type TelephonyConfig struct {
	BaseURL    string `yaml:"base_url" koanf:"base_url"`
	AccountSID string `yaml:"account_sid" koanf:"account_sid"`
	AuthToken  string `yaml:"auth_token" koanf:"auth_token"`
}

// BillingConfig selects how user plans are resolved.
type BillingConfig struct {
	// Plan pins every user to one plan when no billing provider is
	// wired up (single-tenant deployments, tests).
	Plan string `yaml:"plan" koanf:"plan"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    8085,
			BaseURL: "http://localhost:8085",
		},
		Database: DatabaseConfig{
			Path: ".ringflow/ringflow.db",
		},
		Telephony: TelephonyConfig{
			BaseURL: "https://api.twilio.com",
		},
		Billing: BillingConfig{
			Plan: "free",
		},
	}
}
