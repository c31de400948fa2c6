package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aeroqualify/internal/domain/qms"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "database:\n  dsn: "+filepath.Join(t.TempDir(), "qms.sqlite")+"\n")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Cache.Driver != "sqlite" || cfg.ChangeFeed.Driver != "local" {
		t.Fatalf("drivers = %q %q %q", cfg.Database.Driver, cfg.Cache.Driver, cfg.ChangeFeed.Driver)
	}
	if cfg.CAPA.VerificationGate != string(qms.GateAdvisory) {
		t.Fatalf("verification gate = %q", cfg.CAPA.VerificationGate)
	}
	if cfg.HTTP.TokenTTL != 12*time.Hour {
		t.Fatalf("token ttl = %v", cfg.HTTP.TokenTTL)
	}
	if cfg.App.Location() != time.UTC {
		t.Fatalf("location = %v", cfg.App.Location())
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "notify:\n  driver: log\n")
	t.Setenv("AQ_NOTIFY_DRIVER", "email")
	t.Setenv("AQ_NOTIFY_TEAM_EMAILS", "a@example.com, b@example.com")
	t.Setenv("AQ_CAPA_VERIFICATION_GATE", "strict")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Notify.Driver != "email" {
		t.Fatalf("notify driver = %q", cfg.Notify.Driver)
	}
	if got := strings.Join(cfg.Notify.TeamEmails, "|"); got != "a@example.com|b@example.com" {
		t.Fatalf("team emails = %q", got)
	}
	if cfg.CAPA.VerificationGate != "strict" {
		t.Fatalf("verification gate = %q", cfg.CAPA.VerificationGate)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("Load() error = nil, want missing file error")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		App:      AppConfig{Timezone: "UTC"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "qms.sqlite"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cases := map[string]func(c *Config){
		"blank dsn":        func(c *Config) { c.Database.DSN = " " },
		"unknown gate":     func(c *Config) { c.CAPA.VerificationGate = "lenient" },
		"bad timezone":     func(c *Config) { c.App.Timezone = "Mars/Olympus" },
		"redis no url":     func(c *Config) { c.Cache.Driver = "redis" },
		"nats no url":      func(c *Config) { c.ChangeFeed.Driver = "nats" },
		"unknown notifier": func(c *Config) { c.Notify.Driver = "pager" },
	}
	for name, mutate := range cases {
		cfg := valid
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: Validate() error = nil", name)
		}
	}
}
