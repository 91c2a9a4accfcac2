package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8082" {
		t.Fatalf("Port = %s, want 8082", cfg.Port)
	}
	if cfg.SQLiteDBPath != "./data/buchhaltung.db" {
		t.Fatalf("SQLiteDBPath = %s", cfg.SQLiteDBPath)
	}
	if cfg.MaxUploadSize != 16<<20 {
		t.Fatalf("MaxUploadSize = %d", cfg.MaxUploadSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SQLITE_DB_PATH", "/tmp/test.db")
	t.Setenv("MIRROR_INTERVAL", "2m")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Fatalf("Port = %s, want 9000", cfg.Port)
	}
	if cfg.SQLiteDBPath != "/tmp/test.db" {
		t.Fatalf("SQLiteDBPath = %s", cfg.SQLiteDBPath)
	}
	if cfg.MirrorInterval != 2*time.Minute {
		t.Fatalf("MirrorInterval = %v", cfg.MirrorInterval)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"non-numeric port", func(c *Config) { c.Port = "http" }},
		{"port out of range", func(c *Config) { c.Port = "70000" }},
		{"empty db path", func(c *Config) { c.SQLiteDBPath = " " }},
		{"zero upload size", func(c *Config) { c.MaxUploadSize = 0 }},
		{"tiny mirror interval", func(c *Config) { c.MirrorInterval = 10 * time.Millisecond }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Load()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
