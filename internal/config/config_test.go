package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, expected 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q, expected sqlite", cfg.Database.Driver)
	}
	if cfg.Cache.FreshMinutes != 15 || cfg.Cache.RetentionMinutes != 120 {
		t.Errorf("cache windows = %d/%d, expected 15/120", cfg.Cache.FreshMinutes, cfg.Cache.RetentionMinutes)
	}
	if cfg.Aggregation.FetchTimeoutSeconds != 10 {
		t.Errorf("FetchTimeoutSeconds = %d, expected 10", cfg.Aggregation.FetchTimeoutSeconds)
	}
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  port: \"9090\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q, expected 9090", cfg.Server.Port)
	}
	if cfg.Cache.FreshMinutes != 15 {
		t.Errorf("FreshMinutes = %d, expected the default", cfg.Cache.FreshMinutes)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Setenv("SERVER_PORT", "3000")
	os.Setenv("CACHE_FRESH_MINUTES", "5")
	defer os.Unsetenv("SERVER_PORT")
	defer os.Unsetenv("CACHE_FRESH_MINUTES")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "3000" {
		t.Errorf("Port = %q, expected env override", cfg.Server.Port)
	}
	if cfg.Cache.FreshMinutes != 5 {
		t.Errorf("FreshMinutes = %d, expected env override", cfg.Cache.FreshMinutes)
	}
}

func TestParseRedisURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.parseRedisURL("redis://:secret@redis.internal:6380/2")

	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Redis.Password != "secret" {
		t.Errorf("Password = %q", cfg.Redis.Password)
	}
	if cfg.Redis.DB != 2 {
		t.Errorf("DB = %d", cfg.Redis.DB)
	}
}

func TestParseRedisURL_NoAuth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.parseRedisURL("redis://localhost:6379/0")

	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Redis.Password != "" {
		t.Errorf("Password = %q, expected empty", cfg.Redis.Password)
	}
}
