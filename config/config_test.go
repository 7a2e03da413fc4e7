package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Database.Host != "localhost" {
		t.Errorf("Host: got %q, want %q", cfg.Database.Host, "localhost")
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Port: got %d, want 5432", cfg.Database.Port)
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("MaxConns: got %d, want 25", cfg.Database.MaxConns)
	}
	if cfg.Database.MaxConnLifetime != 5*time.Minute {
		t.Errorf("MaxConnLifetime: got %v, want 5m", cfg.Database.MaxConnLifetime)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel: got %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("DB_PASSWORD", "test")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("DB_MAX_CONN_LIFETIME", "10m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Database.Host != "db.internal" {
		t.Errorf("Host: got %q, want %q", cfg.Database.Host, "db.internal")
	}
	if cfg.Database.Port != 6432 {
		t.Errorf("Port: got %d, want 6432", cfg.Database.Port)
	}
	if cfg.Database.MaxConnLifetime != 10*time.Minute {
		t.Errorf("MaxConnLifetime: got %v, want 10m", cfg.Database.MaxConnLifetime)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_MissingPassword(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want validation error")
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("DB_PASSWORD", "test")
	t.Setenv("DB_PORT", "70000")

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want validation error")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("DB_PASSWORD", "test")
	t.Setenv("LOG_LEVEL", "loud")

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want validation error")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		Name:     "docident",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()
	for _, want := range []string{"host=localhost", "port=5432", "dbname=docident", "sslmode=disable"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN missing %q: %s", want, dsn)
		}
	}
}
