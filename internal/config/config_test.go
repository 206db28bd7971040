package config

import (
	"testing"
	"time"
)

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_AppliesDefaults(t *testing.T) {
	c := Config{
		App:     AppConfig{Env: "local"},
		Backend: BackendConfig{BaseServer: "https://sso.example.com"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Backend.BaseAPI != "/api" {
		t.Fatalf("expected /api default, got %q", c.Backend.BaseAPI)
	}
	if c.HTTP.Timeout != 50*time.Second {
		t.Fatalf("expected 50s timeout, got %s", c.HTTP.Timeout)
	}
	if c.Storage.Driver != DriverMemory {
		t.Fatalf("expected memory driver, got %q", c.Storage.Driver)
	}
	if c.App.Origin != "http://localhost:8173" {
		t.Fatalf("unexpected origin %q", c.App.Origin)
	}
	if c.App.Title != "Breeze-Vite-UI" {
		t.Fatalf("unexpected title %q", c.App.Title)
	}
}

func TestValidate_RedisDriverRequiresHost(t *testing.T) {
	c := Config{
		App:     AppConfig{Env: "local"},
		Backend: BackendConfig{BaseServer: "https://sso.example.com"},
		Storage: StorageConfig{Driver: DriverRedis},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for redis driver without REDIS_HOST")
	}
}

func TestValidate_SQLiteDriverRequiresPath(t *testing.T) {
	c := Config{
		App:     AppConfig{Env: "local"},
		Backend: BackendConfig{BaseServer: "https://sso.example.com"},
		Storage: StorageConfig{Driver: DriverSQLite},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for sqlite driver without STORAGE_SQLITE_PATH")
	}
	c.Storage.SQLitePath = ":memory:"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_ProductionPostgresRequiresSSLMode(t *testing.T) {
	c := Config{
		App:     AppConfig{Env: "production"},
		Backend: BackendConfig{BaseServer: "https://sso.example.com"},
		Storage: StorageConfig{Driver: DriverPostgres},
		DB:      DBConfig{Host: "localhost", User: "postgres", Name: "console"},
		Bridge:  BridgeConfig{Secret: "secret"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalPostgresDefaultsSSLMode(t *testing.T) {
	c := Config{
		App:     AppConfig{Env: "local"},
		Backend: BackendConfig{BaseServer: "https://sso.example.com"},
		Storage: StorageConfig{Driver: DriverPostgres},
		DB:      DBConfig{Host: "localhost", User: "postgres", Name: "console"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" || c.DB.Port != 5432 {
		t.Fatalf("expected sslmode disable and port 5432, got %q %d", c.DB.SSLMode, c.DB.Port)
	}
}

func TestLogoutURL_DevelopmentSkipsAPIPrefix(t *testing.T) {
	c := Config{
		App:     AppConfig{Env: "dev"},
		Backend: BackendConfig{BaseServer: "https://sso.example.com", BaseAPI: "/api"},
	}
	if got := c.LogoutURL(); got != "https://sso.example.com/sso/logout" {
		t.Fatalf("unexpected dev logout url %q", got)
	}
	c.App.Env = "production"
	if got := c.LogoutURL(); got != "https://sso.example.com/api/sso/logout" {
		t.Fatalf("unexpected production logout url %q", got)
	}
}
