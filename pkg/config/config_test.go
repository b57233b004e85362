package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("expected default port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Provider.Type != "whatsmeow" {
		t.Errorf("expected default provider whatsmeow, got %s", cfg.Provider.Type)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("expected default storage memory, got %s", cfg.Storage.Type)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default level info, got %s", cfg.Logging.Level)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("Load with missing file should fall back to defaults: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: 127.0.0.1
  port: 8088
provider:
  type: simulated
storage:
  type: redis
  redis:
    address: redis:6379
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 8088 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Provider.Type != "simulated" {
		t.Errorf("expected provider simulated, got %s", cfg.Provider.Type)
	}
	if cfg.Storage.Type != "redis" || cfg.Storage.Redis.Address != "redis:6379" {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("WA_SERVER_PORT", "9000")
	t.Setenv("WA_PROVIDER_TYPE", "simulated")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected env port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Provider.Type != "simulated" {
		t.Errorf("expected env provider simulated, got %s", cfg.Provider.Type)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config { return defaultConfig() }

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	cfg = base()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for port 0")
	}

	cfg = base()
	cfg.Provider.Type = "imaginary"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown provider type")
	}

	cfg = base()
	cfg.Storage.Type = "cassandra"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown storage type")
	}

	cfg = base()
	cfg.Storage.Type = "mongodb"
	cfg.Storage.MongoDB.URI = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for mongodb without uri")
	}

	cfg = base()
	cfg.Auth.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for auth without credentials")
	}
}

func TestServerAddress(t *testing.T) {
	sc := ServerConfig{Host: "0.0.0.0", Port: 3000}
	if got := sc.Address(); got != "0.0.0.0:3000" {
		t.Errorf("Address() = %q", got)
	}
}
