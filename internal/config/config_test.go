package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Bind == "" || cfg.API.BaseURL == "" {
		t.Errorf("defaults not populated: %+v", cfg)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  bind: "0.0.0.0:9000"
api:
  base_url: "https://sync.example.com"
  token: "sekrit"
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Bind != "0.0.0.0:9000" {
		t.Errorf("bind = %q", cfg.Server.Bind)
	}
	if cfg.API.BaseURL != "https://sync.example.com" || cfg.API.Token != "sekrit" {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
	// untouched fields keep their defaults
	if cfg.Server.StorePath == "" {
		t.Error("store_path default lost")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":::not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults ok", func(c *Config) {}, false},
		{"empty bind", func(c *Config) { c.Server.Bind = "" }, true},
		{"empty store path", func(c *Config) { c.Server.StorePath = "" }, true},
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }, true},
		{"non-http base url", func(c *Config) { c.API.BaseURL = "ftp://x" }, true},
		{"file output without file", func(c *Config) { c.Logging.Output = "file" }, true},
		{"file output with file", func(c *Config) { c.Logging.Output = "file"; c.Logging.File = "/tmp/t.log" }, false},
		{"bad output", func(c *Config) { c.Logging.Output = "syslog" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
