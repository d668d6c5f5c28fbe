package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tracksync/tracksync/internal/consts"
)

type (
	Config struct {
		Server  ServerConfig  `yaml:"server"`
		API     APIConfig     `yaml:"api"`
		Logging LoggingConfig `yaml:"logging"`
	}

	// ServerConfig drives `tracksync serve`.
	ServerConfig struct {
		Bind        string `yaml:"bind"`
		MetricsBind string `yaml:"metrics_bind"`
		StorePath   string `yaml:"store_path"`
		AuditPath   string `yaml:"audit_path"`
		Token       string `yaml:"token"`
	}

	// APIConfig drives the schedule editor commands.
	APIConfig struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
	}

	LoggingConfig struct {
		Level      string `yaml:"level"`  // debug, info, warn, error
		Format     string `yaml:"format"` // json, text
		Output     string `yaml:"output"` // stdout, file, both
		File       string `yaml:"file"`
		MaxSize    int    `yaml:"max_size"` // MB
		MaxBackups int    `yaml:"max_backups"`
		MaxAge     int    `yaml:"max_age"` // days
	}
)

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Bind:        "127.0.0.1:8420",
			MetricsBind: "127.0.0.1:9420",
			StorePath:   consts.DefaultSchedulePath(),
			AuditPath:   consts.DefaultAuditLogPath(),
		},
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8420",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads and validates the config file at path. A missing file yields the
// defaults so the editor works against a locally running service out of the
// box.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Bind) == "" {
		return fmt.Errorf("server.bind is required")
	}
	if strings.TrimSpace(c.Server.StorePath) == "" {
		return fmt.Errorf("server.store_path is required")
	}
	base := strings.TrimSpace(c.API.BaseURL)
	if base == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", base)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Output)) {
	case "", "stdout":
	case "file", "both":
		if strings.TrimSpace(c.Logging.File) == "" {
			return fmt.Errorf("logging.file is required when logging.output includes file")
		}
	default:
		return fmt.Errorf("logging.output must be stdout, file, or both")
	}
	return nil
}
