// Package config provides configuration management for wtx.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the wtx configuration.
type Config struct {
	LangCode      string `yaml:"lang_code"`
	Project       string `yaml:"project,omitempty"`
	ServerURL     string `yaml:"server_url,omitempty"`
	PagesDir      string `yaml:"pages_dir,omitempty"`
	NamespaceFile string `yaml:"namespace_file,omitempty"`
	OutputFormat  string `yaml:"output_format,omitempty"`
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	if c.LangCode == "" {
		return errors.New("lang_code is required")
	}
	if c.ServerURL != "" && !strings.HasPrefix(c.ServerURL, "https://") && !strings.HasPrefix(c.ServerURL, "http://") {
		return errors.New("server_url must be an http(s) URL")
	}
	return nil
}

// NormalizeServerURL strips a trailing slash from the server URL.
func (c *Config) NormalizeServerURL() {
	c.ServerURL = strings.TrimSuffix(c.ServerURL, "/")
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables override existing values only if set and non-empty.
func (c *Config) LoadFromEnv() {
	if lang := os.Getenv("WTX_LANG_CODE"); lang != "" {
		c.LangCode = lang
	}
	if project := os.Getenv("WTX_PROJECT"); project != "" {
		c.Project = project
	}
	if server := os.Getenv("WTX_SERVER_URL"); server != "" {
		c.ServerURL = server
	}
	if dir := os.Getenv("WTX_PAGES_DIR"); dir != "" {
		c.PagesDir = dir
	}
	if file := os.Getenv("WTX_NAMESPACE_FILE"); file != "" {
		c.NamespaceFile = file
	}
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	// Try XDG config directory first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "wtx", "config.yml")
	}

	// Fall back to ~/.config/wtx/config.yml
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".wtx", "config.yml")
	}

	return filepath.Join(home, ".config", "wtx", "config.yml")
}

// Save writes the configuration to the specified path.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with restricted permissions (user read/write only)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load reads the configuration from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnv loads configuration from file and overrides with environment variables.
// A missing file yields the built-in defaults.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		// If file doesn't exist, start with defaults
		cfg = &Config{LangCode: "en", Project: "wikipedia"}
	}

	cfg.LoadFromEnv()
	return cfg, nil
}
