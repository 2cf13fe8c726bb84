package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			config: Config{
				LangCode: "en",
				Project:  "wikipedia",
			},
			wantErr: false,
		},
		{
			name: "valid config with server",
			config: Config{
				LangCode:  "de",
				ServerURL: "https://de.wikipedia.org",
			},
			wantErr: false,
		},
		{
			name:    "missing lang code",
			config:  Config{Project: "wiktionary"},
			wantErr: true,
			errMsg:  "lang_code is required",
		},
		{
			name: "invalid server URL scheme",
			config: Config{
				LangCode:  "en",
				ServerURL: "ftp://en.wikipedia.org",
			},
			wantErr: true,
			errMsg:  "server_url must be an http(s) URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_NormalizeServerURL(t *testing.T) {
	cfg := Config{ServerURL: "https://en.wikipedia.org/"}
	cfg.NormalizeServerURL()
	assert.Equal(t, "https://en.wikipedia.org", cfg.ServerURL)

	cfg = Config{ServerURL: "https://en.wikipedia.org"}
	cfg.NormalizeServerURL()
	assert.Equal(t, "https://en.wikipedia.org", cfg.ServerURL)
}

func TestConfig_LoadFromEnv(t *testing.T) {
	// Save original env vars
	origLang := os.Getenv("WTX_LANG_CODE")
	origProject := os.Getenv("WTX_PROJECT")
	origServer := os.Getenv("WTX_SERVER_URL")
	origDir := os.Getenv("WTX_PAGES_DIR")

	// Cleanup
	defer func() {
		_ = os.Setenv("WTX_LANG_CODE", origLang)
		_ = os.Setenv("WTX_PROJECT", origProject)
		_ = os.Setenv("WTX_SERVER_URL", origServer)
		_ = os.Setenv("WTX_PAGES_DIR", origDir)
	}()

	t.Run("loads all env vars", func(t *testing.T) {
		_ = os.Setenv("WTX_LANG_CODE", "fr")
		_ = os.Setenv("WTX_PROJECT", "wiktionary")
		_ = os.Setenv("WTX_SERVER_URL", "https://fr.wiktionary.org")
		_ = os.Setenv("WTX_PAGES_DIR", "/tmp/pages")

		cfg := &Config{}
		cfg.LoadFromEnv()

		assert.Equal(t, "fr", cfg.LangCode)
		assert.Equal(t, "wiktionary", cfg.Project)
		assert.Equal(t, "https://fr.wiktionary.org", cfg.ServerURL)
		assert.Equal(t, "/tmp/pages", cfg.PagesDir)
	})

	t.Run("env vars override existing values", func(t *testing.T) {
		_ = os.Setenv("WTX_LANG_CODE", "es")
		_ = os.Setenv("WTX_PROJECT", "")
		_ = os.Setenv("WTX_SERVER_URL", "")
		_ = os.Setenv("WTX_PAGES_DIR", "")

		cfg := &Config{
			LangCode: "en",
			Project:  "wikipedia",
		}
		cfg.LoadFromEnv()

		// Lang code should be overridden
		assert.Equal(t, "es", cfg.LangCode)
		// Project should remain (empty env var doesn't override)
		assert.Equal(t, "wikipedia", cfg.Project)
	})
}

func TestDefaultConfigPath(t *testing.T) {
	origXDG := os.Getenv("XDG_CONFIG_HOME")
	defer func() { _ = os.Setenv("XDG_CONFIG_HOME", origXDG) }()
	os.Unsetenv("XDG_CONFIG_HOME")

	path := DefaultConfigPath()

	// Should be under home directory
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(path, home))
	assert.Contains(t, path, "wtx")
	assert.True(t, filepath.Ext(path) == ".yml" || filepath.Ext(path) == ".yaml")
}

func TestDefaultConfigPath_XDG(t *testing.T) {
	origXDG := os.Getenv("XDG_CONFIG_HOME")
	defer func() { _ = os.Setenv("XDG_CONFIG_HOME", origXDG) }()
	_ = os.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	assert.Equal(t, filepath.Join("/tmp/xdg", "wtx", "config.yml"), DefaultConfigPath())
}

func TestConfig_Save_and_Load(t *testing.T) {
	// Create a temp directory for the test
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yml")

	original := Config{
		LangCode:     "en",
		Project:      "wikipedia",
		ServerURL:    "https://en.wikipedia.org",
		PagesDir:     "/data/pages",
		OutputFormat: "json",
	}

	// Save
	err := original.Save(configPath)
	require.NoError(t, err)

	// Load
	loaded, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, original.LangCode, loaded.LangCode)
	assert.Equal(t, original.Project, loaded.Project)
	assert.Equal(t, original.ServerURL, loaded.ServerURL)
	assert.Equal(t, original.PagesDir, loaded.PagesDir)
	assert.Equal(t, original.OutputFormat, loaded.OutputFormat)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yml")
	require.Error(t, err)
}

func TestLoadWithEnv_MissingFileUsesDefaults(t *testing.T) {
	os.Unsetenv("WTX_LANG_CODE")
	os.Unsetenv("WTX_PROJECT")

	cfg, err := LoadWithEnv("/nonexistent/path/config.yml")
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.LangCode)
	assert.Equal(t, "wikipedia", cfg.Project)
}
