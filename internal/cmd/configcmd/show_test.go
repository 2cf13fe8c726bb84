package configcmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openwikitools/wtx/internal/config"
)

func TestRunShow_WithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := &config.Config{
		LangCode:  "en",
		Project:   "wikipedia",
		ServerURL: "https://en.wikipedia.org",
		PagesDir:  "/data/pages",
	}

	// Override default config path for test
	origXDG := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", tmpDir)
	defer os.Setenv("XDG_CONFIG_HOME", origXDG)

	xdgPath := filepath.Join(tmpDir, "wtx", "config.yml")
	require.NoError(t, cfg.Save(xdgPath))

	err := runShow(true)
	require.NoError(t, err)
}

func TestRunShow_NoConfigFile(t *testing.T) {
	// Clear env vars
	for _, v := range []string{"WTX_LANG_CODE", "WTX_PROJECT", "WTX_SERVER_URL",
		"WTX_PAGES_DIR", "WTX_NAMESPACE_FILE"} {
		orig := os.Getenv(v)
		os.Unsetenv(v)
		defer os.Setenv(v, orig)
	}

	origXDG := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", t.TempDir())
	defer os.Setenv("XDG_CONFIG_HOME", origXDG)

	err := runShow(true)
	require.NoError(t, err)
}
