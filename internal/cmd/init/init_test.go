package init

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openwikitools/wtx/internal/config"
)

func TestVerifyServer_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify the request
		assert.Equal(t, "query", r.URL.Query().Get("action"))
		assert.Equal(t, "Main Page", r.URL.Query().Get("titles"))

		w.Write([]byte(`{"query": {"pages": [{"pageid": 1, "ns": 0, "title": "Main Page", "revisions": [{"slots": {"main": {"content": "hello"}}}]}]}}`))
	}))
	defer server.Close()

	err := verifyServer(server.URL + "/api.php")
	assert.NoError(t, err)
}

func TestVerifyServer_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"code": "readapidenied", "info": "You need read permission"}}`))
	}))
	defer server.Close()

	err := verifyServer(server.URL + "/api.php")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read permission")
}

func TestVerifyServer_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := verifyServer(server.URL + "/api.php")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestVerifyServer_NetworkError(t *testing.T) {
	err := verifyServer("http://localhost:1") // Nothing listening
	require.Error(t, err)
}

func TestConfigFilePermissions(t *testing.T) {
	// Create a temp directory
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yml")

	cfg := config.Config{
		LangCode:  "en",
		Project:   "wikipedia",
		ServerURL: "https://en.wikipedia.org",
	}

	// Save the config
	err := cfg.Save(configPath)
	require.NoError(t, err)

	// Check the file permissions
	info, err := os.Stat(configPath)
	require.NoError(t, err)

	// On Unix, permissions should be 0600 (user read/write only)
	// The exact mode includes the file type bits, so we mask with 0777
	perm := info.Mode().Perm()
	assert.Equal(t, os.FileMode(0600), perm, "config file should have 0600 permissions")
}

func TestConfigFilePermissions_DirectoryCreation(t *testing.T) {
	// Create a temp directory with nested path
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "deeply", "config.yml")

	cfg := config.Config{
		LangCode: "en",
		Project:  "wikipedia",
	}

	// Save should create the directory structure
	err := cfg.Save(configPath)
	require.NoError(t, err)

	// Verify file exists
	_, err = os.Stat(configPath)
	require.NoError(t, err)

	// Verify directory was created
	dirInfo, err := os.Stat(filepath.Dir(configPath))
	require.NoError(t, err)
	assert.True(t, dirInfo.IsDir())
}

func TestNewCmdInit_Flags(t *testing.T) {
	cmd := NewCmdInit()

	// Verify command structure
	assert.Equal(t, "init", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	// Verify flags exist
	langFlag := cmd.Flags().Lookup("lang")
	require.NotNil(t, langFlag)
	assert.Equal(t, "", langFlag.DefValue)

	projectFlag := cmd.Flags().Lookup("project")
	require.NotNil(t, projectFlag)
	assert.Equal(t, "", projectFlag.DefValue)

	noVerifyFlag := cmd.Flags().Lookup("no-verify")
	require.NotNil(t, noVerifyFlag)
	assert.Equal(t, "false", noVerifyFlag.DefValue)
}
