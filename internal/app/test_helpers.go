package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/nodereg/internal/handlers"
	"github.com/specialistvlad/nodereg/internal/testutil"
	"github.com/stretchr/testify/require"
)

// TestConfig returns a valid configuration rooted in a temporary directory.
func TestConfig(t *testing.T) *Config {
	t.Helper()
	root := t.TempDir()
	catalog := filepath.Join(root, "catalog")
	require.NoError(t, os.MkdirAll(catalog, 0o755))
	return &Config{
		ListenAddr:   "127.0.0.1:0",
		CatalogDir:   catalog,
		InstallDir:   filepath.Join(root, "nodes"),
		SettingsPath: filepath.Join(root, "settings.db"),
		LogFormat:    "text",
		LogLevel:     "debug",
	}
}

// SetupAppTest creates a new app instance for system testing.
func SetupAppTest(t *testing.T, cfg *Config, modules ...handlers.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	testApp, err := NewApp(logBuffer, cfg, modules...)
	require.NoError(t, err)

	t.Cleanup(func() {
		testApp.closeStores()
		if os.Getenv("NODEREG_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
