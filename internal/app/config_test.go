package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("NODEREG_CATALOG_DIR", "/srv/catalog")
	t.Setenv("NODEREG_READ_ONLY", "true")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, "/srv/catalog", cfg.CatalogDir)
	require.True(t, cfg.ReadOnly)
	require.Equal(t, ":1880", cfg.ListenAddr)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestNewConfig(t *testing.T) {
	valid := Config{
		ListenAddr: ":1880",
		CatalogDir: "catalog",
		InstallDir: "nodes",
		LogFormat:  "text",
		LogLevel:   "info",
	}

	cfg, err := NewConfig(valid)
	require.NoError(t, err)
	require.Equal(t, valid, *cfg)

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"no listen addr", func(c *Config) { c.ListenAddr = "" }, "ListenAddr"},
		{"no install dir", func(c *Config) { c.InstallDir = "" }, "InstallDir"},
		{"no catalog dir", func(c *Config) { c.CatalogDir = "" }, "CatalogDir"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "invalid log format"},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"negative buffer", func(c *Config) { c.NotifyBuffer = -1 }, "NotifyBuffer"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			_, err := NewConfig(c)
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}
