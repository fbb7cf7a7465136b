package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("defaults come from the environment", func(t *testing.T) {
		t.Setenv("NODEREG_LISTEN_ADDR", ":9999")
		t.Setenv("NODEREG_LOG_LEVEL", "debug")

		cfg, exit, err := Parse(nil, &bytes.Buffer{})
		require.NoError(t, err)
		require.False(t, exit)
		require.Equal(t, ":9999", cfg.ListenAddr)
		require.Equal(t, "debug", cfg.LogLevel)
		require.Equal(t, "nodes", cfg.InstallDir)
		require.Equal(t, 256, cfg.NotifyBuffer)
	})

	t.Run("flags override the environment", func(t *testing.T) {
		t.Setenv("NODEREG_LISTEN_ADDR", ":9999")

		cfg, _, err := Parse([]string{"-listen", ":1234", "-read-only", "-log-format", "TEXT"}, &bytes.Buffer{})
		require.NoError(t, err)
		require.Equal(t, ":1234", cfg.ListenAddr)
		require.True(t, cfg.ReadOnly)
		require.Equal(t, "text", cfg.LogFormat)
	})

	t.Run("help exits cleanly", func(t *testing.T) {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse([]string{"-h"}, out)
		require.NoError(t, err)
		require.True(t, exit)
		require.Nil(t, cfg)
		require.Contains(t, out.String(), "Usage:")
	})

	t.Run("invalid values are exit code 2", func(t *testing.T) {
		cases := [][]string{
			{"-log-level", "loud"},
			{"-log-format", "xml"},
			{"-install-dir", ""},
			{"-notify-buffer", "-1"},
			{"stray"},
			{"-nope"},
		}
		for _, args := range cases {
			_, _, err := Parse(args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr, "args %v", args)
			require.Equal(t, 2, exitErr.Code)
		}
	})

	t.Run("bad environment is exit code 2", func(t *testing.T) {
		t.Setenv("NODEREG_NOTIFY_BUFFER", "many")
		_, _, err := Parse(nil, &bytes.Buffer{})
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		require.Contains(t, exitErr.Message, "parse env")
	})
}
