package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("json output carries the service name", func(t *testing.T) {
		buf := &bytes.Buffer{}
		newLogger("info", "json", buf).Info("hello", "module", "m1")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "hello", line["msg"])
		assert.Equal(t, "nodereg", line["service"])
		assert.Equal(t, "m1", line["module"])
		assert.NotContains(t, line, "source")
	})

	t.Run("level filters records", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := newLogger("warn", "text", buf)
		logger.Info("quiet")
		logger.Warn("loud")
		assert.NotContains(t, buf.String(), "quiet")
		assert.Contains(t, buf.String(), "loud")
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := newLogger("chatty", "text", buf)
		logger.Debug("hidden")
		logger.Info("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("debug records the source", func(t *testing.T) {
		buf := &bytes.Buffer{}
		newLogger("debug", "text", buf).Debug("here")
		assert.Contains(t, buf.String(), "source=")
	})
}
