package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrinter(t *testing.T) {
	t.Run("prints topic and data", func(t *testing.T) {
		out := &bytes.Buffer{}
		p := &printer{out: out}

		err := p.print(map[string]any{"topic": "node/enabled", "data": map[string]any{"subject": "m1/a"}})
		require.NoError(t, err)
		require.Equal(t, "node/enabled {\"subject\":\"m1/a\"}\n", out.String())
	})

	t.Run("filters by prefix", func(t *testing.T) {
		out := &bytes.Buffer{}
		p := &printer{out: out, prefix: "registry/"}

		require.NoError(t, p.print(map[string]any{"topic": "node/added", "data": nil}))
		require.NoError(t, p.print(map[string]any{"topic": "registry/loaded", "data": map[string]any{"modules": 1.0}}))
		require.Equal(t, "registry/loaded {\"modules\":1}\n", out.String())
	})

	t.Run("rejects other payloads", func(t *testing.T) {
		p := &printer{out: &bytes.Buffer{}}
		require.ErrorContains(t, p.print("hello"), "unexpected message type string")
	})
}
