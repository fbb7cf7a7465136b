package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestNodeTypeStateTransitions(t *testing.T) {
	nt := NodeType{Name: "a", Module: "m1"}
	assert.Equal(t, StateDisabled, nt.State())
	assert.False(t, nt.Enabled())

	failed := nt.WithError("boom")
	assert.Equal(t, StateError, failed.State())
	assert.Equal(t, "boom", failed.Err())
	assert.False(t, failed.Enabled(), "error state is never usable")

	enabled := failed.WithState(true)
	assert.True(t, enabled.Enabled())
	assert.Empty(t, enabled.Err(), "enabling clears the recorded error")

	silenced := failed.WithState(false)
	assert.Equal(t, StateDisabled, silenced.State())
	assert.Empty(t, silenced.Err())

	assert.Equal(t, "unknown error", nt.WithError("").Err())
}

func TestModuleWithNodeTypeDoesNotAlias(t *testing.T) {
	m := Module{
		Name: "m1",
		NodeTypes: []NodeType{
			{Name: "a", Module: "m1"},
			{Name: "b", Module: "m1"},
		},
	}

	updated, ok := m.WithNodeType(m.NodeTypes[0].WithState(true))
	require.True(t, ok)
	assert.True(t, updated.NodeTypes[0].Enabled())
	assert.False(t, m.NodeTypes[0].Enabled(), "original row must be untouched")
	assert.Equal(t, 1, updated.UsableCount())

	_, ok = m.WithNodeType(NodeType{Name: "zzz"})
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, m.TypeNames())
}

func TestStateText(t *testing.T) {
	for _, s := range []State{StateDisabled, StateEnabled, StateError} {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var back State
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
	var s State
	assert.Error(t, s.UnmarshalText([]byte("bogus")))
}

func TestNodeTypeView(t *testing.T) {
	def := cty.StringVal("/tmp")
	nt := NodeType{
		Name:    "file",
		Module:  "core",
		Handler: "file",
		Properties: []Property{
			{Name: "filename", Type: cty.String, Default: &def},
			{Name: "append", Type: cty.Bool},
		},
	}.WithError("dir missing")

	raw, err := json.Marshal(nt.View())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "core/file", decoded["id"])
	assert.Equal(t, false, decoded["enabled"])
	assert.Equal(t, "error", decoded["state"])
	assert.Equal(t, "dir missing", decoded["err"])

	props := decoded["properties"].([]any)
	require.Len(t, props, 2)
	first := props[0].(map[string]any)
	assert.Equal(t, "string", first["type"])
	assert.Equal(t, "/tmp", first["default"])
	_, hasDefault := props[1].(map[string]any)["default"]
	assert.False(t, hasDefault)
}

func TestSnapshotCountByState(t *testing.T) {
	s := Snapshot{Modules: []Module{
		{Name: "m1", NodeTypes: []NodeType{
			NodeType{Name: "a"}.WithState(true),
			NodeType{Name: "b"}.WithError("x"),
		}},
		{Name: "m2", NodeTypes: []NodeType{{Name: "c"}}},
	}}

	counts := s.CountByState()
	assert.Equal(t, 1, counts[StateEnabled])
	assert.Equal(t, 1, counts[StateError])
	assert.Equal(t, 1, counts[StateDisabled])
	assert.Len(t, s.NodeTypes(), 3)
	assert.Len(t, s.NodeTypeViews(), 3)
}
