package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.db")
	s, err := Open(context.Background(), path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestNodeStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t)
	require.True(t, s.Available())

	require.NoError(t, s.SaveNodeState(ctx, "m1", "a", true))
	require.NoError(t, s.SaveNodeState(ctx, "m1", "b", true))
	require.NoError(t, s.SaveNodeState(ctx, "m2", "c", false))
	require.NoError(t, s.SaveNodeState(ctx, "m1", "b", false))

	states, err := s.NodeStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "b": false, "c": false}, states)

	require.NoError(t, s.DeleteModule(ctx, "m1"))
	states, err = s.NodeStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"c": false}, states)

	// Reopening keeps the data and does not re-run migrations.
	require.NoError(t, s.Close())
	assert.False(t, s.Available())
	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	states, err = reopened.NodeStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"c": false}, states)
}

func TestReadOnlyStore(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t, ReadOnly())

	assert.False(t, s.Available())
	assert.Error(t, s.SaveNodeState(ctx, "m", "a", true))
	assert.Error(t, s.DeleteModule(ctx, "m"))

	states, err := s.NodeStates(ctx)
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestNilStoreIsUnavailable(t *testing.T) {
	var s *Store
	assert.False(t, s.Available())
	assert.NoError(t, s.Close())
}

func TestExtractUpMigration(t *testing.T) {
	assert.Equal(t, "\nUP\n", extractUpMigration("-- +migrate Up\nUP\n-- +migrate Down\nDOWN"))
	assert.Equal(t, "PLAIN", extractUpMigration("PLAIN"))
}
