package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nodes.hcl"), []byte("module"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "lib", "a.txt"), []byte("hello"), 0o600))

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, CopyDir(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "lib", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	info, err := os.Stat(filepath.Join(dst, "lib", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	t.Run("refuses existing destination", func(t *testing.T) {
		assert.ErrorContains(t, CopyDir(src, dst), "already exists")
	})

	t.Run("refuses file source", func(t *testing.T) {
		assert.Error(t, CopyDir(filepath.Join(src, "nodes.hcl"), filepath.Join(t.TempDir(), "x")))
	})
}

func TestSubDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "b"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "file"), nil, 0o644))

	dirs, err := SubDirs(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, dirs)

	dirs, err = SubDirs(filepath.Join(root, "missing"))
	require.NoError(t, err)
	assert.Empty(t, dirs)
}
