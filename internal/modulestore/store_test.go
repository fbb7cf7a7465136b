package modulestore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/nodereg/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModule(name string, types ...string) model.Module {
	m := model.Module{Name: name, Version: "1.0.0"}
	for _, tn := range types {
		m.NodeTypes = append(m.NodeTypes, model.NodeType{Name: tn}.WithState(true))
	}
	return m
}

func TestUpsertAndLookup(t *testing.T) {
	s := New()
	require.NoError(t, s.UpsertModule(newModule("m1", "a", "b")))

	m, ok := s.GetModule("m1")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, m.TypeNames())

	nt, ok := s.GetNodeType("b")
	require.True(t, ok)
	assert.Equal(t, "m1", nt.Module, "back-reference is filled in by the store")
	assert.True(t, nt.Enabled())

	owner, ok := s.Owner("a")
	require.True(t, ok)
	assert.Equal(t, "m1", owner)

	_, ok = s.GetNodeType("nope")
	assert.False(t, ok)
	_, ok = s.GetModule("nope")
	assert.False(t, ok)
}

func TestUpsertRejectsConflicts(t *testing.T) {
	t.Run("type owned by another module", func(t *testing.T) {
		s := New()
		require.NoError(t, s.UpsertModule(newModule("m1", "a")))

		err := s.UpsertModule(newModule("m2", "x", "a"))
		var conflict *TypeConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "a", conflict.Type)
		assert.Equal(t, "m1", conflict.Owner)

		assert.False(t, s.HasModule("m2"))
		_, ok := s.GetNodeType("x")
		assert.False(t, ok, "a rejected upsert must not leak into the index")
	})

	t.Run("duplicate within one module", func(t *testing.T) {
		s := New()
		err := s.UpsertModule(newModule("m1", "a", "a"))
		assert.Error(t, err)
		assert.Empty(t, s.ListModules())
	})

	t.Run("empty name", func(t *testing.T) {
		assert.Error(t, New().UpsertModule(model.Module{}))
	})
}

func TestUpsertReplacesIndex(t *testing.T) {
	s := New()
	require.NoError(t, s.UpsertModule(newModule("m1", "a", "b")))
	require.NoError(t, s.UpsertModule(newModule("m1", "b", "c")))

	_, ok := s.GetNodeType("a")
	assert.False(t, ok, "types dropped by the new row leave the index")
	_, ok = s.GetNodeType("c")
	assert.True(t, ok)
}

func TestRemoveModulePurgesIndex(t *testing.T) {
	s := New()
	require.NoError(t, s.UpsertModule(newModule("m1", "a", "b")))
	require.NoError(t, s.UpsertModule(newModule("m2", "c")))

	removed, ok := s.RemoveModule("m1")
	require.True(t, ok)
	assert.Equal(t, "m1", removed.Name)

	for _, name := range []string{"a", "b"} {
		_, ok := s.GetNodeType(name)
		assert.False(t, ok, "node type %s should be gone", name)
	}
	_, ok = s.GetNodeType("c")
	assert.True(t, ok)

	_, ok = s.RemoveModule("m1")
	assert.False(t, ok)

	// The freed names can now be claimed by another module.
	require.NoError(t, s.UpsertModule(newModule("m3", "a")))
}

func TestReplaceNodeType(t *testing.T) {
	s := New()
	require.NoError(t, s.UpsertModule(newModule("m1", "a", "b")))

	nt, _ := s.GetNodeType("a")
	m, ok := s.ReplaceNodeType(nt.WithState(false))
	require.True(t, ok)
	assert.False(t, m.NodeTypes[0].Enabled())

	got, _ := s.GetNodeType("a")
	assert.False(t, got.Enabled())

	_, ok = s.ReplaceNodeType(model.NodeType{Name: "ghost"})
	assert.False(t, ok)
}

func TestReadsReturnCopies(t *testing.T) {
	s := New()
	require.NoError(t, s.UpsertModule(newModule("m1", "a")))

	m, _ := s.GetModule("m1")
	m.NodeTypes[0] = m.NodeTypes[0].WithError("tampered")

	fresh, _ := s.GetModule("m1")
	assert.True(t, fresh.NodeTypes[0].Enabled())
}

func TestListOrdering(t *testing.T) {
	s := New()
	require.NoError(t, s.UpsertModule(newModule("zeta", "z1")))
	require.NoError(t, s.UpsertModule(newModule("alpha", "a2", "a1")))

	var names []string
	for _, m := range s.ListModules() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"alpha", "zeta"}, names)

	var types []string
	for _, nt := range s.ListNodeTypes() {
		types = append(types, nt.Name)
	}
	assert.Equal(t, []string{"a2", "a1", "z1"}, types)

	snap := s.Snapshot()
	assert.Len(t, snap.Modules, 2)
	assert.False(t, snap.TakenAt.IsZero())
}

// TestStore_ConcurrentAccess verifies that readers never observe a module
// row mid-write while writers replace node types concurrently.
func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	const types = 20
	names := make([]string, types)
	for i := range names {
		names[i] = fmt.Sprintf("t%d", i)
	}
	require.NoError(t, s.UpsertModule(newModule("m1", names...)))

	var wg sync.WaitGroup
	for i := 0; i < types; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			nt, ok := s.GetNodeType(names[i])
			if !ok {
				t.Errorf("node type %s vanished", names[i])
				return
			}
			s.ReplaceNodeType(nt.WithState(i%2 == 0))
		}(i)
		go func() {
			defer wg.Done()
			m, ok := s.GetModule("m1")
			if !ok {
				t.Error("module vanished")
				return
			}
			assert.Len(t, m.NodeTypes, types)
		}()
	}
	wg.Wait()

	for i, name := range names {
		nt, ok := s.GetNodeType(name)
		require.True(t, ok)
		assert.Equal(t, i%2 == 0, nt.Enabled(), "node type %s", name)
	}
}
