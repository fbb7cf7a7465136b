package modulestore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/specialistvlad/nodereg/internal/model"
)

// TypeConflictError is returned when a module declares a node type name that
// another module already owns.
type TypeConflictError struct {
	Type  string
	Owner string
}

func (e *TypeConflictError) Error() string {
	return fmt.Sprintf("node type '%s' is already registered by module '%s'", e.Type, e.Owner)
}

// Store is the module table with its node type index.
type Store struct {
	mu      sync.RWMutex
	modules map[string]model.Module
	owners  map[string]string // Key: node type name, Value: module name
}

// New creates a new, empty store.
func New() *Store {
	return &Store{
		modules: make(map[string]model.Module),
		owners:  make(map[string]string),
	}
}

// UpsertModule inserts m or replaces the existing row of the same name. The
// whole call fails, leaving the store untouched, if any of m's node type
// names is owned by a different module or repeated within m.
func (s *Store) UpsertModule(m model.Module) error {
	if m.Name == "" {
		return fmt.Errorf("module name must not be empty")
	}
	row := m.Clone()
	for i := range row.NodeTypes {
		row.NodeTypes[i].Module = row.Name
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(row.NodeTypes))
	for _, nt := range row.NodeTypes {
		if _, dup := seen[nt.Name]; dup {
			return &TypeConflictError{Type: nt.Name, Owner: row.Name}
		}
		seen[nt.Name] = struct{}{}
		if owner, ok := s.owners[nt.Name]; ok && owner != row.Name {
			return &TypeConflictError{Type: nt.Name, Owner: owner}
		}
	}

	if old, ok := s.modules[row.Name]; ok {
		for _, nt := range old.NodeTypes {
			delete(s.owners, nt.Name)
		}
	}
	s.modules[row.Name] = row
	for _, nt := range row.NodeTypes {
		s.owners[nt.Name] = row.Name
	}
	return nil
}

// RemoveModule deletes a module and every node type indexed under it. It
// returns the removed row.
func (s *Store) RemoveModule(name string) (model.Module, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.modules[name]
	if !ok {
		return model.Module{}, false
	}
	for _, nt := range m.NodeTypes {
		delete(s.owners, nt.Name)
	}
	delete(s.modules, name)
	return m, true
}

// ReplaceNodeType swaps in nt for the node type of the same name within its
// owning module. It returns the refreshed module row, or false if the node
// type is no longer registered.
func (s *Store) ReplaceNodeType(nt model.NodeType) (model.Module, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.owners[nt.Name]
	if !ok {
		return model.Module{}, false
	}
	nt.Module = owner
	updated, ok := s.modules[owner].WithNodeType(nt)
	if !ok {
		return model.Module{}, false
	}
	s.modules[owner] = updated
	return updated.Clone(), true
}

// GetModule returns a copy of the named module.
func (s *Store) GetModule(name string) (model.Module, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.modules[name]
	if !ok {
		return model.Module{}, false
	}
	return m.Clone(), true
}

// HasModule reports whether a module of that name is present.
func (s *Store) HasModule(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.modules[name]
	return ok
}

// Owner returns the name of the module owning a node type.
func (s *Store) Owner(typeName string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[typeName]
	return owner, ok
}

// GetNodeType returns a copy of the named node type.
func (s *Store) GetNodeType(name string) (model.NodeType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.owners[name]
	if !ok {
		return model.NodeType{}, false
	}
	nt, ok := s.modules[owner].NodeType(name)
	if !ok {
		return model.NodeType{}, false
	}
	return nt.Clone(), true
}

// ListModules returns copies of all modules sorted by name.
func (s *Store) ListModules() []model.Module {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedModulesLocked()
}

// ListNodeTypes returns copies of all node types, ordered by module name and
// then by declaration order within the module.
func (s *Store) ListNodeTypes() []model.NodeType {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.NodeType
	for _, m := range s.sortedModulesLocked() {
		out = append(out, m.NodeTypes...)
	}
	return out
}

// Snapshot materialises a consistent point-in-time view of the whole table.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Snapshot{
		Modules: s.sortedModulesLocked(),
		TakenAt: time.Now(),
	}
}

func (s *Store) sortedModulesLocked() []model.Module {
	out := make([]model.Module, 0, len(s.modules))
	for _, m := range s.modules {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
