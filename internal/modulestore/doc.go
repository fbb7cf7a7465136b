// Package modulestore provides the in-memory table of installed modules and
// the node types they contribute.
//
// # Layout
//
// The store keeps one row per module, keyed by module name, plus a secondary
// index from node type name to owning module name. Rows are always replaced
// whole: readers receive deep copies and writers hand in complete new rows,
// so no reader can observe a half-written module.
//
// # Concurrency Model
//
// A single sync.RWMutex guards both maps. Reads take the read lock only for
// the duration of the copy and never wait on slow work such as package
// installation or handler initialisation, which happen outside the store.
//
// The store performs no I/O and has no side effects beyond its own maps.
package modulestore
