// Package registry is the public face of the node type registry.
//
// The Registry owns the module table and orchestrates every change to it:
// whole-module install and uninstall go through the installer Gateway,
// per-type enable and disable through the handler state machine. Each
// completed change is persisted to settings and announced on the notifier.
//
// Reads never block on a mutation in flight. Mutations are serialised per
// module name by the gateway and per node type by a keyed lock; a second
// mutation on the same module name is rejected rather than queued.
package registry
