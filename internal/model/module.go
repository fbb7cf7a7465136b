// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Module, an installable package of node types.
package model

// Module is an installed package and the node types it contributes.
type Module struct {
	Name        string
	Version     string
	Description string
	// Path is the installation directory on disk.
	Path string
	// NodeTypes preserves the declaration order of the manifest.
	NodeTypes []NodeType
	// Err is set when the module could not be loaded at all. Such a module
	// contributes no node types.
	Err string
}

// Clone returns a deep copy of m.
func (m Module) Clone() Module {
	if m.NodeTypes != nil {
		types := make([]NodeType, len(m.NodeTypes))
		for i, nt := range m.NodeTypes {
			types[i] = nt.Clone()
		}
		m.NodeTypes = types
	}
	return m
}

// TypeNames returns the names of the module's node types in declaration order.
func (m Module) TypeNames() []string {
	names := make([]string, len(m.NodeTypes))
	for i, nt := range m.NodeTypes {
		names[i] = nt.Name
	}
	return names
}

// NodeType finds a node type of this module by name.
func (m Module) NodeType(name string) (NodeType, bool) {
	for _, nt := range m.NodeTypes {
		if nt.Name == name {
			return nt, true
		}
	}
	return NodeType{}, false
}

// WithNodeType returns a copy of m with the node type of the same name
// replaced by nt. The second result is false if m has no such node type.
func (m Module) WithNodeType(nt NodeType) (Module, bool) {
	out := m.Clone()
	for i := range out.NodeTypes {
		if out.NodeTypes[i].Name == nt.Name {
			out.NodeTypes[i] = nt.Clone()
			return out, true
		}
	}
	return m, false
}

// UsableCount returns how many node types are enabled.
func (m Module) UsableCount() int {
	n := 0
	for _, nt := range m.NodeTypes {
		if nt.Enabled() {
			n++
		}
	}
	return n
}
