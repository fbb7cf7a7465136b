// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the NodeType, the unit of capability tracked by the
// registry.
package model

import (
	"github.com/zclconf/go-cty/cty"
)

// Property is a configurable attribute declared by a node type's manifest.
type Property struct {
	Name        string
	Type        cty.Type
	Description string
	// Default is nil when the property has no default value.
	Default *cty.Value
}

// NodeType is a single typed handler contributed by a Module.
//
// Name is globally unique across all modules. Module is a back-reference to
// the owning module's name.
type NodeType struct {
	Name       string
	Module     string
	Label      string
	Category   string
	Handler    string
	Properties []Property

	state State
	err   string
}

// State returns the lifecycle state.
func (n NodeType) State() State { return n.state }

// Err returns the failure message recorded by the last failed
// initialisation. It is empty unless State is StateError.
func (n NodeType) Err() string { return n.err }

// Enabled reports whether the node type is usable. A node type in the error
// state is never usable.
func (n NodeType) Enabled() bool { return n.state == StateEnabled }

// ID returns the "<module>/<name>" identifier used by external callers.
func (n NodeType) ID() string { return n.Module + "/" + n.Name }

// WithState returns a copy of n in the enabled or disabled state. Any
// previously recorded error is cleared.
func (n NodeType) WithState(enabled bool) NodeType {
	if enabled {
		n.state = StateEnabled
	} else {
		n.state = StateDisabled
	}
	n.err = ""
	return n
}

// WithError returns a copy of n in the error state with msg recorded.
func (n NodeType) WithError(msg string) NodeType {
	if msg == "" {
		msg = "unknown error"
	}
	n.state = StateError
	n.err = msg
	return n
}

// Clone returns a copy of n that shares no mutable memory with it.
func (n NodeType) Clone() NodeType {
	if n.Properties != nil {
		props := make([]Property, len(n.Properties))
		copy(props, n.Properties)
		n.Properties = props
	}
	return n
}
