// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the lifecycle state of a node type.
package model

import "fmt"

// State is the lifecycle state of a NodeType.
type State int

const (
	// StateDisabled means the handler is installed but switched off.
	StateDisabled State = iota
	// StateEnabled means the handler initialised and is usable.
	StateEnabled
	// StateError means the last initialisation attempt failed. A node type in
	// this state is unusable until it is successfully re-enabled.
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateEnabled:
		return "enabled"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "disabled":
		*s = StateDisabled
	case "enabled":
		*s = StateEnabled
	case "error":
		*s = StateError
	default:
		return fmt.Errorf("unknown node type state %q", string(text))
	}
	return nil
}
