// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the read-only snapshot handed to registry readers and the
// machine-readable views derived from it.
package model

import (
	"encoding/json"
	"time"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Snapshot is a point-in-time copy of the registry. It is never mutated after
// construction.
type Snapshot struct {
	Modules []Module
	TakenAt time.Time
}

// NodeTypes returns every node type in the snapshot, ordered by module and
// then by declaration.
func (s Snapshot) NodeTypes() []NodeType {
	var out []NodeType
	for _, m := range s.Modules {
		out = append(out, m.NodeTypes...)
	}
	return out
}

// CountByState tallies node types per lifecycle state.
func (s Snapshot) CountByState() map[State]int {
	counts := map[State]int{StateDisabled: 0, StateEnabled: 0, StateError: 0}
	for _, m := range s.Modules {
		for _, nt := range m.NodeTypes {
			counts[nt.State()]++
		}
	}
	return counts
}

// PropertyView is the JSON form of a Property.
type PropertyView struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Default     json.RawMessage `json:"default,omitempty"`
}

// NodeTypeView is the JSON form of a NodeType.
type NodeTypeView struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Module     string         `json:"module"`
	Label      string         `json:"label,omitempty"`
	Category   string         `json:"category,omitempty"`
	Handler    string         `json:"handler"`
	Enabled    bool           `json:"enabled"`
	State      State          `json:"state"`
	Err        string         `json:"err,omitempty"`
	Properties []PropertyView `json:"properties,omitempty"`
}

// ModuleView is the JSON form of a Module.
type ModuleView struct {
	Name        string         `json:"name"`
	Version     string         `json:"version,omitempty"`
	Description string         `json:"description,omitempty"`
	Path        string         `json:"path,omitempty"`
	Err         string         `json:"err,omitempty"`
	Nodes       []NodeTypeView `json:"nodes"`
}

// View converts n into its JSON form.
func (n NodeType) View() NodeTypeView {
	v := NodeTypeView{
		ID:       n.ID(),
		Name:     n.Name,
		Module:   n.Module,
		Label:    n.Label,
		Category: n.Category,
		Handler:  n.Handler,
		Enabled:  n.Enabled(),
		State:    n.state,
		Err:      n.err,
	}
	for _, p := range n.Properties {
		pv := PropertyView{Name: p.Name, Description: p.Description}
		if p.Type != cty.NilType {
			pv.Type = p.Type.FriendlyName()
		}
		if p.Default != nil {
			if raw, err := ctyjson.Marshal(*p.Default, p.Default.Type()); err == nil {
				pv.Default = raw
			}
		}
		v.Properties = append(v.Properties, pv)
	}
	return v
}

// View converts m into its JSON form.
func (m Module) View() ModuleView {
	v := ModuleView{
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		Path:        m.Path,
		Err:         m.Err,
		Nodes:       make([]NodeTypeView, 0, len(m.NodeTypes)),
	}
	for _, nt := range m.NodeTypes {
		v.Nodes = append(v.Nodes, nt.View())
	}
	return v
}

// NodeTypeViews converts every node type in s into its JSON form.
func (s Snapshot) NodeTypeViews() []NodeTypeView {
	types := s.NodeTypes()
	out := make([]NodeTypeView, 0, len(types))
	for _, nt := range types {
		out = append(out, nt.View())
	}
	return out
}
