// Package handlers holds the Go implementations that back node types.
//
// A manifest names a handler for each node type; enabling the node type runs
// that handler's Init against the node type's declared properties. Modules
// built into the binary register their handlers at startup.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/nodereg/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// Handler is the Go side of a node type.
type Handler struct {
	Description string
	// Init prepares the handler for the given node type. A nil Init always
	// succeeds.
	Init func(ctx context.Context, nt model.NodeType) error
}

// Module is a set of handlers compiled into the binary.
type Module interface {
	Register(h *Handlers)
}

// Handlers holds all the registered handlers.
type Handlers struct {
	all map[string]*Handler
}

// New creates an empty Handlers set.
func New() *Handlers {
	return &Handlers{
		all: make(map[string]*Handler),
	}
}

// RegisterHandler registers a handler under name.
func (r *Handlers) RegisterHandler(name string, handler *Handler) {
	if _, exists := r.all[name]; exists {
		panic(fmt.Sprintf("handler with name '%s' already registered", name))
	}
	slog.Debug("Registering handler.", "name", name)
	r.all[name] = handler
}

// Lookup returns the handler registered under name.
func (r *Handlers) Lookup(name string) (*Handler, bool) {
	h, ok := r.all[name]
	return h, ok
}

// Names returns the registered handler names in sorted order.
func (r *Handlers) Names() []string {
	names := make([]string, 0, len(r.all))
	for name := range r.all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InitializeHandler runs the Init of the handler named by nt.Handler.
func (r *Handlers) InitializeHandler(ctx context.Context, nt model.NodeType) error {
	h, ok := r.all[nt.Handler]
	if !ok {
		return fmt.Errorf("handler '%s' is not available", nt.Handler)
	}
	if h.Init == nil {
		return nil
	}
	return h.Init(ctx, nt)
}

// StringDefault returns the default of the string property called name.
func StringDefault(nt model.NodeType, name string) (string, bool) {
	for _, p := range nt.Properties {
		if p.Name != name || p.Default == nil {
			continue
		}
		v := *p.Default
		if v.IsNull() || !v.IsKnown() || v.Type() != cty.String {
			return "", false
		}
		return v.AsString(), true
	}
	return "", false
}

// BoolDefault returns the default of the bool property called name.
func BoolDefault(nt model.NodeType, name string) (bool, bool) {
	for _, p := range nt.Properties {
		if p.Name != name || p.Default == nil {
			continue
		}
		v := *p.Default
		if v.IsNull() || !v.IsKnown() || v.Type() != cty.Bool {
			return false, false
		}
		return v.True(), true
	}
	return false, false
}
