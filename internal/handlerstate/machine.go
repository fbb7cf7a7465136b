// Package handlerstate drives the enable/disable/error lifecycle of a single
// node type.
//
// Transitions:
//
//	disabled -> enabled   re-initialise; on failure move to error
//	error    -> enabled   same re-initialisation attempt
//	enabled  -> disabled  always succeeds, no re-initialisation
//	error    -> disabled  clears the error without re-initialising
//
// The machine is pure with respect to registry state: it receives a node type
// value and returns the post-transition value. Persisting the result is the
// caller's job.
package handlerstate

import (
	"context"

	"github.com/specialistvlad/nodereg/internal/ctxlog"
	"github.com/specialistvlad/nodereg/internal/model"
	"github.com/specialistvlad/nodereg/internal/regerr"
)

// Initializer (re)initialises the handler behind a node type.
type Initializer interface {
	InitializeHandler(ctx context.Context, nt model.NodeType) error
}

// InitializerFunc adapts a function to the Initializer interface.
type InitializerFunc func(ctx context.Context, nt model.NodeType) error

// InitializeHandler calls f.
func (f InitializerFunc) InitializeHandler(ctx context.Context, nt model.NodeType) error {
	return f(ctx, nt)
}

// Outcome is the result of a single transition request.
type Outcome struct {
	// NodeType is the post-transition value. When Changed is false it is the
	// input unchanged.
	NodeType model.NodeType
	// Changed reports whether a transition was applied.
	Changed bool
	// Err is a HandlerInitFailure when an enable attempt failed. The node
	// type is then in the error state.
	Err error
}

// Machine applies transitions using an Initializer.
type Machine struct {
	init Initializer
}

// New creates a Machine.
func New(init Initializer) *Machine {
	return &Machine{init: init}
}

// InTargetState reports whether nt already is in the requested effective
// state. A node type in the error state is never in either target state.
func InTargetState(nt model.NodeType, enabled bool) bool {
	switch nt.State() {
	case model.StateEnabled:
		return enabled
	case model.StateDisabled:
		return !enabled
	default:
		return false
	}
}

// Transition moves nt towards the requested state. It is a no-op when nt is
// already there.
func (m *Machine) Transition(ctx context.Context, nt model.NodeType, enabled bool) Outcome {
	if InTargetState(nt, enabled) {
		return Outcome{NodeType: nt}
	}
	return m.Apply(ctx, nt, enabled)
}

// Apply performs the transition unconditionally. It is used when a node type
// is first brought up after install or load, where even a node type that looks
// enabled must be initialised.
func (m *Machine) Apply(ctx context.Context, nt model.NodeType, enabled bool) Outcome {
	logger := ctxlog.FromContext(ctx).With("node_type", nt.Name, "from", nt.State().String())

	if !enabled {
		logger.Debug("Disabling node type.")
		return Outcome{NodeType: nt.WithState(false), Changed: true}
	}

	logger.Debug("Initialising node type handler.", "handler", nt.Handler)
	if err := m.initialize(ctx, nt); err != nil {
		logger.Debug("Handler initialisation failed.", "error", err)
		return Outcome{
			NodeType: nt.WithError(err.Error()),
			Changed:  true,
			Err:      regerr.Wrap(regerr.KindHandlerInitFailure, err, "failed to enable node type '%s'", nt.Name),
		}
	}
	return Outcome{NodeType: nt.WithState(true), Changed: true}
}

// initialize runs the handler's initialisation, reporting a panic as an error.
func (m *Machine) initialize(ctx context.Context, nt model.NodeType) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	if m.init == nil {
		return nil
	}
	return m.init.InitializeHandler(ctx, nt)
}

type panicError struct{ value any }

func (e *panicError) Error() string {
	return "handler panicked during initialisation: " + toString(e.value)
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case error:
		return x.Error()
	default:
		return "non-error panic value"
	}
}
