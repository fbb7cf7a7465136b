package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/specialistvlad/nodereg/internal/model"
	"github.com/specialistvlad/nodereg/internal/notifier"
)

// Module builds a module descriptor whose node types use the "print"
// handler.
func Module(name string, types ...string) model.Module {
	m := model.Module{Name: name, Version: "1.0.0"}
	for _, tn := range types {
		m.NodeTypes = append(m.NodeTypes, model.NodeType{Name: tn, Module: name, Label: tn, Handler: "print"})
	}
	return m
}

// RecordingEmitter records every emitted event.
type RecordingEmitter struct {
	mu     sync.Mutex
	events []notifier.Event
}

// Emit implements notifier.Emitter.
func (r *RecordingEmitter) Emit(_ context.Context, ev notifier.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *RecordingEmitter) Events() []notifier.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifier.Event(nil), r.events...)
}

// Kinds returns the kinds of the recorded events in order.
func (r *RecordingEmitter) Kinds() []notifier.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]notifier.Kind, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

// For returns the recorded events about subject.
func (r *RecordingEmitter) For(subject string) []notifier.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notifier.Event
	for _, ev := range r.events {
		if ev.SubjectID == subject {
			out = append(out, ev)
		}
	}
	return out
}

// Reset forgets all recorded events.
func (r *RecordingEmitter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// MemorySettings is an in-memory settings store.
type MemorySettings struct {
	mu          sync.Mutex
	unavailable bool
	failSaves   bool
	states      map[string]bool
	modules     map[string]string
}

// NewMemorySettings creates an available, empty MemorySettings.
func NewMemorySettings() *MemorySettings {
	return &MemorySettings{states: make(map[string]bool), modules: make(map[string]string)}
}

// SetAvailable toggles availability.
func (m *MemorySettings) SetAvailable(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = !ok
}

// FailSaves makes every write fail.
func (m *MemorySettings) FailSaves() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSaves = true
}

// Available reports whether writes are accepted.
func (m *MemorySettings) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.unavailable
}

// NodeStates returns the stored flags.
func (m *MemorySettings) NodeStates(context.Context) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.states))
	for k, v := range m.states {
		out[k] = v
	}
	return out, nil
}

// SaveNodeState stores a flag.
func (m *MemorySettings) SaveNodeState(_ context.Context, module, nodeType string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaves {
		return errors.New("disk full")
	}
	m.states[nodeType] = enabled
	m.modules[nodeType] = module
	return nil
}

// DeleteModule forgets all flags of module.
func (m *MemorySettings) DeleteModule(_ context.Context, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaves {
		return errors.New("disk full")
	}
	for nt, owner := range m.modules {
		if owner == module {
			delete(m.modules, nt)
			delete(m.states, nt)
		}
	}
	return nil
}

// State returns the stored flag of nodeType.
func (m *MemorySettings) State(nodeType string) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.states[nodeType]
	return v, ok
}

// StubInitializer fails initialisation of selected node types and counts
// calls.
type StubInitializer struct {
	mu       sync.Mutex
	failures map[string]error
	calls    map[string]int
	hooks    map[string]func(ctx context.Context) error
}

// NewStubInitializer creates a StubInitializer that succeeds for everything.
func NewStubInitializer() *StubInitializer {
	return &StubInitializer{
		failures: make(map[string]error),
		calls:    make(map[string]int),
		hooks:    make(map[string]func(ctx context.Context) error),
	}
}

// OnInit runs fn, outside the stub's lock, whenever nodeType is initialised.
// Its error replaces any failure set with Fail. A nil fn removes the hook.
func (s *StubInitializer) OnInit(nodeType string, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		delete(s.hooks, nodeType)
		return
	}
	s.hooks[nodeType] = fn
}

// Fail makes initialising nodeType fail with err. A nil err clears it.
func (s *StubInitializer) Fail(nodeType string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, nodeType)
		return
	}
	s.failures[nodeType] = err
}

// Calls returns how often nodeType was initialised.
func (s *StubInitializer) Calls(nodeType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[nodeType]
}

// InitializeHandler implements handlerstate.Initializer.
func (s *StubInitializer) InitializeHandler(ctx context.Context, nt model.NodeType) error {
	s.mu.Lock()
	s.calls[nt.Name]++
	hook, failure := s.hooks[nt.Name], s.failures[nt.Name]
	s.mu.Unlock()

	if hook != nil {
		return hook(ctx)
	}
	return failure
}
