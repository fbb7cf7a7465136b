package registry

import (
	"context"
	"strings"

	"github.com/specialistvlad/nodereg/internal/handlerstate"
	"github.com/specialistvlad/nodereg/internal/installer"
	"github.com/specialistvlad/nodereg/internal/metrics"
	"github.com/specialistvlad/nodereg/internal/model"
	"github.com/specialistvlad/nodereg/internal/modulestore"
	"github.com/specialistvlad/nodereg/internal/notifier"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for registry spans.
const TracerName = "github.com/specialistvlad/nodereg/internal/registry"

// Settings persists node type state. A store that is not Available makes
// every mutation fail with PreconditionUnavailable.
type Settings interface {
	Available() bool
	NodeStates(ctx context.Context) (map[string]bool, error)
	SaveNodeState(ctx context.Context, module, nodeType string, enabled bool) error
	DeleteModule(ctx context.Context, module string) error
}

// Options are the collaborators of a Registry. Gateway is required.
type Options struct {
	Gateway     *installer.Gateway
	Initializer handlerstate.Initializer
	Emitter     notifier.Emitter
	Settings    Settings
	Metrics     *metrics.Metrics
	Tracer      trace.Tracer
}

// Registry is the authoritative record of installed modules and the state of
// their node types.
type Registry struct {
	store    *modulestore.Store
	gateway  *installer.Gateway
	machine  *handlerstate.Machine
	emitter  notifier.Emitter
	settings Settings
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	types    keyedMutex
}

// New creates an empty Registry.
func New(opts Options) *Registry {
	if opts.Gateway == nil {
		panic("registry: Options.Gateway is required")
	}
	emitter := opts.Emitter
	if emitter == nil {
		emitter = discardEmitter{}
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &Registry{
		store:    modulestore.New(),
		gateway:  opts.Gateway,
		machine:  handlerstate.New(opts.Initializer),
		emitter:  emitter,
		settings: opts.Settings,
		metrics:  opts.Metrics,
		tracer:   tracer,
	}
}

type discardEmitter struct{}

func (discardEmitter) Emit(context.Context, notifier.Event) {}

// ListModules returns all modules sorted by name.
func (r *Registry) ListModules() []model.Module {
	return r.store.ListModules()
}

// GetModule returns the named module.
func (r *Registry) GetModule(name string) (model.Module, bool) {
	return r.store.GetModule(name)
}

// HasModule reports whether a module of that name is loaded.
func (r *Registry) HasModule(name string) bool {
	return r.store.HasModule(name)
}

// ListNodeTypes returns every node type, grouped by module.
func (r *Registry) ListNodeTypes() []model.NodeType {
	return r.store.ListNodeTypes()
}

// GetNodeType looks a node type up by name or by "<module>/<name>" id. An
// argument containing a slash is only ever read as an id.
func (r *Registry) GetNodeType(id string) (model.NodeType, bool) {
	module, name, found := strings.Cut(id, "/")
	if !found {
		return r.store.GetNodeType(id)
	}
	nt, ok := r.store.GetNodeType(name)
	if !ok || nt.Module != module {
		return model.NodeType{}, false
	}
	return nt, true
}

// Snapshot returns a consistent view of the whole registry.
func (r *Registry) Snapshot() model.Snapshot {
	return r.store.Snapshot()
}
