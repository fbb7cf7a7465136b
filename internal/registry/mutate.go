package registry

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/specialistvlad/nodereg/internal/ctxlog"
	"github.com/specialistvlad/nodereg/internal/handlerstate"
	"github.com/specialistvlad/nodereg/internal/model"
	"github.com/specialistvlad/nodereg/internal/modulestore"
	"github.com/specialistvlad/nodereg/internal/notifier"
	"github.com/specialistvlad/nodereg/internal/regerr"
	"go.opentelemetry.io/otel/attribute"
)

// ModuleResult is the outcome of SetModuleEnabled.
type ModuleResult struct {
	// Module is the module as it is after all transitions.
	Module model.Module
	// Outcomes holds one entry per node type, in declaration order.
	Outcomes []handlerstate.Outcome
}

// Failed returns the outcomes that carry an error.
func (m ModuleResult) Failed() []handlerstate.Outcome {
	var out []handlerstate.Outcome
	for _, o := range m.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// InstallModule installs the package called name and registers the node
// types it declares. Every node type is initialised; the install fails as a
// whole, leaving the registry unchanged, if none of them comes up enabled.
func (r *Registry) InstallModule(ctx context.Context, name string) (mod model.Module, err error) {
	ctx, op := r.begin(ctx, "install", attribute.String("module", name))
	defer func() { op.end(err) }()
	logger := ctxlog.FromContext(ctx).With("module", name)

	if err := r.checkPrecondition(); err != nil {
		return model.Module{}, err
	}

	mod, err = r.gateway.Install(ctx, name, r.store, func(ctx context.Context, mod model.Module) (model.Module, error) {
		if err := r.checkTypeConflicts(mod); err != nil {
			return model.Module{}, err
		}
		for i, nt := range mod.NodeTypes {
			nt.Module = mod.Name
			out := r.machine.Apply(ctx, nt, true)
			if out.Err != nil {
				logger.Warn("Failed to enable node type.", "node_type", nt.Name, "error", out.NodeType.Err())
			}
			mod.NodeTypes[i] = out.NodeType
		}
		if mod.UsableCount() == 0 {
			return model.Module{}, regerr.New(regerr.KindInstallFailure, "module '%s' contributes no usable node types", mod.Name).
				WithCode(regerr.CodeNoUsableTypes)
		}
		if err := r.store.UpsertModule(mod); err != nil {
			return model.Module{}, storeError(err)
		}
		for _, nt := range mod.NodeTypes {
			r.persist(ctx, mod.Name, nt.Name, true)
		}
		stored, _ := r.store.GetModule(mod.Name)
		return stored, nil
	})
	if err != nil {
		logger.Warn("Failed to install module.", "error", err)
		return model.Module{}, err
	}

	r.emitter.Emit(ctx, notifier.NewEvent(notifier.KindNodeAdded, mod.Name, mod.View()))
	logger.Info("Installed module.", "version", mod.Version, "node_types", mod.TypeNames())
	return mod, nil
}

// UninstallModule removes the named module and all its node types.
func (r *Registry) UninstallModule(ctx context.Context, name string) (err error) {
	ctx, op := r.begin(ctx, "uninstall", attribute.String("module", name))
	defer func() { op.end(err) }()
	logger := ctxlog.FromContext(ctx).With("module", name)

	if err := r.checkPrecondition(); err != nil {
		return err
	}

	err = r.gateway.Uninstall(ctx, name, r.store, func(ctx context.Context) error {
		mod, ok := r.store.GetModule(name)
		if !ok {
			return regerr.New(regerr.KindModuleNotFound, "module '%s' not found", name)
		}
		for _, nt := range mod.NodeTypes {
			r.emitter.Emit(ctx, notifier.NewEvent(notifier.KindNodeRemoved, nt.ID(), nt.View()))
		}
		r.emitter.Emit(ctx, notifier.NewEvent(notifier.KindModuleRemoved, mod.Name, mod.View()))

		r.store.RemoveModule(name)
		if err := r.settings.DeleteModule(ctx, name); err != nil {
			logger.Warn("Failed to forget persisted node state.", "error", err)
		}
		return nil
	})
	if err != nil {
		logger.Warn("Failed to uninstall module.", "error", err)
		return err
	}

	logger.Info("Uninstalled module.")
	return nil
}

// SetEnabled enables or disables a single node type, addressed by name or
// "<module>/<name>" id. Requesting the state the node type is already in is
// a no-op that emits nothing. A failed enable returns the node type, now in
// the error state, together with a HandlerInitFailure.
func (r *Registry) SetEnabled(ctx context.Context, id string, enabled bool) (nt model.NodeType, err error) {
	ctx, op := r.begin(ctx, "set_enabled", attribute.String("node_type", id), attribute.Bool("enabled", enabled))
	defer func() { op.end(err) }()

	if err := r.checkPrecondition(); err != nil {
		return model.NodeType{}, err
	}
	current, ok := r.GetNodeType(id)
	if !ok {
		return model.NodeType{}, regerr.New(regerr.KindNodeTypeNotFound, "node type '%s' not found", id)
	}
	release, err := r.holdModule(current.Module)
	if err != nil {
		return model.NodeType{}, err
	}
	defer release()

	out := r.setEnabled(ctx, current.Module, current.Name, enabled)
	if out.Changed {
		r.logTransitions(ctx, []handlerstate.Outcome{out})
	}
	return out.NodeType, out.Err
}

// SetModuleEnabled applies SetEnabled to every node type of a module. Node
// types are handled concurrently and independently; a failure of one does
// not stop the others. Per-type failures are reported in the result, not as
// the returned error.
func (r *Registry) SetModuleEnabled(ctx context.Context, name string, enabled bool) (res ModuleResult, err error) {
	ctx, op := r.begin(ctx, "set_module_enabled", attribute.String("module", name), attribute.Bool("enabled", enabled))
	defer func() { op.end(err) }()

	if err := r.checkPrecondition(); err != nil {
		return ModuleResult{}, err
	}
	release, err := r.holdModule(name)
	if err != nil {
		return ModuleResult{}, err
	}
	defer release()

	mod, ok := r.store.GetModule(name)
	if !ok {
		return ModuleResult{}, regerr.New(regerr.KindModuleNotFound, "module '%s' not found", name)
	}

	outcomes := make([]handlerstate.Outcome, len(mod.NodeTypes))
	var wg sync.WaitGroup
	for i, nt := range mod.NodeTypes {
		wg.Add(1)
		go func(i int, typeName string) {
			defer wg.Done()
			outcomes[i] = r.setEnabled(ctx, name, typeName, enabled)
		}(i, nt.Name)
	}
	wg.Wait()

	r.logTransitions(ctx, outcomes)

	refreshed, ok := r.store.GetModule(name)
	if !ok {
		return ModuleResult{}, regerr.New(regerr.KindModuleNotFound, "module '%s' not found", name)
	}
	return ModuleResult{Module: refreshed, Outcomes: outcomes}, nil
}

// setEnabled runs one transition under the node type's lock and publishes
// the result. The caller holds the module. The node type must still belong
// to module when the lock is taken.
func (r *Registry) setEnabled(ctx context.Context, module, typeName string, enabled bool) handlerstate.Outcome {
	unlock := r.types.lock(typeName)
	defer unlock()

	current, ok := r.store.GetNodeType(typeName)
	if !ok || current.Module != module {
		return handlerstate.Outcome{
			NodeType: model.NodeType{Name: typeName},
			Err:      regerr.New(regerr.KindNodeTypeNotFound, "node type '%s' not found", typeName),
		}
	}

	out := r.machine.Transition(ctx, current, enabled)
	if !out.Changed {
		return out
	}
	if _, ok := r.store.ReplaceNodeType(out.NodeType); !ok {
		return handlerstate.Outcome{
			NodeType: current,
			Err:      regerr.New(regerr.KindNodeTypeNotFound, "node type '%s' was removed", typeName),
		}
	}

	r.persist(ctx, current.Module, typeName, enabled)
	r.emitter.Emit(ctx, notifier.NewEvent(stateKind(out.NodeType.State()), out.NodeType.ID(), out.NodeType.View()))
	return out
}

// persist records the requested flag. A failed enable is stored as enabled
// so the next start retries it.
func (r *Registry) persist(ctx context.Context, module, nodeType string, enabled bool) {
	if r.settings == nil {
		return
	}
	if err := r.settings.SaveNodeState(ctx, module, nodeType, enabled); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to persist node state.", "node_type", nodeType, "error", err)
	}
}

// logTransitions writes the enabled and disabled node types one per line,
// and a warning for every failure.
func (r *Registry) logTransitions(ctx context.Context, outcomes []handlerstate.Outcome) {
	logger := ctxlog.FromContext(ctx)
	var enabled, disabled []string
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			logger.Warn("Failed to enable node type.", "node_type", o.NodeType.Name, "error", o.Err)
		case !o.Changed:
		case o.NodeType.Enabled():
			enabled = append(enabled, o.NodeType.Name)
		default:
			disabled = append(disabled, o.NodeType.Name)
		}
	}
	if len(enabled) > 0 {
		logger.Info("Enabled node types:\n - " + strings.Join(enabled, "\n - "))
	}
	if len(disabled) > 0 {
		logger.Info("Disabled node types:\n - " + strings.Join(disabled, "\n - "))
	}
}

func stateKind(s model.State) notifier.Kind {
	switch s {
	case model.StateEnabled:
		return notifier.KindNodeEnabled
	case model.StateError:
		return notifier.KindNodeError
	default:
		return notifier.KindNodeDisabled
	}
}

// storeError converts a module table failure into a registry error.
func storeError(err error) error {
	var conflict *modulestore.TypeConflictError
	if errors.As(err, &conflict) {
		return regerr.Wrap(regerr.KindInstallFailure, err, "failed to register module").WithCode(regerr.CodeTypeAlreadyRegistered)
	}
	return regerr.Wrap(regerr.KindInstallFailure, err, "failed to register module")
}
