package registry

import (
	"context"

	"github.com/specialistvlad/nodereg/internal/ctxlog"
	"github.com/specialistvlad/nodereg/internal/model"
	"github.com/specialistvlad/nodereg/internal/notifier"
)

// LoadSummary is the payload of the retained registry/loaded event.
type LoadSummary struct {
	Modules   int `json:"modules"`
	NodeTypes int `json:"node_types"`
	Enabled   int `json:"enabled"`
	Errors    int `json:"errors"`
}

// Load adopts the packages that are already installed, restoring each node
// type's persisted enabled flag. Node types without a persisted flag start
// enabled. A package that cannot be loaded is recorded as a module with an
// error and no node types. Load does not require settings to be writable.
func (r *Registry) Load(ctx context.Context) (err error) {
	ctx, op := r.begin(ctx, "load")
	defer func() { op.end(err) }()
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading installed modules...")

	persisted := map[string]bool{}
	if r.settings != nil {
		states, err := r.settings.NodeStates(ctx)
		if err != nil {
			logger.Warn("Failed to read persisted node state, starting with defaults.", "error", err)
		} else {
			persisted = states
		}
	}

	err = r.gateway.Load(ctx, func(ctx context.Context, mod model.Module) (model.Module, error) {
		if mod.Err == "" {
			if err := r.checkTypeConflicts(mod); err != nil {
				logger.Warn("Module declares a node type owned by another module.", "module", mod.Name, "error", err)
				mod = model.Module{Name: mod.Name, Version: mod.Version, Path: mod.Path, Err: err.Error()}
			}
		}

		for i, nt := range mod.NodeTypes {
			nt.Module = mod.Name
			enabled, ok := persisted[nt.Name]
			if !ok {
				enabled = true
			}
			out := r.machine.Apply(ctx, nt, enabled)
			if out.Err != nil {
				logger.Warn("Failed to enable node type.", "module", mod.Name, "node_type", nt.Name, "error", out.NodeType.Err())
			}
			mod.NodeTypes[i] = out.NodeType
		}

		if err := r.store.UpsertModule(mod); err != nil {
			return model.Module{}, storeError(err)
		}
		logger.Debug("Loaded module.", "module", mod.Name, "node_types", mod.TypeNames(), "err", mod.Err)
		return mod, nil
	})
	if err != nil {
		logger.Error("Failed to list installed modules.", "error", err)
		return err
	}

	summary := r.summary()
	loaded := notifier.NewEvent(notifier.KindRegistryLoaded, "", summary)
	loaded.Retain = true
	r.emitter.Emit(ctx, loaded)

	logger.Info("Registry loaded.", "modules", summary.Modules, "node_types", summary.NodeTypes, "enabled", summary.Enabled, "errors", summary.Errors)
	return nil
}

func (r *Registry) summary() LoadSummary {
	snap := r.store.Snapshot()
	counts := snap.CountByState()
	return LoadSummary{
		Modules:   len(snap.Modules),
		NodeTypes: len(snap.NodeTypes()),
		Enabled:   counts[model.StateEnabled],
		Errors:    counts[model.StateError],
	}
}
