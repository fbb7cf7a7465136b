package installer

import (
	"context"
	"errors"
	"sync"

	"github.com/specialistvlad/nodereg/internal/ctxlog"
	"github.com/specialistvlad/nodereg/internal/manifest"
	"github.com/specialistvlad/nodereg/internal/model"
	"github.com/specialistvlad/nodereg/internal/regerr"
)

// Lookup is the read-only view of the registry the gateway needs for its
// preconditions.
type Lookup interface {
	HasModule(name string) bool
}

// CommitFunc hands a fully parsed module to the registry. It runs while the
// gateway still holds the claim on the module name. If it fails the gateway
// rolls the installation back.
type CommitFunc func(ctx context.Context, mod model.Module) (model.Module, error)

// ParseFunc turns an installed package directory into a module descriptor.
type ParseFunc func(ctx context.Context, dir string) (model.Module, error)

// Gateway serialises install and uninstall per module name in front of an
// Installer. A request for a name that already has an operation in flight is
// rejected with OperationInProgress rather than queued. Unrelated names
// proceed in parallel.
//
// Install, uninstall and load take an exclusive claim on the name. Node type
// transitions take a shared claim through Hold, so several may run at once
// but never alongside an exclusive one.
type Gateway struct {
	installer Installer
	parse     ParseFunc

	mu       sync.Mutex
	inflight map[string]struct{}
	holds    map[string]int
}

// NewGateway creates a Gateway that parses packages with manifest.Load.
func NewGateway(inst Installer) *Gateway {
	return &Gateway{
		installer: inst,
		parse:     manifest.Load,
		inflight:  make(map[string]struct{}),
		holds:     make(map[string]int),
	}
}

// WithParser replaces the manifest parser. It is meant for tests.
func (g *Gateway) WithParser(parse ParseFunc) *Gateway {
	g.parse = parse
	return g
}

func (g *Gateway) claim(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[name]; busy || g.holds[name] > 0 {
		return false
	}
	g.inflight[name] = struct{}{}
	return true
}

func (g *Gateway) release(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, name)
}

// Hold takes a shared claim on name for the duration of a node type
// transition. It fails with OperationInProgress while an install, uninstall
// or load of name is in flight. The returned function releases the claim.
func (g *Gateway) Hold(name string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[name]; busy {
		return nil, regerr.New(regerr.KindOperationInProgress, "an operation on module '%s' is already in progress", name)
	}
	g.holds[name]++

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.holds[name]--; g.holds[name] <= 0 {
				delete(g.holds, name)
			}
		})
	}, nil
}

// InFlight reports whether an install, uninstall or load currently holds the
// exclusive claim on name.
func (g *Gateway) InFlight(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inflight[name]
	return busy
}

// Install installs the package called name, parses its manifest and commits
// the resulting module. On any failure after the installer succeeded the
// package is uninstalled again, so the caller sees all or nothing.
func (g *Gateway) Install(ctx context.Context, name string, lookup Lookup, commit CommitFunc) (model.Module, error) {
	logger := ctxlog.FromContext(ctx).With("module", name)

	if !ValidName(name) {
		return model.Module{}, regerr.New(regerr.KindInvalidRequest, "invalid module name '%s'", name)
	}
	if !g.claim(name) {
		return model.Module{}, regerr.New(regerr.KindOperationInProgress, "an operation on module '%s' is already in progress", name)
	}
	defer g.release(name)

	if lookup.HasModule(name) {
		return model.Module{}, regerr.New(regerr.KindModuleAlreadyLoaded, "module '%s' is already loaded", name)
	}

	logger.Debug("Installing package.")
	pkg, err := g.installer.Install(ctx, name)
	if err != nil {
		return model.Module{}, installFailure(err, name)
	}

	mod, err := g.parse(ctx, pkg.Path)
	if err != nil {
		g.rollback(ctx, name)
		return model.Module{}, regerr.Wrap(regerr.KindInstallFailure, err, "failed to load module '%s'", name)
	}
	if mod.Name != name {
		g.rollback(ctx, name)
		return model.Module{}, regerr.New(regerr.KindInstallFailure, "package '%s' declares module '%s'", name, mod.Name)
	}
	if len(mod.NodeTypes) == 0 {
		g.rollback(ctx, name)
		return model.Module{}, regerr.New(regerr.KindInstallFailure, "module '%s' contributes no node types", name).WithCode(regerr.CodeNoUsableTypes)
	}
	mod.Path = pkg.Path

	committed, err := commit(ctx, mod)
	if err != nil {
		g.rollback(ctx, name)
		var re *regerr.Error
		if errors.As(err, &re) {
			return model.Module{}, re
		}
		return model.Module{}, regerr.Wrap(regerr.KindInstallFailure, err, "failed to register module '%s'", name)
	}

	logger.Debug("Package installed and committed.", "node_types", len(committed.NodeTypes))
	return committed, nil
}

// Uninstall removes the package called name and then runs commit to purge it
// from the registry. If the installer fails, commit is not called.
func (g *Gateway) Uninstall(ctx context.Context, name string, lookup Lookup, commit func(ctx context.Context) error) error {
	if !g.claim(name) {
		return regerr.New(regerr.KindOperationInProgress, "an operation on module '%s' is already in progress", name)
	}
	defer g.release(name)

	if !lookup.HasModule(name) {
		return regerr.New(regerr.KindModuleNotFound, "module '%s' not found", name)
	}

	ctxlog.FromContext(ctx).Debug("Uninstalling package.", "module", name)
	if err := g.installer.Uninstall(ctx, name); err != nil {
		re := regerr.Wrap(regerr.KindUninstallFailure, err, "failed to uninstall module '%s'", name)
		var ie *Error
		if errors.As(err, &ie) {
			re = re.WithCode(regerr.Code(ie.Code))
		}
		return re
	}

	return commit(ctx)
}

// Load adopts packages that are already installed. Packages whose manifest
// cannot be parsed are committed with a module-level error and no node types.
// Commit failures are logged and do not stop the remaining packages.
func (g *Gateway) Load(ctx context.Context, commit CommitFunc) error {
	logger := ctxlog.FromContext(ctx)

	pkgs, err := g.installer.Installed(ctx)
	if err != nil {
		return err
	}

	for _, pkg := range pkgs {
		if !g.claim(pkg.Name) {
			logger.Warn("Skipping package with an operation in progress.", "module", pkg.Name)
			continue
		}

		mod, err := g.parse(ctx, pkg.Path)
		switch {
		case err != nil:
			logger.Warn("Failed to load installed module.", "module", pkg.Name, "error", err)
			mod = model.Module{Name: pkg.Name, Err: err.Error()}
		case mod.Name != pkg.Name:
			logger.Warn("Installed package declares a different module name.", "module", pkg.Name, "declared", mod.Name)
			mod = model.Module{Name: pkg.Name, Err: "package declares module '" + mod.Name + "'"}
		}
		mod.Path = pkg.Path

		if _, err := commit(ctx, mod); err != nil {
			logger.Warn("Failed to register installed module.", "module", pkg.Name, "error", err)
		}
		g.release(pkg.Name)
	}
	return nil
}

// rollback undoes a successful installer call. It ignores cancellation of
// ctx because a half-installed package must not be left behind.
func (g *Gateway) rollback(ctx context.Context, name string) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Rolling back package installation.", "module", name)
	if err := g.installer.Uninstall(context.WithoutCancel(ctx), name); err != nil {
		logger.Error("Failed to roll back package installation.", "module", name, "error", err)
	}
}

func installFailure(err error, name string) *regerr.Error {
	re := regerr.Wrap(regerr.KindInstallFailure, err, "failed to install module '%s'", name)
	var ie *Error
	if errors.As(err, &ie) {
		re = re.WithCode(regerr.Code(ie.Code))
	}
	return re
}
