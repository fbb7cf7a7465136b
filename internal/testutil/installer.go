package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/specialistvlad/nodereg/internal/installer"
	"github.com/specialistvlad/nodereg/internal/model"
)

const fakeScheme = "fake://"

// FakeInstaller is an in-memory Installer backed by a catalog of module
// descriptors. Its Parse method stands in for manifest parsing.
type FakeInstaller struct {
	mu           sync.Mutex
	catalog      map[string]model.Module
	parseErrs    map[string]error
	installErrs  map[string]error
	uninstallErr map[string]error
	installed    map[string]bool

	// Block, when set, makes Install wait until it is closed. Started
	// receives the package name once Install is entered.
	Block   chan struct{}
	Started chan string
}

// NewFakeInstaller creates a FakeInstaller whose catalog holds mods.
func NewFakeInstaller(mods ...model.Module) *FakeInstaller {
	f := &FakeInstaller{
		catalog:      make(map[string]model.Module),
		parseErrs:    make(map[string]error),
		installErrs:  make(map[string]error),
		uninstallErr: make(map[string]error),
		installed:    make(map[string]bool),
	}
	for _, m := range mods {
		f.catalog[m.Name] = m.Clone()
	}
	return f
}

// Gateway returns an installer.Gateway in front of f that parses with f.Parse.
func (f *FakeInstaller) Gateway() *installer.Gateway {
	return installer.NewGateway(f).WithParser(f.Parse)
}

// AddToCatalog makes m installable.
func (f *FakeInstaller) AddToCatalog(m model.Module) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog[m.Name] = m.Clone()
}

// Preinstall marks name as already installed, as if by a previous run.
func (f *FakeInstaller) Preinstall(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installed[name] = true
}

// FailInstall makes Install of name fail with err.
func (f *FakeInstaller) FailInstall(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installErrs[name] = err
}

// FailUninstall makes Uninstall of name fail with err.
func (f *FakeInstaller) FailUninstall(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uninstallErr[name] = err
}

// FailParse makes parsing the package name fail with err.
func (f *FakeInstaller) FailParse(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parseErrs[name] = err
}

// IsInstalled reports whether name is currently installed.
func (f *FakeInstaller) IsInstalled(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.installed[name]
}

// Install implements installer.Installer.
func (f *FakeInstaller) Install(ctx context.Context, name string) (installer.Package, error) {
	if f.Started != nil {
		f.Started <- name
	}
	if f.Block != nil {
		<-f.Block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.installErrs[name]; err != nil {
		return installer.Package{}, err
	}
	if _, ok := f.catalog[name]; !ok {
		return installer.Package{}, &installer.Error{Code: installer.CodeNotFound, Op: "install", Name: name, Err: installer.ErrPackageNotFound}
	}
	f.installed[name] = true
	return installer.Package{Name: name, Path: fakeScheme + name}, nil
}

// Uninstall implements installer.Installer.
func (f *FakeInstaller) Uninstall(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.uninstallErr[name]; err != nil {
		return err
	}
	if !f.installed[name] {
		return &installer.Error{Code: installer.CodeNotFound, Op: "uninstall", Name: name, Err: installer.ErrPackageNotFound}
	}
	delete(f.installed, name)
	return nil
}

// Installed implements installer.Installer.
func (f *FakeInstaller) Installed(ctx context.Context) ([]installer.Package, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.installed))
	for name := range f.installed {
		names = append(names, name)
	}
	sort.Strings(names)

	pkgs := make([]installer.Package, 0, len(names))
	for _, name := range names {
		pkgs = append(pkgs, installer.Package{Name: name, Path: fakeScheme + name})
	}
	return pkgs, nil
}

// Parse returns the catalog descriptor of the package at dir.
func (f *FakeInstaller) Parse(ctx context.Context, dir string) (model.Module, error) {
	name := strings.TrimPrefix(dir, fakeScheme)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.parseErrs[name]; err != nil {
		return model.Module{}, err
	}
	m, ok := f.catalog[name]
	if !ok {
		return model.Module{}, errors.New("no manifest in " + dir)
	}
	return m.Clone(), nil
}
