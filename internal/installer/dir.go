package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/nodereg/internal/ctxlog"
	"github.com/specialistvlad/nodereg/internal/fsutil"
)

// DirInstaller installs packages by copying them from a local catalog
// directory (one subdirectory per package) into an install directory.
type DirInstaller struct {
	CatalogDir string
	InstallDir string
}

// NewDirInstaller creates a DirInstaller.
func NewDirInstaller(catalogDir, installDir string) *DirInstaller {
	return &DirInstaller{CatalogDir: catalogDir, InstallDir: installDir}
}

// Install copies <catalog>/<name> to <install>/<name>.
func (d *DirInstaller) Install(ctx context.Context, name string) (Package, error) {
	logger := ctxlog.FromContext(ctx).With("package", name)
	if !ValidName(name) {
		return Package{}, &Error{Code: CodeInvalidName, Op: "install", Name: name, Err: fmt.Errorf("invalid package name")}
	}

	src := filepath.Join(d.CatalogDir, name)
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return Package{}, &Error{Code: CodeNotFound, Op: "install", Name: name, Err: ErrPackageNotFound}
	}

	dst := filepath.Join(d.InstallDir, name)
	if _, err := os.Stat(dst); err == nil {
		return Package{}, &Error{Code: CodeAlreadyInstalled, Op: "install", Name: name, Err: fmt.Errorf("package directory %s already exists", dst)}
	}

	if err := os.MkdirAll(d.InstallDir, 0o755); err != nil {
		return Package{}, &Error{Op: "install", Name: name, Err: err}
	}

	logger.Debug("Copying package from catalog.", "from", src, "to", dst)
	if err := fsutil.CopyDir(src, dst); err != nil {
		_ = os.RemoveAll(dst)
		return Package{}, &Error{Op: "install", Name: name, Err: err}
	}

	return Package{Name: name, Path: dst}, nil
}

// Uninstall removes <install>/<name>.
func (d *DirInstaller) Uninstall(ctx context.Context, name string) error {
	if !ValidName(name) {
		return &Error{Code: CodeInvalidName, Op: "uninstall", Name: name, Err: fmt.Errorf("invalid package name")}
	}
	dst := filepath.Join(d.InstallDir, name)
	if _, err := os.Stat(dst); err != nil {
		return &Error{Code: CodeNotFound, Op: "uninstall", Name: name, Err: ErrPackageNotFound}
	}

	ctxlog.FromContext(ctx).Debug("Removing package directory.", "package", name, "path", dst)
	if err := os.RemoveAll(dst); err != nil {
		return &Error{Op: "uninstall", Name: name, Err: err}
	}
	return nil
}

// Installed lists every valid package directory under the install dir.
func (d *DirInstaller) Installed(ctx context.Context) ([]Package, error) {
	dirs, err := fsutil.SubDirs(d.InstallDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list install dir %s: %w", d.InstallDir, err)
	}

	logger := ctxlog.FromContext(ctx)
	pkgs := make([]Package, 0, len(dirs))
	for _, name := range dirs {
		if !ValidName(name) {
			logger.Warn("Ignoring directory with invalid package name.", "dir", name)
			continue
		}
		pkgs = append(pkgs, Package{Name: name, Path: filepath.Join(d.InstallDir, name)})
	}
	return pkgs, nil
}
