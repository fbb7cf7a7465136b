// Package installer wraps the external package installation mechanism.
//
// The Installer interface is the opaque transport that fetches or removes a
// package on disk. The Gateway sits in front of it and owns the registry-side
// contract: per-name serialisation of install/uninstall, precondition checks,
// manifest parsing, and all-or-nothing commit with rollback.
package installer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Package describes a package present on disk after installation.
type Package struct {
	Name string
	// Path is the package's installation directory.
	Path string
}

// Installer installs and removes packages.
type Installer interface {
	Install(ctx context.Context, name string) (Package, error)
	Uninstall(ctx context.Context, name string) error
	// Installed lists packages already present, e.g. from a previous run.
	Installed(ctx context.Context) ([]Package, error)
}

// Installer error codes.
const (
	CodeNotFound         = "404"
	CodeAlreadyInstalled = "already_installed"
	CodeInvalidName      = "invalid_name"
)

// ErrPackageNotFound is wrapped by installer errors for unknown packages.
var ErrPackageNotFound = errors.New("package not found")

// Error is a failure reported by an Installer, carrying the installer's own
// error code.
type Error struct {
	Code string
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// ValidName reports whether name is an acceptable package name. Names are
// lower-case, start with a letter or digit, and never contain path
// separators.
func ValidName(name string) bool {
	return len(name) <= 214 && namePattern.MatchString(name)
}
