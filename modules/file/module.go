// Package file provides the "file" handler, a node type that appends
// messages to a file on disk.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/nodereg/internal/ctxlog"
	"github.com/specialistvlad/nodereg/internal/handlers"
	"github.com/specialistvlad/nodereg/internal/model"
)

// Module implements the handlers.Module interface for this package.
type Module struct{}

// InitFile checks that the directory of the node type's default 'filename'
// exists. A node type without a default filename is configured per instance
// and needs no preparation.
func InitFile(ctx context.Context, nt model.NodeType) error {
	name, ok := handlers.StringDefault(nt, "filename")
	if !ok || name == "" {
		return nil
	}

	dir := filepath.Dir(name)
	ctxlog.FromContext(ctx).Debug("Checking output directory.", "node_type", nt.ID(), "dir", dir)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output directory '%s' is not accessible: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output path '%s' is not a directory", dir)
	}
	return nil
}

// Register registers the handler.
func (m *Module) Register(r *handlers.Handlers) {
	r.RegisterHandler("file", &handlers.Handler{
		Description: "Appends the message payload to a file.",
		Init:        InitFile,
	})
}
