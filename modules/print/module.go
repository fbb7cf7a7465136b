// Package print provides the "print" handler, a node type that writes its
// input to the log. It has nothing to prepare, so initialisation always
// succeeds.
package print

import (
	"context"

	"github.com/specialistvlad/nodereg/internal/ctxlog"
	"github.com/specialistvlad/nodereg/internal/handlers"
	"github.com/specialistvlad/nodereg/internal/model"
)

// Module implements the handlers.Module interface for this package.
type Module struct{}

// InitPrint is the init hook for the 'print' handler.
func InitPrint(ctx context.Context, nt model.NodeType) error {
	ctxlog.FromContext(ctx).Debug("Print handler ready.", "node_type", nt.ID())
	return nil
}

// Register registers the handler.
func (m *Module) Register(r *handlers.Handlers) {
	r.RegisterHandler("print", &handlers.Handler{
		Description: "Writes the message payload to the log.",
		Init:        InitPrint,
	})
}
