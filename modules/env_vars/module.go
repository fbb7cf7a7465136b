// Package env_vars provides the "env" handler, a node type that injects an
// environment variable into messages.
package env_vars

import (
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/nodereg/internal/ctxlog"
	"github.com/specialistvlad/nodereg/internal/handlers"
	"github.com/specialistvlad/nodereg/internal/model"
)

// Module implements the handlers.Module interface for this package.
type Module struct{}

// InitEnv requires the variable named by the 'variable' default to be set
// when the node type also declares 'required = true'.
func InitEnv(ctx context.Context, nt model.NodeType) error {
	name, ok := handlers.StringDefault(nt, "variable")
	if !ok || name == "" {
		return nil
	}
	if required, _ := handlers.BoolDefault(nt, "required"); !required {
		return nil
	}
	if _, set := os.LookupEnv(name); !set {
		return fmt.Errorf("environment variable '%s' is not set", name)
	}
	ctxlog.FromContext(ctx).Debug("Environment variable present.", "node_type", nt.ID(), "variable", name)
	return nil
}

// Register registers the handler.
func (m *Module) Register(r *handlers.Handlers) {
	r.RegisterHandler("env", &handlers.Handler{
		Description: "Reads an environment variable into the message.",
		Init:        InitEnv,
	})
}
