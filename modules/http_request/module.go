// Package http_request provides the "http_request" handler, a node type that
// sends messages to an HTTP endpoint.
package http_request

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/specialistvlad/nodereg/internal/ctxlog"
	"github.com/specialistvlad/nodereg/internal/handlers"
	"github.com/specialistvlad/nodereg/internal/model"
)

// Module implements the handlers.Module interface for this package.
type Module struct{}

var methods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
	http.MethodHead:   true,
}

// InitHttpRequest validates the defaults the node type declares for 'url',
// 'method' and 'timeout'.
func InitHttpRequest(ctx context.Context, nt model.NodeType) error {
	logger := ctxlog.FromContext(ctx).With("node_type", nt.ID())

	if raw, ok := handlers.StringDefault(nt, "url"); ok && raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("failed to parse URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("unsupported URL scheme '%s'", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("URL '%s' has no host", raw)
		}
	}

	if method, ok := handlers.StringDefault(nt, "method"); ok && method != "" {
		if !methods[strings.ToUpper(method)] {
			return fmt.Errorf("unsupported HTTP method '%s'", method)
		}
	}

	if raw, ok := handlers.StringDefault(nt, "timeout"); ok && raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", raw)
		}
	}

	logger.Debug("HTTP request handler ready.")
	return nil
}

// Register registers the handler.
func (m *Module) Register(r *handlers.Handlers) {
	r.RegisterHandler("http_request", &handlers.Handler{
		Description: "Sends the message payload to an HTTP endpoint.",
		Init:        InitHttpRequest,
	})
}
