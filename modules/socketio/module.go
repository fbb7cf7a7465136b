// Package socketio provides the "socketio" handler, a node type that emits
// messages to a socket.io server.
package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/nodereg/internal/ctxlog"
	"github.com/specialistvlad/nodereg/internal/handlers"
	"github.com/specialistvlad/nodereg/internal/model"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Module implements the handlers.Module interface for this package.
type Module struct{}

// probeTimeout bounds the connection check made when 'probe' is set.
const probeTimeout = 15 * time.Second

// InitSocketIO validates the default 'url'. When the node type declares
// 'probe = true' it also connects once to make sure the server is reachable.
func InitSocketIO(ctx context.Context, nt model.NodeType) error {
	raw, ok := handlers.StringDefault(nt, "url")
	if !ok || raw == "" {
		return nil
	}

	parsedURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	switch parsedURL.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("unsupported URL scheme '%s'", parsedURL.Scheme)
	}

	if probe, _ := handlers.BoolDefault(nt, "probe"); !probe {
		return nil
	}
	namespace, _ := handlers.StringDefault(nt, "namespace")
	insecure, _ := handlers.BoolDefault(nt, "insecure_skip_verify")
	return probeServer(ctx, parsedURL, namespace, insecure)
}

func probeServer(ctx context.Context, parsedURL *url.URL, namespace string, insecure bool) error {
	logger := ctxlog.FromContext(ctx).With("url", parsedURL.String())

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if insecure {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)
	defer io.Disconnect()

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Probe connected.", "sid", io.Id())
		report(connectChan, nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connection refused")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		report(connectChan, err)
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			return fmt.Errorf("socket.io connection failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(probeTimeout):
		return fmt.Errorf("timed out after %s waiting for socket.io connection", probeTimeout)
	}
}

// report hands the first connection result to the waiting probe. Later
// results, or results arriving after the probe gave up, are discarded.
func report(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// Register registers the handler.
func (m *Module) Register(r *handlers.Handlers) {
	r.RegisterHandler("socketio", &handlers.Handler{
		Description: "Emits the message payload to a socket.io server.",
		Init:        InitSocketIO,
	})
}
