package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/nodereg/internal/api"
	"github.com/specialistvlad/nodereg/internal/comms"
	"github.com/specialistvlad/nodereg/internal/ctxlog"
	"github.com/specialistvlad/nodereg/internal/handlers"
	"github.com/specialistvlad/nodereg/internal/installer"
	"github.com/specialistvlad/nodereg/internal/metrics"
	"github.com/specialistvlad/nodereg/internal/notifier"
	"github.com/specialistvlad/nodereg/internal/registry"
	"github.com/specialistvlad/nodereg/internal/settings"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	handlers *handlers.Handlers
	registry *registry.Registry
	notifier *notifier.Notifier
	bus      *comms.Bus
	settings *settings.Store
	promReg  *prometheus.Registry

	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, metrics registry
// and node registry. When no modules are given the core modules are
// registered.
func NewApp(outW io.Writer, cfg *Config, modules ...handlers.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	hs := handlers.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(hs)
	}
	logger.Debug("All handler modules registered.", "count", len(modules), "handlers", hs.Names())

	a := &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		handlers: hs,
		promReg:  prometheus.NewRegistry(),
	}

	opts := registry.Options{Initializer: hs}
	if cfg.SettingsPath != "" {
		var settingsOpts []settings.Option
		if cfg.ReadOnly {
			settingsOpts = append(settingsOpts, settings.ReadOnly())
		}
		store, err := settings.Open(ctx, cfg.SettingsPath, settingsOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to open settings: %w", err)
		}
		a.settings = store
		opts.Settings = store
	} else {
		logger.Warn("No settings path configured, node configuration cannot be changed.")
	}

	a.promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(a.promReg)
	opts.Metrics = m

	a.notifier = notifier.New(cfg.NotifyBuffer, notifier.WithDropHook(func(k notifier.Kind) {
		m.EventDropped(string(k))
	}))
	a.bus = comms.NewBus(ctx)
	a.notifier.Subscribe(a.bus)
	opts.Emitter = a.notifier

	opts.Gateway = installer.NewGateway(installer.NewDirInstaller(cfg.CatalogDir, cfg.InstallDir))
	a.registry = registry.New(opts)
	logger.Debug("Registry created.", "catalog_dir", cfg.CatalogDir, "install_dir", cfg.InstallDir)

	return a, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Handler returns the application's HTTP handler.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", a.healthHandler)
	r.Handle("/metrics", promhttp.HandlerFor(a.promReg, promhttp.HandlerOpts{}))
	r.Handle("/socket.io/*", a.bus.Handler())
	r.Mount("/", api.New(a.registry).Routes(a.logger))
	return r
}
