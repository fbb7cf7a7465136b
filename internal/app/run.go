package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/nodereg/internal/ctxlog"
)

// Run loads the installed modules, serves HTTP until ctx is cancelled, and
// then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	notifyCtx, stopNotifier := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.notifier.Run(notifyCtx)
	}()

	if err := a.registry.Load(ctx); err != nil {
		stopNotifier()
		wg.Wait()
		a.closeStores()
		return fmt.Errorf("failed to load installed modules: %w", err)
	}

	errCh := a.startServer()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown requested.")
	case err := <-errCh:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownErr := a.closeServer(ctx)
	a.bus.Close()
	stopNotifier()
	wg.Wait()
	a.closeStores()

	a.logger.Debug("App.Run method finished.")
	return errors.Join(runErr, shutdownErr)
}

func (a *App) closeStores() {
	if err := a.settings.Close(); err != nil {
		a.logger.Warn("Failed to close settings store.", "error", err)
	}
}
