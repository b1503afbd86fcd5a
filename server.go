package turbo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Listen boots the application (Configuring -> Serving) and blocks serving
// HTTP until ctx is canceled, then drains (Serving -> Draining -> Stopped)
// within the configured shutdown timeout (§4.D).
func (a *App) Listen(ctx context.Context) error {
	if err := a.boot(ctx); err != nil {
		return err
	}

	server := &http.Server{Addr: a.config.addr, Handler: a.router}

	serverErr := make(chan error, 1)
	ready := make(chan struct{})
	go func() {
		a.printBanner(a.config.addr)
		close(ready)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("turbo: server failed: %w", err)
		}
	}()

	<-ready
	a.runBootHooks()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		a.logger.Info(context.Background(), "shutting down", "reason", ctx.Err())
	}

	if err := a.transition(Draining); err != nil {
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.shutdownTimeout)
	defer cancel()

	a.runShutdownHooks(shutdownCtx)

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("turbo: server forced to shutdown: %w", err)
	}

	a.runStopHooks()

	if err := a.cache.Close(); err != nil {
		a.logger.Warn(context.Background(), "cache driver close failed", "error", err)
	}

	return a.transition(Stopped)
}

// Run is Listen wired to a context canceled on SIGINT/SIGTERM — the usual
// entry point for a standalone binary.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Listen(ctx)
}
