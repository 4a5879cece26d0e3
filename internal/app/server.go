package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start serves HTTP on the configured address. The returned channel closes on
// SIGINT, SIGTERM or SIGHUP, after which the caller should call Stop.
func (a *App) Start() <-chan struct{} {
	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			fatal("http server stopped unexpectedly", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)

		ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		<-ctx.Done()
		slog.Info("termination signal received")
	}()

	return done
}

// Serve runs the HTTP server on an existing listener.
func (a *App) Serve(l net.Listener) <-chan error {
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		errs <- a.httpServer.Serve(l)
	}()
	return errs
}

// Stop drains in-flight requests, then releases resources in closer order.
// Failures are logged and do not stop the remaining closers.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	all := append([]closer{{"http server", a.httpServer.Shutdown}}, a.closers...)
	for _, c := range all {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to release resource", "name", c.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application gracefully shutdown")
}
