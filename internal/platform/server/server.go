// Package server runs an http.Server until the process is asked to stop.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownTimeout bounds draining connections plus all cleanup functions.
const ShutdownTimeout = 10 * time.Second

// Cleanup releases a resource during shutdown, after the server has stopped
// accepting requests.
type Cleanup func(ctx context.Context) error

// Run serves srv until SIGINT or SIGTERM, then shuts it down and runs cleanup
// in order.
func Run(srv *http.Server, log *slog.Logger, cleanup ...Cleanup) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return serve(ctx, srv, ln, log, cleanup...)
}

func serve(ctx context.Context, srv *http.Server, ln net.Listener, log *slog.Logger, cleanup ...Cleanup) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	for _, c := range cleanup {
		if err := c(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}
