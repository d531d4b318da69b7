package spanhttp

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

// Timeouts of the http server run by Serve.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Idle     time.Duration
	Shutdown time.Duration
}

// DefaultTimeouts returns the timeouts Serve uses when none are configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Read:     15 * time.Second,
		Write:    15 * time.Second,
		Idle:     60 * time.Second,
		Shutdown: 10 * time.Second,
	}
}

/*
Serve runs the server on listener until ctx is done, then shuts it down, waiting up
to timeouts.Shutdown for open requests. A server that stops on its own returns the
error that stopped it.
*/
func (server *Server) Serve(
	ctx context.Context, listener net.Listener, timeouts Timeouts,
) error {
	httpServer := &http.Server{
		Handler:           server,
		ReadTimeout:       timeouts.Read,
		ReadHeaderTimeout: timeouts.Read,
		WriteTimeout:      timeouts.Write,
		IdleTimeout:       timeouts.Idle,
		ErrorLog:          zap.NewStdLog(server.logger),
	}

	served := make(chan error, 1)
	go func() {
		server.logger.Info("listening", zap.Stringer("address", listener.Addr()))
		served <- httpServer.Serve(listener)
	}()

	select {
	case err := <-served:
		if xerrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return xerrors.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	server.logger.Info("shutting down", zap.Duration("timeout", timeouts.Shutdown))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return xerrors.Errorf("error shutting down: %w", err)
	}
	<-served
	return nil
}

// ListenAndServe listens on address and calls Serve.
func (server *Server) ListenAndServe(
	ctx context.Context, address string, timeouts Timeouts,
) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return xerrors.Errorf("error listening on %s: %w", address, err)
	}
	return server.Serve(ctx, listener, timeouts)
}
