package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type drainer interface {
	Drain(ctx context.Context) error
}

// serve runs srv on ln until ctx ends. Shutdown comes first so in-flight submits can
// still enqueue their artifacts; the queue is drained only after every handler returned.
// Both phases share the grace period.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, queue drainer, grace time.Duration, logr *zap.Logger) error {
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	select {
	case err := <-served:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	<-served

	if err := queue.Drain(shutdownCtx); err != nil {
		logr.Warn("submission artifacts left unwritten", zap.Error(err))
	}
	return nil
}
