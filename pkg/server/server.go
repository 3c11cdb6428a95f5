package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests once ctx is done.
const ShutdownTimeout = 10 * time.Second

// New returns an http.Server with the timeouts both binaries share.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Run serves srv until ctx is cancelled, then shuts it down gracefully.
// drain hooks run after the listener is closed, in order.
func Run(ctx context.Context, srv *http.Server, logger zerolog.Logger, drain ...func()) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		logger.Info().Msg("shutting down")
		err := srv.Shutdown(shutdownCtx)
		for _, fn := range drain {
			fn()
		}
		return err
	})

	return g.Wait()
}
