package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vk/patterngridgo/internal/ctxlog"
	"github.com/vk/patterngridgo/internal/httpapi"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// context that drives Run is cancelled.
const shutdownTimeout = 5 * time.Second

// Run serves the pattern graph API until ctx is cancelled, then shuts the
// server down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	api := httpapi.NewServer(a.store, a.evaluator, a.registry, a.uploader, a.logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: api.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("🚀 Pattern graph API listening.", "address", fmt.Sprintf("http://localhost%s", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("🏁 Shutting down pattern graph API.")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		<-errCh
		a.logger.Debug("App.Run method finished.")
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}
