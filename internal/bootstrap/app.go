package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/seq2seq-summarizer/internal/infra/config"
	"github.com/yanqian/seq2seq-summarizer/internal/infra/ratelimit"
	"github.com/yanqian/seq2seq-summarizer/internal/infra/seq2seq"
)

// App encapsulates the HTTP server lifecycle and the model it serves.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	provider *seq2seq.Provider
	limiter  ratelimit.Store
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, provider *seq2seq.Provider, limiter ratelimit.Store) *App {
	return &App{
		cfg:      cfg,
		logger:   logger.With("component", "bootstrap"),
		server:   server,
		provider: provider,
		limiter:  limiter,
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	defer a.release()

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address, "model", a.provider.Name(), "backend", a.cfg.Model.Backend)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		// in-flight generations finish before the listener closes
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.WriteTimeout+5*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) release() {
	if err := a.provider.Close(); err != nil {
		a.logger.Warn("close model provider", "error", err)
	}
	if closer, ok := a.limiter.(interface{ Close() }); ok {
		closer.Close()
	}
}
