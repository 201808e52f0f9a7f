package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ftf-gateway/internal/config"
	"ftf-gateway/internal/logger"

	"github.com/gin-gonic/gin"
)

// App owns the gateway's HTTP server and the stores behind it.
type App struct {
	httpServer *http.Server
	cleanup    func() error

	provider        string
	shutdownTimeout time.Duration
	startedAt       time.Time
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	gin.SetMode(gin.ReleaseMode)

	router, cleanup, err := setupHTTP(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &App{
		httpServer: &http.Server{
			Addr:              ":" + cfg.AppPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		cleanup:         cleanup,
		provider:        cfg.OAuthProvider,
		shutdownTimeout: cfg.ShutdownTimeout,
		startedAt:       time.Now(),
	}, nil
}

// Run serves until Shutdown is called.
func (a *App) Run() error {
	logger.Info("gateway listening", map[string]any{
		"addr":     a.httpServer.Addr,
		"provider": a.provider,
	})

	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests for at most the configured shutdown
// timeout, then closes the Postgres and Redis connections. The stores are
// closed even when draining fails.
func (a *App) Shutdown(ctx context.Context) error {
	if a.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.shutdownTimeout)
		defer cancel()
	}

	logger.Info("gateway draining", map[string]any{
		"provider": a.provider,
		"addr":     a.httpServer.Addr,
		"uptime":   time.Since(a.startedAt).Round(time.Second).String(),
	})

	drainErr := a.httpServer.Shutdown(ctx)
	if drainErr != nil {
		logger.Warn("gateway drain incomplete", map[string]any{
			"provider": a.provider,
			"error":    drainErr,
		})
	}

	var closeErr error
	if a.cleanup != nil {
		closeErr = a.cleanup()
	}
	return errors.Join(drainErr, closeErr)
}
