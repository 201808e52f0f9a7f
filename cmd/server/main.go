package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ftf-gateway/internal/app"
	"ftf-gateway/internal/config"
	"ftf-gateway/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info")
		logger.Fatal("invalid configuration", map[string]any{
			"error": err,
		})
	}
	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("gateway init failed", map[string]any{
			"provider": cfg.OAuthProvider,
			"error":    err,
		})
	}

	go func() {
		if err := gateway.Run(); err != nil {
			logger.Fatal("gateway server failed", map[string]any{
				"port":  cfg.AppPort,
				"error": err,
			})
		}
	}()

	<-ctx.Done()

	logger.Info("shutdown signal received", map[string]any{
		"provider":         cfg.OAuthProvider,
		"port":             cfg.AppPort,
		"shutdown_timeout": cfg.ShutdownTimeout.String(),
	})

	// Shutdown applies cfg.ShutdownTimeout itself.
	if err := gateway.Shutdown(context.Background()); err != nil {
		logger.Fatal("gateway shutdown failed", map[string]any{
			"provider": cfg.OAuthProvider,
			"error":    err,
		})
	}

	logger.Info("gateway stopped", map[string]any{
		"provider": cfg.OAuthProvider,
		"port":     cfg.AppPort,
	})
}
