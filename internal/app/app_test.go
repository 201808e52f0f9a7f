package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"ftf-gateway/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestShutdownClosesStoresAndLogsProvider(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(zap.NewNop()) })

	closed := false
	a := &App{
		httpServer:      &http.Server{Addr: ":0"},
		cleanup:         func() error { closed = true; return nil },
		provider:        "oidc",
		shutdownTimeout: time.Second,
		startedAt:       time.Now(),
	}

	require.NoError(t, a.Shutdown(context.Background()))
	assert.True(t, closed)

	entries := logs.FilterMessage("gateway draining").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "oidc", entries[0].ContextMap()["provider"])
	assert.Contains(t, entries[0].ContextMap(), "uptime")
}

func TestShutdownReportsCleanupFailure(t *testing.T) {
	errRedis := errors.New("redis close failed")
	a := &App{
		httpServer:      &http.Server{Addr: ":0"},
		cleanup:         func() error { return errRedis },
		provider:        "facebook",
		shutdownTimeout: time.Second,
		startedAt:       time.Now(),
	}

	assert.ErrorIs(t, a.Shutdown(context.Background()), errRedis)
}
