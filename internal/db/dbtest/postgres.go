// Package dbtest starts a throwaway PostgreSQL for store integration
// tests.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"ftf-gateway/internal/db"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Open starts a PostgreSQL container and returns a migrated handle. The
// test is skipped when no container runtime is available, under -short,
// or with SKIP_INTEGRATION=true.
func Open(t *testing.T) *db.DB {
	t.Helper()

	if testing.Short() || os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("skipping PostgreSQL integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("ftf_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	handle, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	return handle
}
