// Package testutil provides a migrated Postgres pool for integration tests.
package testutil

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	postgres "github.com/txpress/taxi-api/internal/adapters/postgres"
)

// DSNEnv names an existing database to use instead of starting a container.
const DSNEnv = "POSTGRES_TEST_DSN"

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

// OpenMigratedPool returns a pool on a migrated database, skipping the test when none is available.
// Without POSTGRES_TEST_DSN a single postgres container is shared by the whole test binary.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
		containerOnce.Do(startContainer)
		if containerErr != nil {
			t.Fatalf("start postgres container: %v", containerErr)
		}
		dsn = containerDSN
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{MaxConns: 8})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return pool
}

// The container is left for the reaper to remove when the test binary exits.
func startContainer() {
	ctx := context.Background()
	c, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("txpress"),
		tcpostgres.WithUsername("txpress"),
		tcpostgres.WithPassword("txpress"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		containerErr = err
		return
	}
	containerDSN, containerErr = c.ConnectionString(ctx, "sslmode=disable")
}
