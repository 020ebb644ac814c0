package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container with a trades table.
// Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	createTradesTable(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// createTradesTable creates and fills a table shaped like a broker trade export.
func createTradesTable(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	_, err := pool.Exec(ctx, `
		CREATE TABLE trades (
			id              SERIAL PRIMARY KEY,
			contract_name   TEXT,
			entered_at      TIMESTAMPTZ,
			exited_at       TIMESTAMPTZ,
			trade_day       DATE,
			pnl             NUMERIC(12, 2),
			fees            DOUBLE PRECISION,
			trade_duration  INTERVAL
		)
	`)
	require.NoError(t, err, "failed to create trades table")

	_, err = pool.Exec(ctx, `
		INSERT INTO trades (contract_name, entered_at, exited_at, trade_day, pnl, fees, trade_duration) VALUES
			('ES', '2024-01-02 09:15:00+00', '2024-01-02 09:45:00+00', '2024-01-02', 100.50, 2, '30 minutes'),
			('NQ', '2024-01-03 10:00:00+00', NULL, NULL, NULL, 1.25, '1 day 00:10:00')
	`)
	require.NoError(t, err, "failed to insert trades")
}
