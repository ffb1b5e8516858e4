// README: Postgres for DB-backed tests; RIDEBOOK_TEST_DSN or a disposable container, migrated.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"ridebook/internal/infra"
	"ridebook/migrations"
)

const readyTimeout = 60 * time.Second

// Postgres returns a migrated pool. Without RIDEBOOK_TEST_DSN it starts a container when
// RIDEBOOK_TEST_CONTAINERS=1 and skips otherwise.
func Postgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	ctx := context.Background()

	dsn := os.Getenv("RIDEBOOK_TEST_DSN")
	if dsn == "" {
		if os.Getenv("RIDEBOOK_TEST_CONTAINERS") != "1" {
			t.Skip("RIDEBOOK_TEST_DSN not set")
		}
		var cleanup func()
		var err error
		dsn, cleanup, err = startPostgres(ctx)
		if err != nil {
			t.Skipf("postgres container: %v", err)
		}
		t.Cleanup(cleanup)
	}

	pool, err := infra.NewDB(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := infra.Migrate(ctx, pool, migrations.FS); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func startPostgres(ctx context.Context) (string, func(), error) {
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "ridebook",
			"POSTGRES_PASSWORD": "ridebook",
			"POSTGRES_DB":       "ridebook",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(readyTimeout),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = cont.Terminate(context.Background()) }

	host, err := cont.Host(ctx)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	port, err := cont.MappedPort(ctx, "5432")
	if err != nil {
		cleanup()
		return "", nil, err
	}
	dsn := fmt.Sprintf("postgres://ridebook:ridebook@%s:%s/ridebook?sslmode=disable", host, port.Port())
	return dsn, cleanup, nil
}

// Exec runs seed statements and fails the test on error.
func Exec(t *testing.T, pool *pgxpool.Pool, stmts ...string) {
	t.Helper()
	for _, s := range stmts {
		if _, err := pool.Exec(context.Background(), s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
}
