// Package testing holds helpers for integration tests that need PostgreSQL.
package testing

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgplan/internal/db"
	"github.com/vvka-141/pgplan/internal/testinfra"
)

// TestDSNEnv names the variable that points tests at an existing server.
const TestDSNEnv = "PGPLAN_TEST_DSN"

var (
	serverOnce sync.Once
	serverDSN  string
	serverErr  error
)

// serverDSNOrStart returns the DSN of a shared container, started on first use
// and left for the reaper to remove when the test binary exits.
func serverDSNOrStart() (string, error) {
	serverOnce.Do(func() {
		server, err := testinfra.StartPostgres(context.Background())
		if err != nil {
			serverErr = err
			return
		}
		serverDSN = server.DSN
	})
	return serverDSN, serverErr
}

// RequireDatabase returns the DSN of a server to test against, or skips the
// test in -short mode or when neither PGPLAN_TEST_DSN nor Docker is available.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	if dsn := os.Getenv(TestDSNEnv); dsn != "" {
		return dsn
	}
	dsn, err := serverDSNOrStart()
	if err != nil {
		t.Skipf("%s not set and Docker unavailable: %v", TestDSNEnv, err)
	}
	return dsn
}

// NewTestDatabase creates a uniquely named database on the test server and
// returns its DSN and a pool. Both are dropped when the test completes.
func NewTestDatabase(t *testing.T, prefix string) (string, *pgxpool.Pool) {
	t.Helper()

	serverDSN := RequireDatabase(t)
	name := fmt.Sprintf("%s_%s", prefix, uuid.NewString()[:8])
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, serverDSN)
	if err != nil {
		t.Fatalf("connect to test server: %v", err)
	}
	if _, err := admin.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		admin.Close()
		t.Fatalf("create database %s: %v", name, err)
	}

	config, err := db.ParseConnectionString(serverDSN)
	if err != nil {
		admin.Close()
		t.Fatalf("parse test DSN: %v", err)
	}
	config.Database = name
	dsn := db.BuildConnectionString(config)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		admin.Close()
		t.Fatalf("connect to %s: %v", name, err)
	}

	// Cleanups run LIFO: the pool closes before the database is dropped.
	t.Cleanup(func() {
		defer admin.Close()
		_, err := admin.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{name}.Sanitize()+" WITH (FORCE)")
		if err != nil {
			t.Logf("drop database %s: %v", name, err)
		}
	})
	t.Cleanup(pool.Close)

	return dsn, pool
}
