// Package testinfra starts throwaway PostgreSQL servers for integration tests.
package testinfra

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ImageEnv overrides the server image, e.g. to test against an older major.
const ImageEnv = "PGPLAN_TEST_IMAGE"

const (
	defaultImage = "postgres:17-alpine"
	superuser    = "postgres"
	password     = "pgplan"
	maintenance  = "postgres"
)

// Server is a running container plus the DSN of its maintenance database.
type Server struct {
	container *postgres.PostgresContainer
	DSN       string
	Image     string
}

// Stop terminates the container. Errors are returned, not fatal.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.container == nil {
		return nil
	}
	return s.container.Terminate(ctx)
}

// StartPostgres runs a PostgreSQL container without TLS and waits until it
// accepts connections.
func StartPostgres(ctx context.Context) (*Server, error) {
	image := os.Getenv(ImageEnv)
	if image == "" {
		image = defaultImage
	}

	ctr, err := postgres.Run(ctx,
		image,
		postgres.WithUsername(superuser),
		postgres.WithPassword(password),
		postgres.WithDatabase(maintenance),
		testcontainers.WithWaitStrategy(
			// the entrypoint restarts the server once after init
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", image, err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("connection string for %s: %w", image, err)
	}

	return &Server{container: ctr, DSN: dsn, Image: image}, nil
}
