package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgplan/internal/retry"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

const (
	// Steps run one at a time; a small pool covers the probe queries of validation.
	DefaultMaxConns = 4

	DefaultMinConns = 1

	// DefaultMaxConnIdleTime keeps the connection alive across slow steps.
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, logger pgplan.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("[%s] %s", notice.Severity, notice.Message)
	}
}

// ConnectionError is a failed connection attempt with an actionable hint.
// It matches both pgplan.ErrConnectionFailed and the underlying driver error.
type ConnectionError struct {
	Addr     string
	Database string
	Hint     string
	Err      error
}

func (e *ConnectionError) Error() string {
	msg := fmt.Sprintf("cannot connect to %s (database %q): %v", e.Addr, e.Database, e.Err)
	if e.Hint != "" {
		msg += "\n\n" + e.Hint
	}
	return msg
}

func (e *ConnectionError) Unwrap() []error { return []error{pgplan.ErrConnectionFailed, e.Err} }

func newRetryExecutor(logger pgplan.Logger) *retry.Executor {
	strategy := retry.NewExponentialBackoff(pgplan.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(pgplan.DefaultRetryInitialDelay),
		retry.WithMaxDelay(pgplan.DefaultRetryMaxDelay),
	)
	return retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Info("Connection attempt %d failed, retrying in %v: %v", attempt, delay.Round(time.Millisecond), err)
		})
}

// openPool creates a pool from poolConfig and pings it once.
func openPool(ctx context.Context, poolConfig *pgxpool.Config, config *pgplan.ConnectionConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}
	return pool, nil
}

// StandardConnector connects with username/password (or client certificates)
// and retries transient failures.
type StandardConnector struct {
	config        *pgplan.ConnectionConfig
	logger        pgplan.Logger
	retryExecutor *retry.Executor
}

func NewStandardConnector(config *pgplan.ConnectionConfig, logger pgplan.Logger) *StandardConnector {
	return &StandardConnector{
		config:        config,
		logger:        logger,
		retryExecutor: newRetryExecutor(logger),
	}
}

func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildConnectionString(c.config)
	c.logger.Verbose("Connecting to %s", RedactedConnectionString(c.config))

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		poolConfig, err := pgxpool.ParseConfig(connStr)
		if err != nil {
			return fmt.Errorf("failed to parse connection config: %w", pgplan.ErrInvalidConfig)
		}
		configurePool(poolConfig, c.logger)

		pool, err = openPool(ctx, poolConfig, c.config)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// NewConnector picks the Connector for config.AuthMethod.
func NewConnector(config *pgplan.ConnectionConfig, logger pgplan.Logger) (pgplan.Connector, error) {
	if logger == nil {
		panic("logger cannot be nil")
	}
	switch config.AuthMethod {
	case pgplan.AuthMethodStandard, pgplan.AuthMethodCertificate:
		return NewStandardConnector(config, logger), nil
	case pgplan.AuthMethodAWSIAM:
		endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)
		provider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
		if err != nil {
			return nil, err
		}
		return NewTokenBasedConnector(config, provider, "AWS IAM", logger), nil
	case pgplan.AuthMethodGoogleIAM:
		if config.GoogleInstance == "" {
			return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", pgplan.ErrInvalidConfig)
		}
		if config.Username == "" {
			return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U): %w", pgplan.ErrInvalidConfig)
		}
		return NewGoogleCloudSQLConnector(config, config.GoogleInstance, logger), nil
	case pgplan.AuthMethodAzureEntraID:
		provider, err := newAzureTokenProvider(config)
		if err != nil {
			return nil, err
		}
		return NewTokenBasedConnector(config, provider, "Azure", logger), nil
	default:
		return nil, fmt.Errorf("auth method %v: %w", config.AuthMethod, pgplan.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError attaches guidance for the common failure shapes.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	connErr := &ConnectionError{Addr: fmt.Sprintf("%s:%d", host, port), Database: database, Err: err}

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		connErr.Hint = fmt.Sprintf(`Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port
  - Firewall blocking the connection`, host, port)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		connErr.Hint = fmt.Sprintf(`Cannot resolve host %q. Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable`, host)

	case strings.Contains(errStr, "password authentication failed"):
		connErr.Hint = `Possible causes:
  - Wrong password (check $PGPASSWORD or ~/.pgpass)
  - Wrong username
  - User does not have access to the database`

	case strings.Contains(errStr, "does not exist"):
		connErr.Hint = fmt.Sprintf(`Database %q does not exist. pgplan deploys into an existing database:
  createdb %s`, database, database)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		connErr.Hint = `Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)`

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		connErr.Hint = `Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)`

	case strings.Contains(errStr, "too many connections"):
		connErr.Hint = fmt.Sprintf(`max_connections reached. Inspect sessions with:
  SELECT pid, usename, state FROM pg_stat_activity WHERE datname = '%s';`, database)
	}

	return connErr
}
