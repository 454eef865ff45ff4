package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/vvka-141/pgplan/internal/target/postgres"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// ConnectorFactory builds the Connector for a resolved connection.
type ConnectorFactory func(*pgplan.ConnectionConfig, pgplan.Logger) (pgplan.Connector, error)

// SessionOpener yields a ready target for one command.
type SessionOpener interface {
	Open(ctx context.Context, connConfig *pgplan.ConnectionConfig) (*Session, error)
}

// Session owns the target and the resources behind it. Close releases them
// in the order they were acquired last-first, exactly once.
type Session struct {
	target  pgplan.Target
	closers []io.Closer

	once     sync.Once
	closeErr error
}

// NewSession wraps target. closers run in reverse order on Close.
func NewSession(target pgplan.Target, closers ...io.Closer) *Session {
	return &Session{target: target, closers: closers}
}

func (s *Session) Target() pgplan.Target { return s.target }

func (s *Session) Close() error {
	s.once.Do(func() {
		var errs []error
		for i := len(s.closers) - 1; i >= 0; i-- {
			if err := s.closers[i].Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

// SessionManager connects to PostgreSQL and wraps the pool in a postgres target.
//
// SessionManager is safe for concurrent use as long as the connector factory
// and logger are.
type SessionManager struct {
	connectorFactory ConnectorFactory
	logger           pgplan.Logger
}

// NewSessionManager panics on nil dependencies.
func NewSessionManager(connectorFactory ConnectorFactory, logger pgplan.Logger) *SessionManager {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &SessionManager{connectorFactory: connectorFactory, logger: logger}
}

// Open connects and returns a session. The caller must Close it.
func (sm *SessionManager) Open(ctx context.Context, connConfig *pgplan.ConnectionConfig) (*Session, error) {
	sm.logger.Verbose("Connecting to database '%s' on %s:%d", connConfig.Database, connConfig.Host, connConfig.Port)

	connector, err := sm.connectorFactory(connConfig, sm.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	// Some connectors (Cloud SQL) hold resources that outlive Connect.
	var closers []io.Closer
	if c, ok := connector.(io.Closer); ok {
		closers = append(closers, c)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, fmt.Errorf("failed to connect to database %q: %w", connConfig.Database, err)
	}
	closers = append(closers, closerFunc(pool.Close))

	sm.logger.Verbose("Connected to database '%s'", connConfig.Database)
	return NewSession(postgres.New(pool, sm.logger), closers...), nil
}

var _ SessionOpener = (*SessionManager)(nil)
