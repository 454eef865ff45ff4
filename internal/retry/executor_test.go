package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTransient = &pgconn.PgError{Code: "08006", Message: "connection failure"}
	errFatal     = &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}
)

// scripted returns the given errors in order, then nil.
type scripted struct {
	errs  []error
	calls int
}

func (s *scripted) run(context.Context) error {
	s.calls++
	if s.calls <= len(s.errs) {
		return s.errs[s.calls-1]
	}
	return nil
}

func fastExecutor(maxAttempts int) *Executor {
	return NewExecutor(NewPostgreSQLErrorClassifier(),
		NewExponentialBackoff(maxAttempts, WithInitialDelay(time.Millisecond), WithMaxDelay(5*time.Millisecond), WithJitter(0)))
}

func TestExecutor_Execute(t *testing.T) {
	tests := []struct {
		name        string
		maxAttempts int
		errs        []error
		wantErr     error
		wantCalls   int
	}{
		{"success on first attempt", 3, nil, nil, 1},
		{"success after retries", 3, []error{errTransient, errTransient}, nil, 3},
		{"fatal error is not retried", 3, []error{errFatal}, errFatal, 1},
		{"transient then fatal", 3, []error{errTransient, errFatal}, errFatal, 2},
		{"retries exhausted", 2, []error{errTransient, errTransient, errTransient, errTransient}, errTransient, 3},
		{"no retries configured", 0, []error{errTransient}, errTransient, 1},
		{"refused message is retried", 3, []error{errors.New("connection refused")}, nil, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &scripted{errs: tt.errs}

			err := fastExecutor(tt.maxAttempts).Execute(context.Background(), op.run)

			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantCalls, op.calls)
		})
	}
}

func TestExecutor_Execute_ContextCancellation(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(),
		NewExponentialBackoff(-1, WithInitialDelay(50*time.Millisecond), WithJitter(0)))
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	op := &scripted{errs: []error{errTransient, errTransient, errTransient, errTransient, errTransient, errTransient}}
	err := executor.Execute(ctx, op.run)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, op.calls, 6)
}

func TestExecutor_WithOnRetry(t *testing.T) {
	var attempts []int
	base := fastExecutor(3)
	executor := base.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
		assert.ErrorIs(t, err, errTransient)
	})

	op := &scripted{errs: []error{errTransient, errTransient}}
	require.NoError(t, executor.Execute(context.Background(), op.run))

	assert.Equal(t, []int{0, 1}, attempts)
	assert.Nil(t, base.onRetry, "WithOnRetry must not modify the receiver")
}

func TestNewExecutor_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewExecutor(nil, DefaultBackoff()) })
	assert.Panics(t, func() { NewExecutor(NewPostgreSQLErrorClassifier(), nil) })
}
