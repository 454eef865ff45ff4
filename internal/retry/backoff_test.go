package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

func TestExponentialBackoff_Defaults(t *testing.T) {
	b := DefaultBackoff()

	assert.Equal(t, pgplan.DefaultRetryMaxAttempts, b.MaxAttempts())
	assert.Equal(t, pgplan.DefaultRetryInitialDelay, b.InitialDelay())
	assert.Equal(t, pgplan.DefaultRetryMaxDelay, b.MaxDelay())
}

func TestExponentialBackoff_NextDelay(t *testing.T) {
	b := NewExponentialBackoff(5,
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(time.Second),
		WithJitter(0),
	)

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, b.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoff_Jitter(t *testing.T) {
	high := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.1), WithJitterFunc(func() float64 { return 1.0 }))
	low := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.1), WithJitterFunc(func() float64 { return 0.0 }))
	mid := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.1), WithJitterFunc(func() float64 { return 0.5 }))

	assert.Equal(t, 1100*time.Millisecond, high.NextDelay(0))
	assert.Equal(t, 900*time.Millisecond, low.NextDelay(0))
	assert.Equal(t, time.Second, mid.NextDelay(0))
}

func TestExponentialBackoff_JitterNeverExceedsBounds(t *testing.T) {
	b := NewExponentialBackoff(3, WithInitialDelay(time.Second), WithMaxDelay(2*time.Second), WithJitter(0.2))

	for i := 0; i < 100; i++ {
		d := b.NextDelay(5)
		assert.GreaterOrEqual(t, d, 1600*time.Millisecond)
		assert.LessOrEqual(t, d, 2400*time.Millisecond)
	}
}
