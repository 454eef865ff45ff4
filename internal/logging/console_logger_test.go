package logging

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		log      func(l *ConsoleLogger)
		expected string
	}{
		{
			name:     "verbose enabled",
			verbose:  true,
			log:      func(l *ConsoleLogger) { l.Verbose("test message: %s", "value") },
			expected: "[VERBOSE] test message: value\n",
		},
		{
			name:     "verbose disabled",
			verbose:  false,
			log:      func(l *ConsoleLogger) { l.Verbose("hidden") },
			expected: "",
		},
		{
			name:     "info",
			log:      func(l *ConsoleLogger) { l.Info("Deploying %d step(s)", 3) },
			expected: "Deploying 3 step(s)\n",
		},
		{
			name:     "error",
			log:      func(l *ConsoleLogger) { l.Error("step failed") },
			expected: "[ERROR] step failed\n",
		},
		{
			name:     "percent without args is literal",
			log:      func(l *ConsoleLogger) { l.Info("100%") },
			expected: "100%\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewWriterLogger(&buf, tt.verbose))
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestConsoleLogger_ConcurrentSafety(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, true)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("message %d", id)
			logger.Verbose("verbose %d", id)
			logger.Error("error %d", id)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 30)
	for i, line := range lines {
		if !strings.Contains(line, "message") && !strings.Contains(line, "verbose") && !strings.Contains(line, "error") {
			t.Errorf("Line %d appears corrupted: %q", i, line)
		}
	}
}

func TestNewWriterLogger_NilWriterPanics(t *testing.T) {
	assert.Panics(t, func() { NewWriterLogger(nil, false) })
}

func TestRecordingLogger(t *testing.T) {
	logger := NewRecordingLogger()
	logger.Verbose("deferring %s", "a -> b")
	logger.Info("done")
	logger.Error("boom")

	entries := logger.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Level: "verbose", Message: "deferring a -> b"}, entries[0])
	assert.True(t, logger.Contains("error", "boom"))
	assert.True(t, logger.Contains("", "done"))
	assert.False(t, logger.Contains("info", "boom"))
}

func TestNullLogger_ConcurrentSafety(t *testing.T) {
	logger := NewNullLogger()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("message %d", id)
			logger.Verbose("verbose %d", id)
			logger.Error("error %d", id)
		}(i)
	}
	wg.Wait()
}

func BenchmarkConsoleLogger_VerboseDisabled(b *testing.B) {
	logger := NewConsoleLogger(false)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Verbose("benchmark message %d", i)
	}
}

func ExampleNullLogger() {
	logger := NewNullLogger()
	logger.Info("This message is discarded")
	logger.Error("And this")
	fmt.Println("Done")
	// Output:
	// Done
}
