package testutil

import (
	"bytes"
	"sync"
	"testing"

	"github.com/c360/objkit/anyvalue"
	"github.com/c360/objkit/env"
	"github.com/c360/objkit/metric"
	"github.com/c360/objkit/object"
)

// SafeBuffer is a bytes.Buffer safe for concurrent writers.
type SafeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything written so far.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// TestEnvironment bundles an environment with its log buffer and metrics.
type TestEnvironment struct {
	Env      *env.Environment
	Logs     *SafeBuffer
	Registry *metric.MetricsRegistry
}

// NewEnvironment returns an environment logging at debug level into a
// buffer. It is closed when the test ends.
func NewEnvironment(t testing.TB, opts ...env.Option) *TestEnvironment {
	t.Helper()

	logs := &SafeBuffer{}
	registry := metric.NewMetricsRegistry(metric.WithoutRuntimeCollectors())
	all := append([]env.Option{
		env.WithIO(env.NewIO(logs, "text", "debug")),
		env.WithMetrics(registry),
		env.WithParallel(env.NewParallel(2)),
	}, opts...)

	te := &TestEnvironment{Env: env.New(all...), Logs: logs, Registry: registry}
	t.Cleanup(te.Env.Close)
	return te
}

// Options returns object options binding new objects to this environment.
func (te *TestEnvironment) Options() []object.Option {
	return []object.Option{object.WithEnvironment(te.Env)}
}

// WithTolerance returns an env option for float comparison.
func WithTolerance(eps float64, tolerant bool) env.Option {
	return env.WithTolerance(anyvalue.Tolerance{Epsilon: eps, Tolerant: tolerant})
}
