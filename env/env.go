// Package env holds the process-wide collaborators every object consults:
// the IO (logging) provider, the parallelism provider, the framework version,
// the float comparison tolerance used by object equality, and the metrics.
//
// IO, Parallel and Version are reference counted. An Environment holds one
// reference to each; replacing a collaborator refs the new one before
// unreffing the old one, so installing the current value again is safe.
//
// Objects read the environment they were built with, or Default() when none
// was given. Init and Exit manage the default.
package env

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/c360/objkit/anyvalue"
	"github.com/c360/objkit/config"
	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/metric"
)

// Environment bundles the shared collaborators.
type Environment struct {
	mu        sync.RWMutex
	io        *IO
	parallel  *Parallel
	version   *Version
	tolerance anyvalue.Tolerance
	registry  *metric.MetricsRegistry
	closed    bool
}

// Option configures New.
type Option func(*Environment)

// WithIO installs io instead of a text logger on stderr.
func WithIO(io *IO) Option {
	return func(e *Environment) { e.SetIO(io) }
}

// WithParallel installs p instead of a one-thread-per-CPU provider.
func WithParallel(p *Parallel) Option {
	return func(e *Environment) { e.SetParallel(p) }
}

// WithVersion installs v instead of NewVersion("").
func WithVersion(v *Version) Option {
	return func(e *Environment) { e.SetVersion(v) }
}

// WithTolerance sets the float comparison policy.
func WithTolerance(tol anyvalue.Tolerance) Option {
	return func(e *Environment) { e.tolerance = tol }
}

// WithMetrics makes objects record lifecycle metrics into registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(e *Environment) { e.registry = registry }
}

// New builds an environment. Collaborators not supplied through options get
// defaults.
func New(opts ...Option) *Environment {
	e := &Environment{}
	for _, opt := range opts {
		opt(e)
	}
	if e.io == nil {
		e.SetIO(NewIO(os.Stderr, "text", "info"))
	}
	if e.parallel == nil {
		e.SetParallel(NewParallel(0))
	}
	if e.version == nil {
		e.SetVersion(NewVersion(""))
	}
	return e
}

// FromConfig builds an environment from a validated configuration. A nil
// logger builds one from cfg.Logging on stderr.
func FromConfig(cfg *config.Config, logger *slog.Logger, registry *metric.MetricsRegistry) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "Environment", "FromConfig", "validate config")
	}

	var io *IO
	if logger != nil {
		io = WrapLogger(logger)
	} else {
		io = NewIO(os.Stderr, cfg.Logging.Format, cfg.Logging.Level)
	}
	opts := []Option{
		WithIO(io),
		WithParallel(NewParallel(cfg.Parallel.Threads)),
		WithVersion(NewVersion(cfg.Version)),
		WithTolerance(anyvalue.Tolerance{
			Epsilon:  cfg.Equality.Epsilon,
			Tolerant: cfg.Equality.Tolerant,
		}),
	}
	if registry != nil {
		opts = append(opts, WithMetrics(registry))
	}
	return New(opts...), nil
}

// IO returns the logging collaborator. The caller does not receive a
// reference; Ref it to keep it past a later SetIO.
func (e *Environment) IO() *IO {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.io
}

// Logger is shorthand for IO().Logger().
func (e *Environment) Logger() *slog.Logger {
	if io := e.IO(); io != nil {
		return io.Logger()
	}
	return slog.Default()
}

// SetIO refs io and unrefs the previous provider.
func (e *Environment) SetIO(io *IO) {
	if io != nil {
		io.Ref()
	}
	e.mu.Lock()
	old := e.io
	e.io = io
	e.mu.Unlock()
	if old != nil {
		old.Unref()
	}
}

// Parallel returns the parallelism provider without taking a reference.
func (e *Environment) Parallel() *Parallel {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.parallel
}

// SetParallel refs p and unrefs the previous provider.
func (e *Environment) SetParallel(p *Parallel) {
	if p != nil {
		p.Ref()
	}
	e.mu.Lock()
	old := e.parallel
	e.parallel = p
	e.mu.Unlock()
	if old != nil {
		old.Unref()
	}
}

// Version returns the version collaborator without taking a reference.
func (e *Environment) Version() *Version {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// SetVersion refs v and unrefs the previous collaborator.
func (e *Environment) SetVersion(v *Version) {
	if v != nil {
		v.Ref()
	}
	e.mu.Lock()
	old := e.version
	e.version = v
	e.mu.Unlock()
	if old != nil {
		old.Unref()
	}
}

// Tolerance returns the float comparison policy.
func (e *Environment) Tolerance() anyvalue.Tolerance {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tolerance
}

// SetTolerance replaces the float comparison policy.
func (e *Environment) SetTolerance(tol anyvalue.Tolerance) {
	e.mu.Lock()
	e.tolerance = tol
	e.mu.Unlock()
}

// Metrics returns the core metrics, nil when metrics are off.
func (e *Environment) Metrics() *metric.Metrics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.registry == nil {
		return nil
	}
	return e.registry.CoreMetrics()
}

// Registry returns the metrics registry, nil when metrics are off.
func (e *Environment) Registry() *metric.MetricsRegistry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry
}

// Close releases the environment's references. Closing twice is a no-op.
func (e *Environment) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	io, p, v := e.io, e.parallel, e.version
	e.mu.Unlock()

	// Reverse of construction order.
	if v != nil {
		v.Unref()
	}
	if p != nil {
		p.Unref()
	}
	if io != nil {
		io.Unref()
	}
}

var current atomic.Pointer[Environment]

// Default returns the process environment, creating one with defaults on
// first use.
func Default() *Environment {
	if e := current.Load(); e != nil {
		return e
	}
	e := New()
	if current.CompareAndSwap(nil, e) {
		return e
	}
	e.Close()
	return current.Load()
}

// SetDefault installs e as the process environment and returns the previous
// one, which the caller now owns.
func SetDefault(e *Environment) *Environment {
	return current.Swap(e)
}

// Init builds the process environment from cfg and installs it. A previous
// default is closed.
func Init(cfg *config.Config, logger *slog.Logger, registry *metric.MetricsRegistry) (*Environment, error) {
	e, err := FromConfig(cfg, logger, registry)
	if err != nil {
		return nil, err
	}
	if old := SetDefault(e); old != nil {
		old.Close()
	}
	return e, nil
}

// Exit closes and uninstalls the process environment.
func Exit() {
	if e := current.Swap(nil); e != nil {
		e.Close()
	}
}
