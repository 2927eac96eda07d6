package env

import (
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/c360/objkit/config"
	"github.com/c360/objkit/refcount"
)

// Release is the framework version reported by NewVersion when no version is
// given. Overridden at link time with -ldflags "-X".
var Release = "1.0.0"

// IO is the shared logging collaborator.
type IO struct {
	*refcount.Count
	level  *slog.LevelVar
	logger *slog.Logger
}

// NewIO builds a logger writing to w. format is "json" or "text"; level is
// one of debug, info, warn, error.
func NewIO(w io.Writer, format, level string) *IO {
	lv := new(slog.LevelVar)
	lv.Set(ParseLevel(level))
	opts := &slog.HandlerOptions{Level: lv}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &IO{Count: refcount.New(nil), level: lv, logger: slog.New(handler)}
}

// WrapLogger adopts an existing logger. SetLevel has no effect on it.
func WrapLogger(logger *slog.Logger) *IO {
	if logger == nil {
		logger = slog.Default()
	}
	return &IO{Count: refcount.New(nil), logger: logger}
}

// Logger returns the logger.
func (o *IO) Logger() *slog.Logger { return o.logger }

// SetLevel changes the minimum level of a logger built by NewIO.
func (o *IO) SetLevel(level string) {
	if o.level != nil {
		o.level.Set(ParseLevel(level))
	}
}

// Level returns the current minimum level.
func (o *IO) Level() slog.Level {
	if o.level == nil {
		return slog.LevelInfo
	}
	return o.level.Level()
}

// ParseLevel maps a level name to a slog level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Parallel carries the worker count for parallel sections.
type Parallel struct {
	*refcount.Count
	threads atomic.Int32
}

// NewParallel returns a provider with n threads; n <= 0 means one per CPU.
func NewParallel(n int) *Parallel {
	p := &Parallel{Count: refcount.New(nil)}
	p.SetThreads(n)
	return p
}

// Threads returns the configured worker count.
func (p *Parallel) Threads() int { return int(p.threads.Load()) }

// SetThreads changes the worker count; n <= 0 means one per CPU.
func (p *Parallel) SetThreads(n int) {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	p.threads.Store(int32(n))
}

// Version identifies the framework release objects were built with.
type Version struct {
	*refcount.Count
	release string
}

// NewVersion returns a version collaborator; an empty release uses Release.
func NewVersion(release string) *Version {
	if release == "" {
		release = Release
	}
	return &Version{Count: refcount.New(nil), release: release}
}

// String returns the release string.
func (v *Version) String() string { return v.release }

// Compatible reports whether data written by release can be read by this
// version: both must parse and share a major version.
func (v *Version) Compatible(release string) bool {
	ok, err := config.SameMajor(v.release, release)
	return err == nil && ok
}
