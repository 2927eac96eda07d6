package env

import (
	"bytes"
	"log/slog"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/objkit/anyvalue"
	"github.com/c360/objkit/config"
	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/metric"
)

func TestNew_Defaults(t *testing.T) {
	e := New()
	defer e.Close()

	require.NotNil(t, e.IO())
	require.NotNil(t, e.Parallel())
	require.NotNil(t, e.Version())

	assert.Equal(t, int32(1), e.IO().Value())
	assert.Equal(t, runtime.NumCPU(), e.Parallel().Threads())
	assert.Equal(t, Release, e.Version().String())
	assert.Equal(t, anyvalue.Exact, e.Tolerance())
	assert.Nil(t, e.Metrics())
}

func TestSetters_RefNewUnrefOld(t *testing.T) {
	e := New()
	first := NewParallel(2)
	first.Ref() // keep it alive past replacement
	e.SetParallel(first)
	assert.Equal(t, int32(2), first.Value())

	second := NewParallel(4)
	e.SetParallel(second)
	assert.Equal(t, int32(1), first.Value())
	assert.Equal(t, int32(1), second.Value())
	assert.Equal(t, 4, e.Parallel().Threads())

	// Installing the current provider again must not destroy it.
	e.SetParallel(second)
	assert.Equal(t, int32(1), second.Value())
	assert.False(t, second.Destroyed())

	e.Close()
	assert.True(t, second.Destroyed())
	assert.False(t, first.Destroyed())
	assert.Equal(t, int32(0), first.Unref())
	assert.True(t, first.Destroyed())
}

func TestClose_Idempotent(t *testing.T) {
	io := NewIO(&bytes.Buffer{}, "text", "info")
	e := New(WithIO(io))
	e.Close()
	assert.True(t, io.Destroyed())
	assert.NotPanics(t, e.Close)
}

func TestIO_Levels(t *testing.T) {
	var buf bytes.Buffer
	io := NewIO(&buf, "json", "warn")
	io.Logger().Info("Hidden")
	io.Logger().Warn("Shown", "key", "value")
	assert.NotContains(t, buf.String(), "Hidden")
	assert.Contains(t, buf.String(), `"msg":"Shown"`)

	io.SetLevel("debug")
	assert.Equal(t, slog.LevelDebug, io.Level())
	io.Logger().Debug("Now visible")
	assert.Contains(t, buf.String(), "Now visible")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestVersion_Compatible(t *testing.T) {
	v := NewVersion("1.4.2")
	assert.True(t, v.Compatible("1.0.0"))
	assert.True(t, v.Compatible("v1.9.9"))
	assert.False(t, v.Compatible("2.0.0"))
	assert.False(t, v.Compatible("not-a-version"))
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Parallel.Threads = 3
	cfg.Equality.Epsilon = 1e-6
	cfg.Equality.Tolerant = true
	cfg.Version = "2.1.0"

	registry := metric.NewMetricsRegistry(metric.WithoutRuntimeCollectors())
	e, err := FromConfig(cfg, nil, registry)
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 3, e.Parallel().Threads())
	assert.Equal(t, anyvalue.Tolerance{Epsilon: 1e-6, Tolerant: true}, e.Tolerance())
	assert.Equal(t, "2.1.0", e.Version().String())
	assert.Same(t, registry.CoreMetrics(), e.Metrics())
	assert.Same(t, registry, e.Registry())
}

func TestFromConfig_Invalid(t *testing.T) {
	cfg := config.Default()
	cfg.Parallel.Threads = -1
	_, err := FromConfig(cfg, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestInitExit(t *testing.T) {
	prev := SetDefault(nil)
	t.Cleanup(func() { SetDefault(prev) })

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	e, err := Init(config.Default(), logger, nil)
	require.NoError(t, err)
	assert.Same(t, e, Default())

	Default().Logger().Info("Through default")
	assert.True(t, strings.Contains(buf.String(), "Through default"))

	io := e.IO()
	second, err := Init(config.Default(), logger, nil)
	require.NoError(t, err)
	assert.True(t, io.Destroyed(), "previous default must be closed")
	assert.Same(t, second, Default())

	Exit()
	assert.True(t, second.IO().Destroyed())

	lazy := Default()
	require.NotNil(t, lazy)
	assert.NotSame(t, second, lazy)
	Exit()
}
