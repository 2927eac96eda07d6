package metric

import (
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/objkit/errors"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.Same(t, registry.Metrics, registry.CoreMetrics())
}

func TestMetricsRegistry_Register(t *testing.T) {
	tests := []struct {
		name     string
		register func(r *MetricsRegistry) error
		family   string
	}{
		{
			name: "counter",
			register: func(r *MetricsRegistry) error {
				c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_counter", Help: "h"})
				c.Inc()
				return r.RegisterCounter("svc", "test_counter", c)
			},
			family: "test_counter",
		},
		{
			name: "gauge",
			register: func(r *MetricsRegistry) error {
				g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_gauge", Help: "h"})
				g.Set(42)
				return r.RegisterGauge("svc", "test_gauge", g)
			},
			family: "test_gauge",
		},
		{
			name: "gauge vec",
			register: func(r *MetricsRegistry) error {
				g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "test_gauge_vec", Help: "h"}, []string{"l"})
				g.WithLabelValues("a").Set(1)
				return r.RegisterGaugeVec("svc", "test_gauge_vec", g)
			},
			family: "test_gauge_vec",
		},
		{
			name: "counter vec",
			register: func(r *MetricsRegistry) error {
				c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_counter_vec", Help: "h"}, []string{"l"})
				c.WithLabelValues("a").Inc()
				return r.RegisterCounterVec("svc", "test_counter_vec", c)
			},
			family: "test_counter_vec",
		},
		{
			name: "histogram vec",
			register: func(r *MetricsRegistry) error {
				h := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_hist", Help: "h"}, []string{"l"})
				h.WithLabelValues("a").Observe(1)
				return r.RegisterHistogramVec("svc", "test_hist", h)
			},
			family: "test_hist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewMetricsRegistry(WithoutRuntimeCollectors())
			require.NoError(t, tt.register(registry))

			families, err := registry.PrometheusRegistry().Gather()
			require.NoError(t, err)
			found := false
			for _, mf := range families {
				if mf.GetName() == tt.family {
					found = true
				}
			}
			assert.True(t, found, "%s should be gathered", tt.family)
		})
	}
}

func TestMetricsRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry(WithoutRuntimeCollectors())
	c1 := prometheus.NewCounter(prometheus.CounterOpts{Name: "dup", Help: "h"})
	c2 := prometheus.NewCounter(prometheus.CounterOpts{Name: "dup", Help: "h"})

	require.NoError(t, registry.RegisterCounter("svc", "dup", c1))

	err := registry.RegisterCounter("svc", "dup", c2)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.True(t, stderrors.Is(err, errors.ErrAlreadyRegistered))

	err = registry.RegisterCounter("other", "dup", c2)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err), "prometheus-level conflict is invalid, not fatal")
}

func TestMetricsRegistry_Unregister(t *testing.T) {
	registry := NewMetricsRegistry(WithoutRuntimeCollectors())
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "gone", Help: "h"})
	require.NoError(t, registry.RegisterGauge("svc", "gone", g))

	assert.True(t, registry.Unregister("svc", "gone"))
	assert.False(t, registry.Unregister("svc", "gone"))
	require.NoError(t, registry.RegisterGauge("svc", "gone", g), "name is free again")
}

func TestMetrics_Record(t *testing.T) {
	registry := NewMetricsRegistry(WithoutRuntimeCollectors())
	m := registry.CoreMetrics()

	m.RecordCreated("Kernel")
	m.RecordCreated("Kernel")
	m.RecordDestroyed("Kernel")
	m.RecordClone("Kernel", true, time.Millisecond)
	m.RecordClone("Kernel", false, time.Millisecond)
	m.RecordObservation("Kernel", "loss")
	m.RecordDropped("Kernel", "undeclared")
	m.AddSubscriptions("Kernel", 2)
	m.AddSubscriptions("Kernel", -1)
	m.RecordParameterError("Kernel", "type_mismatch")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ObjectsCreated.WithLabelValues("Kernel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ObjectsLive.WithLabelValues("Kernel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Clones.WithLabelValues("Kernel", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Observations.WithLabelValues("Kernel", "loss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ObservationsDropped.WithLabelValues("Kernel", "undeclared")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Subscriptions.WithLabelValues("Kernel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParameterErrors.WithLabelValues("Kernel", "type_mismatch")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCreated("x")
		m.RecordDestroyed("x")
		m.RecordClone("x", true, 0)
		m.RecordObservation("x", "y")
		m.RecordDropped("x", "y")
		m.AddSubscriptions("x", 1)
		m.RecordParameterError("x", "y")
	})
}

func TestServer_Handler(t *testing.T) {
	registry := NewMetricsRegistry(WithoutRuntimeCollectors())
	registry.CoreMetrics().RecordCreated("Kernel")
	server := NewServer(0, "", registry)
	assert.Equal(t, "http://localhost:9090/metrics", server.Address())

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `objkit_objects_created_total{class="Kernel"} 1`))

	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_HandleMountsExtraRoutes(t *testing.T) {
	server := NewServer(0, "", NewMetricsRegistry(WithoutRuntimeCollectors()))
	server.Handle("/observe", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/observe")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestServer_StartWithoutRegistry(t *testing.T) {
	server := NewServer(0, "", nil)
	err := server.Start()
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}
