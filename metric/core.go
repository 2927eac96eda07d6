package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the object lifecycle metrics. All record methods accept a nil
// receiver so objects built without metrics pay nothing.
type Metrics struct {
	ObjectsCreated      *prometheus.CounterVec
	ObjectsDestroyed    *prometheus.CounterVec
	ObjectsLive         *prometheus.GaugeVec
	Clones              *prometheus.CounterVec
	CloneDuration       *prometheus.HistogramVec
	Observations        *prometheus.CounterVec
	ObservationsDropped *prometheus.CounterVec
	Subscriptions       *prometheus.GaugeVec
	ParameterErrors     *prometheus.CounterVec
}

// NewMetrics creates unregistered core metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ObjectsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "objkit",
				Subsystem: "objects",
				Name:      "created_total",
				Help:      "Total number of objects constructed",
			},
			[]string{"class"},
		),

		ObjectsDestroyed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "objkit",
				Subsystem: "objects",
				Name:      "destroyed_total",
				Help:      "Total number of objects whose reference count reached zero",
			},
			[]string{"class"},
		),

		ObjectsLive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "objkit",
				Subsystem: "objects",
				Name:      "live",
				Help:      "Objects constructed and not yet destroyed",
			},
			[]string{"class"},
		),

		Clones: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "objkit",
				Subsystem: "clone",
				Name:      "total",
				Help:      "Total number of clone attempts",
			},
			[]string{"class", "status"},
		),

		CloneDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "objkit",
				Subsystem: "clone",
				Name:      "duration_seconds",
				Help:      "Deep clone duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"class"},
		),

		Observations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "objkit",
				Subsystem: "observable",
				Name:      "emitted_total",
				Help:      "Total number of observed values delivered to subscribers",
			},
			[]string{"class", "name"},
		),

		ObservationsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "objkit",
				Subsystem: "observable",
				Name:      "dropped_total",
				Help:      "Total number of observations dropped",
			},
			[]string{"class", "reason"},
		),

		Subscriptions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "objkit",
				Subsystem: "observable",
				Name:      "subscriptions",
				Help:      "Active subscriptions",
			},
			[]string{"class"},
		),

		ParameterErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "objkit",
				Subsystem: "parameters",
				Name:      "errors_total",
				Help:      "Total number of failed parameter accesses",
			},
			[]string{"class", "kind"},
		),
	}
}

func (m *Metrics) mustRegister(r prometheus.Registerer) {
	r.MustRegister(
		m.ObjectsCreated,
		m.ObjectsDestroyed,
		m.ObjectsLive,
		m.Clones,
		m.CloneDuration,
		m.Observations,
		m.ObservationsDropped,
		m.Subscriptions,
		m.ParameterErrors,
	)
}

// RecordCreated counts a constructed object.
func (m *Metrics) RecordCreated(class string) {
	if m == nil {
		return
	}
	m.ObjectsCreated.WithLabelValues(class).Inc()
	m.ObjectsLive.WithLabelValues(class).Inc()
}

// RecordDestroyed counts a destroyed object.
func (m *Metrics) RecordDestroyed(class string) {
	if m == nil {
		return
	}
	m.ObjectsDestroyed.WithLabelValues(class).Inc()
	m.ObjectsLive.WithLabelValues(class).Dec()
}

// RecordClone counts a clone attempt and its duration.
func (m *Metrics) RecordClone(class string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	m.Clones.WithLabelValues(class, status).Inc()
	m.CloneDuration.WithLabelValues(class).Observe(d.Seconds())
}

// RecordObservation counts an emitted observation.
func (m *Metrics) RecordObservation(class, name string) {
	if m == nil {
		return
	}
	m.Observations.WithLabelValues(class, name).Inc()
}

// RecordDropped counts an observation that was not delivered.
func (m *Metrics) RecordDropped(class, reason string) {
	if m == nil {
		return
	}
	m.ObservationsDropped.WithLabelValues(class, reason).Inc()
}

// AddSubscriptions adjusts the active subscription gauge.
func (m *Metrics) AddSubscriptions(class string, delta int) {
	if m == nil {
		return
	}
	m.Subscriptions.WithLabelValues(class).Add(float64(delta))
}

// RecordParameterError counts a failed Get, Put, Add or Run.
func (m *Metrics) RecordParameterError(class, kind string) {
	if m == nil {
		return
	}
	m.ParameterErrors.WithLabelValues(class, kind).Inc()
}
