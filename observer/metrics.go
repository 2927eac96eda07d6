package observer

import (
	"reflect"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/objkit/metric"
	"github.com/c360/objkit/observable"
)

// Metrics exports the latest numeric value of every observed name as a
// gauge and counts deliveries. Non-numeric values are counted only.
type Metrics struct {
	values     *prometheus.GaugeVec
	steps      *prometheus.GaugeVec
	deliveries *prometheus.CounterVec
}

// NewMetrics creates the observer gauges and registers them with registry.
func NewMetrics(registry *metric.MetricsRegistry) (*Metrics, error) {
	m := &Metrics{
		values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "objkit",
			Subsystem: "observer",
			Name:      "value",
			Help:      "Latest observed numeric value",
		}, []string{"source", "name"}),
		steps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "objkit",
			Subsystem: "observer",
			Name:      "step",
			Help:      "Step of the latest observation",
		}, []string{"source", "name"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "objkit",
			Subsystem: "observer",
			Name:      "deliveries_total",
			Help:      "Observations delivered to the metrics observer",
		}, []string{"source", "name"}),
	}
	if err := registry.RegisterGaugeVec("observer", "value", m.values); err != nil {
		return nil, err
	}
	if err := registry.RegisterGaugeVec("observer", "step", m.steps); err != nil {
		registry.Unregister("observer", "value")
		return nil, err
	}
	if err := registry.RegisterCounterVec("observer", "deliveries", m.deliveries); err != nil {
		registry.Unregister("observer", "value")
		registry.Unregister("observer", "step")
		return nil, err
	}
	return m, nil
}

// OnNext implements observable.Observer.
func (m *Metrics) OnNext(v observable.ObservedValue) {
	m.deliveries.WithLabelValues(v.Source, v.Name).Inc()
	if f, ok := numeric(v.Value.Reflect()); ok {
		m.values.WithLabelValues(v.Source, v.Name).Set(f)
		m.steps.WithLabelValues(v.Source, v.Name).Set(float64(v.Step))
	}
}

// OnComplete implements observable.Observer.
func (m *Metrics) OnComplete() {}

func numeric(rv reflect.Value) (float64, bool) {
	if !rv.IsValid() {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Bool:
		if rv.Bool() {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
