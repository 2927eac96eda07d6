// Package metric provides the Prometheus registry and HTTP endpoint for
// object lifecycle metrics.
//
// A MetricsRegistry owns a private prometheus.Registry pre-loaded with the
// core Metrics: objects created, destroyed and live per class, clone
// attempts and durations, observations emitted and dropped, active
// subscriptions and failed parameter accesses. Components such as observers
// register their own collectors through the MetricsRegistrar methods, keyed
// by owner and metric name so duplicates are rejected before they reach
// Prometheus.
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        slog.Error("Metrics server failed", "error", err)
//	    }
//	}()
//	defer server.Stop(context.Background())
//
// Objects record into registry.CoreMetrics() through their environment. The
// record methods are nil-safe, so an environment without metrics simply skips
// them.
//
// # Registering component metrics
//
//	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
//	    Namespace: "objkit", Subsystem: "observer", Name: "value",
//	}, []string{"source", "name"})
//	if err := registry.RegisterGaugeVec("observer", "value", gauge); err != nil {
//	    return err
//	}
//
// Duplicate registrations fail with an Invalid-classified error that unwraps
// to errors.ErrAlreadyRegistered.
package metric
