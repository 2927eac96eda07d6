// Package observer provides ready-made observable.Observer implementations.
//
// Objects deliver observations synchronously on the producing goroutine, so
// every observer here returns quickly:
//
//   - Recorder keeps the most recent values in a ring buffer.
//   - Latest keeps the newest value per source and name in an LRU cache.
//   - Logger writes each value to a slog.Logger.
//   - Metrics exports numeric values as Prometheus gauges.
//   - NATS publishes JSON-encoded values, retrying transient failures.
//   - RateLimited forwards at most a configured rate to another observer.
//   - WebSocket broadcasts JSON-encoded values to connected HTTP clients.
//   - Func adapts plain functions.
//
// All of them are safe for concurrent use, so one observer may be subscribed
// to several objects trained in parallel. Recorder and Latest retain the
// values they store; Reset releases them.
//
//	rec := observer.NewRecorder(1024)
//	id := machine.Subscribe(rec)
//	defer machine.Unsubscribe(id)
//	object.Run(machine, "train")
//	for _, v := range rec.Values() {
//	    fmt.Println(v.Step, v.Name, v.Value)
//	}
package observer
