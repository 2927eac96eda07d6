// Package objkit is a toolkit for parameterized, reference-counted objects.
//
// Every object embeds an object.Base that carries a reference count, a
// store of named and typed parameters, and a subject that delivers
// observations to subscribers. On top of the parameter store the base
// derives structural behavior once for all classes: deep clone, equality
// with float tolerance, a MurmurHash3 parameter hash with change tracking,
// a readable String form, and save/load framed by serialization hooks.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│   model / your classes              │  Perceptron, kernels,
//	│   (embed *object.Base)              │  features, labels
//	└─────────────────────────────────────┘
//	           ↓ register parameters in
//	┌─────────────────────────────────────┐
//	│   object                            │  Ref/Unref, Put/Get, Add/GetAt,
//	│   param  anyvalue  observable       │  Clone, Equals, Hash, Save/Load
//	└─────────────────────────────────────┘
//	           ↓ share collaborators via
//	┌─────────────────────────────────────┐
//	│   env   config   metric   errors    │  logging, threads, version,
//	│                                     │  tolerance, Prometheus
//	└─────────────────────────────────────┘
//
// # Packages
//
// Core:
//   - refcount: Atomic reference counts with a disabled sentinel
//   - anyvalue: Type-erased values with clone, equality and hashing
//   - param: Named parameter store, flags, string options, typed tags
//   - observable: Subjects, observers and observed values
//   - object: Base object, array dispatch, class registry, serialization
//   - env: Process-wide collaborators (IO, Parallel, Version, tolerance)
//
// Around the core:
//   - observer: Recorder, Latest, Logger, Metrics, NATS, WebSocket and rate-limited observers
//   - schema: JSON Schema of an object's parameters; validate and apply documents
//   - codec/yamlcodec: YAML encoder and decoder for object.Save and object.Load
//   - model: A kernel perceptron with its data containers
//   - config: Layered YAML/JSON configuration
//   - metric: Prometheus registry, core metrics and scrape server
//   - natsclient: NATS connection used by the NATS observer
//   - errors: Classified errors and parameter access errors
//
// Utilities:
//   - pkg/buffer: Ring buffer
//   - pkg/cache: LRU cache with TTL
//   - pkg/retry: Retry with exponential backoff
//   - pkg/murmur3: Streaming MurmurHash3 (x86, 32-bit)
//   - pkg/timestamp: Millisecond timestamps
//
// # Usage
//
//	p := model.NewPerceptron()
//	p.Ref()
//	defer p.Unref()
//
//	_ = object.Put(p, "kernel_type", "LINEAR")
//	_ = object.Add(p, "features", model.NewDenseFeatures(rows))
//	_ = object.Add[object.Labels](p, "labels", model.NewBinaryLabels(labels))
//	p.Subscribe(observer.NewLogger(slog.Default(), slog.LevelInfo))
//	_ = object.Run(p, "train")
//
//	c := object.Clone(p)
//	defer c.Unref()
//	fmt.Println(object.Equals(p, c), p.Hash() == c.Hash())
//
// # Binary
//
// cmd/objkit trains clones of a demo model in parallel with the configured
// observers attached and prints their parameters, hashes and equality.
package objkit
