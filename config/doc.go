// Package config loads and validates process configuration.
//
// A Config has one section per concern: logging (slog handler level and
// format), equality (the float tolerance objects compare with), parallel
// (thread count for the parallelism provider), observers (buffer sizes,
// rate limiting, NATS publishing) and metrics (the Prometheus endpoint).
//
// # Loading
//
// Files are YAML or JSON (JSON is read by the YAML decoder). Layers merge
// over Default() key by key, so a layer only needs the keys it changes:
//
//	loader := config.NewLoader()
//	loader.AddLayer("objkit.yaml")
//	loader.AddLayer("objkit.local.yaml")
//	cfg, err := loader.Load()
//
// Unknown keys are rejected. Validation failures are Invalid-classified and
// unwrap to errors.ErrInvalidConfig.
//
// # Concurrent access
//
// SafeConfig hands out copies under a read lock and validates before every
// Update, so readers never observe a half-applied or invalid config.
package config
