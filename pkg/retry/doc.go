// Package retry runs an operation with exponential backoff.
//
// Do stops at the first success, at the first error the config's Retryable
// predicate rejects, after MaxAttempts, or when the context is done. Errors
// wrapped with Permanent are never retried. When every attempt fails the
// result is an *ExhaustedError wrapping the last failure, so errors.Is still
// sees the original cause.
//
// The objkit errors package builds a Config whose predicate is
// errors.IsTransient:
//
//	cfg := errors.DefaultRetryConfig().ToRetryConfig()
//	err := retry.Do(ctx, cfg, func() error {
//	    return conn.Publish(subject, data)
//	})
//
// All functions are safe for concurrent use.
package retry
