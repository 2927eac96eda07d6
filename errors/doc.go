// Package errors provides standardized error handling patterns for objkit.
//
// # Overview
//
// Two layers live here. The first is the three-class classification system
// inherited by every package: Transient (temporary, retryable), Invalid (bad
// input, non-retryable) and Fatal (unrecoverable, stop processing).
//
// The second is the parameter error taxonomy of the object framework. Every
// failure at the Get/Put/Add/Run boundary of an object unwraps to one of five
// sentinels:
//
//   - ErrNotFound: no parameter registered under that name
//   - ErrTypeMismatch: stored and requested types disagree
//   - ErrNotCloneable: the stored value cannot accept a new value
//   - ErrIllegalOption: a string is not one of the parameter's enum options
//   - ErrRunFunctionFailure: a bound run function returned false
//
// The concrete error is a *ParameterError carrying the object class name, the
// parameter name and, where relevant, the expected and actual types:
//
//	if err := object.Put(kernel, "width", 3); err != nil {
//	    var pe *errors.ParameterError
//	    if stderrors.As(err, &pe) {
//	        log.Printf("%s::%s wants %s", pe.Object, pe.Parameter, pe.Expected)
//	    }
//	    if stderrors.Is(err, errors.ErrTypeMismatch) {
//	        // handle
//	    }
//	}
//
// Here stderrors is the standard library errors package; this package does
// not re-export Is and As.
//
// Parameter errors classify as Invalid: callers treat them as unrecoverable
// for that call but not fatal to the process. Where the framework reaches a
// contract violation (for example a heterogeneous array element that cannot be
// narrowed to the requested category) it wraps the parameter error with
// WrapFatal; errors.Is still finds the sentinel through the chain.
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Component", "Method", "action")  // For retryable errors
//	errors.WrapInvalid(err, "Component", "Method", "action")    // For validation errors
//	errors.WrapFatal(err, "Component", "Method", "action")      // For unrecoverable errors
//
// # Retry Configuration
//
// RetryConfig decides whether a classified error is worth retrying and how
// long to back off; network-facing observers drive their publish loop with it:
//
//	cfg := errors.DefaultRetryConfig()
//	for attempt := 0; ; attempt++ {
//	    err := publish()
//	    if !cfg.ShouldRetry(err, attempt) {
//	        return err
//	    }
//	    time.Sleep(cfg.BackoffDelay(attempt))
//	}
//
// ToRetryConfig hands the same policy to pkg/retry, which owns the loop:
//
//	err := retry.Do(ctx, cfg.ToRetryConfig(), publish)
//
// # Thread Safety
//
// All classification and wrapping operations are thread-safe. Error variables
// are immutable and safe for concurrent access.
package errors
