package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/c360/objkit/pkg/retry"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Parameter access errors. Every failure at the Get/Put/Add/Run boundary
// unwraps to exactly one of these.
var (
	ErrNotFound           = errors.New("parameter not found")
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrNotCloneable       = errors.New("value not cloneable")
	ErrIllegalOption      = errors.New("illegal option")
	ErrRunFunctionFailure = errors.New("run function failed")
	ErrIndexOutOfRange    = errors.New("index out of range")
)

// Registry, serialization and infrastructure errors.
var (
	ErrClassNotFound     = errors.New("class not registered")
	ErrHookNotChained    = errors.New("serialization hook did not call base hook")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrNoConnection      = errors.New("no connection available")
	ErrInvalidData       = errors.New("invalid data format")
	ErrParsingFailed     = errors.New("parsing failed")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrMissingConfig     = errors.New("missing required configuration")
	ErrConfigNotFound    = errors.New("configuration not found")
	ErrClosed            = errors.New("already closed")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// ParameterError reports a failed parameter access on an object. Object is the
// object's class name, Parameter the parameter name. Expected and Actual carry
// type names (or, for ErrIllegalOption, the valid options and the rejected one).
type ParameterError struct {
	Class     ErrorClass
	Object    string
	Parameter string
	Expected  string
	Actual    string
	Err       error
}

// Error implements the error interface
func (pe *ParameterError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s::%s: %v", pe.Object, pe.Parameter, pe.Err)
	switch {
	case pe.Expected != "" && pe.Actual != "":
		fmt.Fprintf(&sb, " (expected %s, actual %s)", pe.Expected, pe.Actual)
	case pe.Actual != "":
		fmt.Fprintf(&sb, " (%s)", pe.Actual)
	}
	return sb.String()
}

// Unwrap returns the sentinel describing the failure kind
func (pe *ParameterError) Unwrap() error {
	return pe.Err
}

// NotFound reports that object has no parameter registered under name.
func NotFound(object, name string) error {
	return &ParameterError{Class: ErrorInvalid, Object: object, Parameter: name, Err: ErrNotFound}
}

// NotFoundCategory reports that object has no array parameter holding the
// expected element category.
func NotFoundCategory(object, name, category string) error {
	return &ParameterError{
		Class: ErrorInvalid, Object: object, Parameter: name,
		Actual: "no array of " + category, Err: ErrNotFound,
	}
}

// TypeMismatch reports a disagreement between the requested type and the
// type the parameter was registered with.
func TypeMismatch(object, name, expected, actual string) error {
	return &ParameterError{
		Class: ErrorInvalid, Object: object, Parameter: name,
		Expected: expected, Actual: actual, Err: ErrTypeMismatch,
	}
}

// NotCloneable reports that the stored value cannot accept a new value.
func NotCloneable(object, name string) error {
	return &ParameterError{Class: ErrorInvalid, Object: object, Parameter: name, Err: ErrNotCloneable}
}

// IllegalOption reports a string that is not one of the parameter's options.
func IllegalOption(object, name, option string, options []string) error {
	return &ParameterError{
		Class: ErrorInvalid, Object: object, Parameter: name,
		Expected: strings.Join(options, "|"), Actual: fmt.Sprintf("%q", option),
		Err: ErrIllegalOption,
	}
}

// RunFunctionFailed reports that a bound run function returned false.
func RunFunctionFailed(object, name string) error {
	return &ParameterError{Class: ErrorInvalid, Object: object, Parameter: name, Err: ErrRunFunctionFailure}
}

// IsTransient checks if an error is transient and should be retried
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// Check for classified error
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}
	var pe *ParameterError
	if errors.As(err, &pe) {
		return pe.Class == ErrorTransient
	}

	if errors.Is(err, ErrNoConnection) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	// Check error message for common transient patterns
	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"connection",
		"network",
		"temporary",
		"unavailable",
		"busy",
		"retry",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsFatal checks if an error is fatal and should stop processing
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	// Check for classified error
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}
	var pe *ParameterError
	if errors.As(err, &pe) {
		return pe.Class == ErrorFatal
	}

	if errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrMissingConfig) {
		return true
	}

	// Check error message for fatal patterns
	errStr := strings.ToLower(err.Error())
	fatalPatterns := []string{
		"fatal",
		"panic",
		"corrupted",
		"invalid config",
		"missing config",
		"out of memory",
	}

	for _, pattern := range fatalPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsInvalid checks if an error is due to invalid input
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	// Check for classified error
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}
	var pe *ParameterError
	if errors.As(err, &pe) {
		return pe.Class == ErrorInvalid
	}

	if errors.Is(err, ErrInvalidData) ||
		errors.Is(err, ErrParsingFailed) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTypeMismatch) ||
		errors.Is(err, ErrNotCloneable) ||
		errors.Is(err, ErrIllegalOption) ||
		errors.Is(err, ErrRunFunctionFailure) ||
		errors.Is(err, ErrIndexOutOfRange) {
		return true
	}

	return false
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient // Default for nil
	}

	if IsTransient(err) {
		return ErrorTransient
	}
	if IsFatal(err) {
		return ErrorFatal
	}
	if IsInvalid(err) {
		return ErrorInvalid
	}

	// Default to transient for unknown errors to allow retry
	return ErrorTransient
}

// newClassified creates a new classified error
// This is an internal helper - use WrapTransient(), WrapFatal(), or WrapInvalid() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}

// RetryConfig defines configuration for retry operations
type RetryConfig struct {
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors []error
}

// DefaultRetryConfig returns a sensible default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		BackoffFactor:   2.0,
		RetryableErrors: nil, // Empty list means retry all transient errors
	}
}

// ShouldRetry determines if an error should be retried based on config
func (rc RetryConfig) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= rc.MaxRetries {
		return false
	}

	if !IsTransient(err) {
		return false
	}

	if len(rc.RetryableErrors) > 0 {
		for _, retryableErr := range rc.RetryableErrors {
			if errors.Is(err, retryableErr) {
				return true
			}
		}
		return false
	}

	return true
}

// BackoffDelay calculates the delay before retry attempt n (0-based)
func (rc RetryConfig) BackoffDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return rc.InitialDelay
	}

	delay := rc.InitialDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * rc.BackoffFactor)
		if delay > rc.MaxDelay {
			delay = rc.MaxDelay
			break
		}
	}

	return delay
}

// ToRetryConfig converts to a retry.Config that retries the errors
// ShouldRetry accepts. MaxRetries counts retries, so attempts are one more.
func (rc RetryConfig) ToRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  rc.MaxRetries + 1,
		InitialDelay: rc.InitialDelay,
		MaxDelay:     rc.MaxDelay,
		Multiplier:   rc.BackoffFactor,
		Jitter:       true,
		Retryable: func(err error) bool {
			return rc.ShouldRetry(err, 0)
		},
	}
}
