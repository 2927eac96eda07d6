package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/objkit/pkg/retry"
)

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(7).String())
}

// Each case is built the way the producing package builds it.
func TestClassify_ProducedErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		class    ErrorClass
		sentinel error
	}{
		{
			"parameter lookup",
			NotFound("GaussianKernel", "width"),
			ErrorInvalid, ErrNotFound,
		},
		{
			"typed put",
			TypeMismatch("GaussianKernel", "width", "float64", "int"),
			ErrorInvalid, ErrTypeMismatch,
		},
		{
			"string option",
			IllegalOption("Perceptron", "kernel_type", "POLY", []string{"GAUSSIAN", "LINEAR"}),
			ErrorInvalid, ErrIllegalOption,
		},
		{
			"run function",
			RunFunctionFailed("Perceptron", "train"),
			ErrorInvalid, ErrRunFunctionFailure,
		},
		{
			"array element narrowing",
			WrapFatal(TypeMismatch("Perceptron", "features", "*model.DenseFeatures", "*model.GaussianKernel"),
				"Perceptron", "GetAt", "narrow array element"),
			ErrorFatal, ErrTypeMismatch,
		},
		{
			"array index",
			WrapInvalid(fmt.Errorf("%w: features[3] of 1", ErrIndexOutOfRange), "Perceptron", "GetAt", "index array"),
			ErrorInvalid, ErrIndexOutOfRange,
		},
		{
			"bare index sentinel",
			ErrIndexOutOfRange,
			ErrorInvalid, ErrIndexOutOfRange,
		},
		{
			"unchained save hook",
			WrapFatal(ErrHookNotChained, "Perceptron", "Save", "SaveSerializablePre"),
			ErrorFatal, ErrHookNotChained,
		},
		{
			"publish without connection",
			WrapTransient(ErrNoConnection, "Client", "Publish", "publish to objkit.observed.Perceptron.loss"),
			ErrorTransient, ErrNoConnection,
		},
		{
			"connect cancelled",
			WrapTransient(context.Canceled, "Client", "Connect", "connection cancelled"),
			ErrorTransient, context.Canceled,
		},
		{
			"yaml write",
			WrapTransient(io.ErrShortWrite, "yamlcodec", "Encode", "write Perceptron"),
			ErrorTransient, io.ErrShortWrite,
		},
		{
			"yaml parse",
			WrapInvalid(fmt.Errorf("%w: line 3", ErrParsingFailed), "yamlcodec", "Decode", "read document"),
			ErrorInvalid, ErrParsingFailed,
		},
		{
			"yaml unknown parameter",
			WrapInvalid(NotFound("Perceptron", "momentum"), "yamlcodec", "Decode", "match parameter"),
			ErrorInvalid, ErrNotFound,
		},
		{
			"config field",
			WrapInvalid(fmt.Errorf("%w: parallel.threads: must not be negative", ErrInvalidConfig),
				"Config", "Validate", "check parallel.threads"),
			ErrorInvalid, ErrInvalidConfig,
		},
		{
			"unregistered class",
			WrapInvalid(ErrClassNotFound, "Registry", "Create", "class lookup"),
			ErrorInvalid, ErrClassNotFound,
		},
		{"bare invalid config", ErrInvalidConfig, ErrorFatal, ErrInvalidConfig},
		{"bare missing config", ErrMissingConfig, ErrorFatal, ErrMissingConfig},
		{"bare no connection", ErrNoConnection, ErrorTransient, ErrNoConnection},
		{"deadline", context.DeadlineExceeded, ErrorTransient, context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.class, Classify(tt.err))
			assert.Equal(t, tt.class == ErrorTransient, IsTransient(tt.err), "IsTransient")
			assert.Equal(t, tt.class == ErrorFatal, IsFatal(tt.err), "IsFatal")
			assert.Equal(t, tt.class == ErrorInvalid, IsInvalid(tt.err), "IsInvalid")
			assert.True(t, stderrors.Is(tt.err, tt.sentinel))
		})
	}
}

func TestClassify_MessagePatternsAndDefault(t *testing.T) {
	assert.True(t, IsTransient(fmt.Errorf("nats: connection refused")))
	assert.True(t, IsFatal(fmt.Errorf("panic: runtime error")))
	assert.False(t, IsTransient(nil))
	assert.False(t, IsFatal(nil))
	assert.False(t, IsInvalid(nil))

	unknown := fmt.Errorf("kernel matrix not positive definite")
	assert.False(t, IsTransient(unknown))
	assert.False(t, IsFatal(unknown))
	assert.False(t, IsInvalid(unknown))
	assert.Equal(t, ErrorTransient, Classify(unknown))
	assert.Equal(t, ErrorTransient, Classify(nil))
}

func TestParameterError_ClassGovernsClassification(t *testing.T) {
	pe := &ParameterError{Class: ErrorTransient, Object: "Perceptron", Parameter: "kernel", Err: ErrNotFound}
	assert.True(t, IsTransient(pe))
	assert.False(t, IsInvalid(pe), "the class field wins over the sentinel")

	pe.Class = ErrorFatal
	assert.Equal(t, ErrorFatal, Classify(fmt.Errorf("load: %w", pe)))
}

func TestParameterError_Format(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		want     string
	}{
		{
			"not found",
			NotFound("GaussianKernel", "width"), ErrNotFound,
			"GaussianKernel::width: parameter not found",
		},
		{
			"type mismatch",
			TypeMismatch("GaussianKernel", "width", "int", "float64"), ErrTypeMismatch,
			"GaussianKernel::width: type mismatch (expected int, actual float64)",
		},
		{
			"not cloneable",
			NotCloneable("Perceptron", "num_alphas"), ErrNotCloneable,
			"Perceptron::num_alphas: value not cloneable",
		},
		{
			"illegal option",
			IllegalOption("Perceptron", "kernel_type", "UNKNOWN", []string{"GAUSSIAN", "LINEAR"}), ErrIllegalOption,
			`Perceptron::kernel_type: illegal option (expected GAUSSIAN|LINEAR, actual "UNKNOWN")`,
		},
		{
			"run function",
			RunFunctionFailed("Perceptron", "train"), ErrRunFunctionFailure,
			"Perceptron::train: run function failed",
		},
		{
			"missing category",
			NotFoundCategory("Perceptron", "kernels", "Kernel"), ErrNotFound,
			"Perceptron::kernels: parameter not found (no array of Kernel)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.True(t, stderrors.Is(tt.err, tt.sentinel))

			var pe *ParameterError
			require.True(t, stderrors.As(tt.err, &pe))
			assert.Equal(t, ErrorInvalid, pe.Class)
		})
	}
}

func TestWrapFatal_KeepsParameterDetail(t *testing.T) {
	err := WrapFatal(TypeMismatch("Perceptron", "labels", "object.Labels", "*model.DenseFeatures"),
		"Perceptron", "GetAt", "narrow array element")

	var pe *ParameterError
	require.True(t, stderrors.As(err, &pe))
	assert.Equal(t, "labels", pe.Parameter)
	assert.Equal(t,
		"Perceptron.GetAt: narrow array element failed: Perceptron::labels: type mismatch "+
			"(expected object.Labels, actual *model.DenseFeatures)",
		err.Error())
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "Store", "Put", "assign"))
	assert.EqualError(t, Wrap(io.EOF, "yamlcodec", "Decode", "read document"),
		"yamlcodec.Decode: read document failed: EOF")
}

func TestWrapClassified(t *testing.T) {
	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		class ErrorClass
	}{
		{"transient", WrapTransient, ErrorTransient},
		{"invalid", WrapInvalid, ErrorInvalid},
		{"fatal", WrapFatal, ErrorFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, tt.wrap(nil, "Client", "Flush", "flush"))

			err := tt.wrap(ErrNoConnection, "Client", "Flush", "flush")
			var ce *ClassifiedError
			require.True(t, stderrors.As(err, &ce))
			assert.Equal(t, tt.class, ce.Class)
			assert.Equal(t, "Client", ce.Component)
			assert.Equal(t, "Flush", ce.Operation)
			assert.Equal(t, "Client.Flush: flush failed: no connection available", ce.Error())
			assert.True(t, stderrors.Is(err, ErrNoConnection))
		})
	}
}

func TestClassifiedError_FallsBackToCause(t *testing.T) {
	ce := &ClassifiedError{Class: ErrorInvalid, Err: ErrParsingFailed}
	assert.Equal(t, "parsing failed", ce.Error())
}

func TestRetryConfig_ShouldRetry(t *testing.T) {
	rc := DefaultRetryConfig()
	publish := WrapTransient(ErrNoConnection, "Client", "Publish", "publish to objkit.observed")

	assert.False(t, rc.ShouldRetry(nil, 0))
	assert.True(t, rc.ShouldRetry(publish, 0))
	assert.True(t, rc.ShouldRetry(publish, rc.MaxRetries-1))
	assert.False(t, rc.ShouldRetry(publish, rc.MaxRetries), "attempts exhausted")
	assert.False(t, rc.ShouldRetry(NotFound("Perceptron", "kernel"), 0))
	assert.False(t, rc.ShouldRetry(WrapFatal(ErrHookNotChained, "Perceptron", "Save", "post"), 0))

	rc.RetryableErrors = []error{ErrNoConnection}
	assert.True(t, rc.ShouldRetry(publish, 0))
	assert.False(t, rc.ShouldRetry(context.DeadlineExceeded, 0), "transient but not listed")
}

func TestRetryConfig_BackoffDelay(t *testing.T) {
	rc := RetryConfig{InitialDelay: 50 * time.Millisecond, MaxDelay: 300 * time.Millisecond, BackoffFactor: 2}

	var got []time.Duration
	for attempt := range 5 {
		got = append(got, rc.BackoffDelay(attempt))
	}
	assert.Equal(t, []time.Duration{
		50 * time.Millisecond,
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
		300 * time.Millisecond,
	}, got)
}

func TestRetryConfig_ToRetryConfig(t *testing.T) {
	rc := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}
	cfg := rc.ToRetryConfig()
	assert.Equal(t, 3, cfg.MaxAttempts)

	attempts := 0
	err := retry.Do(context.Background(), cfg, func() error {
		attempts++
		return WrapTransient(ErrNoConnection, "Client", "Publish", "publish")
	})
	assert.Equal(t, 3, attempts)
	assert.True(t, stderrors.Is(err, ErrNoConnection))

	attempts = 0
	err = retry.Do(context.Background(), cfg, func() error {
		attempts++
		return TypeMismatch("GaussianKernel", "width", "float64", "string")
	})
	assert.Equal(t, 1, attempts, "invalid errors are not retried")
	assert.True(t, stderrors.Is(err, ErrTypeMismatch))
}

func BenchmarkClassify(b *testing.B) {
	err := WrapFatal(TypeMismatch("Perceptron", "features", "a", "b"), "Perceptron", "GetAt", "narrow")
	b.ResetTimer()
	for range b.N {
		Classify(err)
	}
}
