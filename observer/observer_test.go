package observer_test

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/objkit/anyvalue"
	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/metric"
	"github.com/c360/objkit/model"
	"github.com/c360/objkit/object"
	"github.com/c360/objkit/observable"
	"github.com/c360/objkit/observer"
	"github.com/c360/objkit/param"
	"github.com/c360/objkit/pkg/retry"
	tu "github.com/c360/objkit/testutil"
)

func observed(t *testing.T, source string, step int64, name string, v any) observable.ObservedValue {
	t.Helper()
	ov, err := observable.Snapshot(step, name, anyvalue.FromAny(v), param.None)
	require.NoError(t, err)
	ov.Source = source
	return ov
}

type point struct {
	Step int64
	Name string
}

func points(values []observable.ObservedValue) []point {
	out := make([]point, len(values))
	for i, v := range values {
		out[i] = point{v.Step, v.Name}
	}
	return out
}

func TestRecorder(t *testing.T) {
	rec := observer.NewRecorder(3)
	for i := range 4 {
		rec.OnNext(observed(t, "P", int64(i), "loss", float64(i)))
	}
	rec.OnNext(observed(t, "P", 4, "bias", 1.0))

	want := []point{{2, "loss"}, {3, "loss"}, {4, "bias"}}
	if diff := cmp.Diff(want, points(rec.Values())); diff != "" {
		t.Errorf("recorded values mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(2), rec.Dropped())
	assert.Len(t, rec.Named("loss"), 2)

	assert.Len(t, rec.Drain(), 3)
	assert.Empty(t, rec.Values())
	rec.OnNext(observed(t, "P", 5, "loss", 0.0))
	rec.Reset()
	assert.Empty(t, rec.Values())
	rec.OnComplete()
	assert.Equal(t, 1, rec.Completed())
}

func TestRecorder_TrainingRun(t *testing.T) {
	te := tu.NewEnvironment(t)
	p := model.NewPerceptron(te.Options()...)
	require.NoError(t, object.Add(p, "features",
		model.NewDenseFeatures([][]float64{{0}, {1}, {5}, {6}}, te.Options()...)))
	require.NoError(t, object.Add[object.Labels](p, "labels",
		model.NewBinaryLabels([]float64{-1, -1, 1, 1}, te.Options()...)))

	rec := observer.NewRecorder(64)
	p.Subscribe(observable.Filtered(rec, "loss"))
	require.NoError(t, object.Run(p, "train"))

	losses := rec.Values()
	require.NotEmpty(t, losses)
	for i, v := range losses {
		assert.Equal(t, "loss", v.Name)
		assert.Equal(t, int64(i), v.Step)
		assert.Equal(t, "Perceptron", v.Source)
	}
	last, err := anyvalue.As[float64](losses[len(losses)-1].Value)
	require.NoError(t, err)
	assert.Equal(t, 0.0, last)
}

func TestLatest(t *testing.T) {
	l, err := observer.NewLatest(2)
	require.NoError(t, err)

	l.OnNext(observed(t, "A", 0, "loss", 0.9))
	l.OnNext(observed(t, "A", 1, "loss", 0.4))
	l.OnNext(observed(t, "B", 0, "loss", 0.7))

	v, ok := l.Get("A", "loss")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.Step)
	assert.Equal(t, []string{"A/loss", "B/loss"}, l.Keys())

	l.OnNext(observed(t, "C", 0, "bias", 1.0))
	_, ok = l.Get("B", "loss")
	assert.False(t, ok, "least recently used pair is evicted")

	_, err = observer.NewLatest(0)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidConfig))
}

func TestLogger(t *testing.T) {
	buf := &tu.SafeBuffer{}
	l := observer.NewLogger(slog.New(slog.NewTextHandler(buf, nil)), slog.LevelInfo)
	v := observed(t, "Perceptron", 3, "bias", -0.5)
	v.Timestamp = 1700000000000
	l.OnNext(v)
	l.OnComplete()

	out := buf.String()
	assert.Contains(t, out, `msg="Observed value"`)
	assert.Contains(t, out, "source=Perceptron")
	assert.Contains(t, out, "step=3")
	assert.Contains(t, out, "value=-0.5")
	assert.Contains(t, out, "observed_at=2023-11-14T22:13:20.000Z")
	assert.Contains(t, out, `msg="Observation complete"`)
}

func TestMetrics(t *testing.T) {
	reg := metric.NewMetricsRegistry(metric.WithoutRuntimeCollectors())
	m, err := observer.NewMetrics(reg)
	require.NoError(t, err)

	m.OnNext(observed(t, "P", 4, "loss", 0.25))
	m.OnNext(observed(t, "P", 5, "iterations", int32(7)))
	m.OnNext(observed(t, "P", 5, "alphas", []float64{1, 2}))

	n, err := testutil.GatherAndCount(reg.PrometheusRegistry(), "objkit_observer_deliveries_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = testutil.GatherAndCount(reg.PrometheusRegistry(), "objkit_observer_value")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	families, err := reg.PrometheusRegistry().Gather()
	require.NoError(t, err)
	if diff := cmp.Diff(map[string]float64{"loss": 0.25, "iterations": 7},
		gaugesByName(families, "objkit_observer_value")); diff != "" {
		t.Errorf("gauge values mismatch (-want +got):\n%s", diff)
	}

	_, err = observer.NewMetrics(reg)
	assert.True(t, stderrors.Is(err, errors.ErrAlreadyRegistered), "one metrics observer per registry")
}

func gaugesByName(families []*dto.MetricFamily, family string) map[string]float64 {
	out := map[string]float64{}
	for _, f := range families {
		if f.GetName() != family {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "name" {
					out[lp.GetValue()] = m.GetGauge().GetValue()
				}
			}
		}
	}
	return out
}

func fastRetry() observer.NATSOption {
	return observer.WithRetry(retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
		Retryable:    errors.IsTransient,
	})
}

func TestNATS_Publish(t *testing.T) {
	pub := tu.NewMockPublisher()
	n := observer.NewNATS(pub, "objkit.observed", fastRetry())

	v := observed(t, "Perceptron", 2, "loss", 0.5)
	subject := n.Subject(v)
	assert.Equal(t, "objkit.observed.Perceptron.loss", subject)

	n.OnNext(v)
	msgs := pub.Messages(subject)
	require.Len(t, msgs, 1)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msgs[0], &got))
	assert.Equal(t, "loss", got["name"])
	assert.Equal(t, 0.5, got["value"])
	assert.Equal(t, float64(2), got["step"])
	assert.Equal(t, "Perceptron", got["source"])
	assert.Equal(t, int64(1), n.Published())
}

func TestNATS_RetriesTransientFailures(t *testing.T) {
	pub := tu.NewMockPublisher()
	n := observer.NewNATS(pub, "objkit.observed", fastRetry())
	v := observed(t, "P", 0, "bias", 1.0)

	pub.FailNext(2, nil)
	n.OnNext(v)
	assert.Equal(t, 3, pub.Attempts())
	assert.Equal(t, 1, pub.Count(n.Subject(v)))

	pub.FailNext(5, stderrors.New("payload rejected"))
	n.OnNext(v)
	assert.Equal(t, 4, pub.Attempts(), "non-transient errors are not retried")
	assert.Equal(t, int64(1), n.Failed())
}

func TestNATS_SubjectTokens(t *testing.T) {
	n := observer.NewNATS(tu.NewMockPublisher(), "p")
	v := observed(t, "", 0, "a.b c", 1)
	assert.Equal(t, "p._.a_b_c", n.Subject(v))
}

func TestRateLimited(t *testing.T) {
	rec := observer.NewRecorder(10)
	rl := observer.NewRateLimited(rec, 0.001, 2)
	for i := range 5 {
		rl.OnNext(observed(t, "P", int64(i), "loss", 0.0))
	}
	rl.OnComplete()

	assert.Len(t, rec.Values(), 2)
	assert.Equal(t, int64(3), rl.Dropped())
	assert.Equal(t, 1, rec.Completed())
}

func TestFunc(t *testing.T) {
	var names []string
	done := false
	f := observer.Func{
		Next:     func(v observable.ObservedValue) { names = append(names, v.Name) },
		Complete: func() { done = true },
	}
	f.OnNext(observed(t, "P", 0, "loss", 1.0))
	f.OnComplete()
	assert.Equal(t, []string{"loss"}, names)
	assert.True(t, done)

	assert.NotPanics(t, func() {
		observer.Func{}.OnNext(observable.ObservedValue{})
		observer.Func{}.OnComplete()
	})
}
