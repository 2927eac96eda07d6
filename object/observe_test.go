package object_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/objkit/anyvalue"
	"github.com/c360/objkit/model"
	"github.com/c360/objkit/object"
	"github.com/c360/objkit/observable"
	"github.com/c360/objkit/observer"
	"github.com/c360/objkit/param"
	tu "github.com/c360/objkit/testutil"
)

func TestObserve_SubscribeUnsubscribe(t *testing.T) {
	te := tu.NewEnvironment(t)
	p := model.NewPerceptron(te.Options()...)
	rec := tu.NewRecordingObserver()

	for i := range 5 {
		object.ObserveValue(p, int64(i), "loss", 0.5, param.None)
	}
	assert.Equal(t, 0, rec.Len())

	id := p.Subscribe(rec)
	assert.Equal(t, 1, p.NumSubscriptions())
	p.Observe(7, "loss", anyvalue.Make(0.25), param.Gradient)

	values := rec.Values()
	require.Len(t, values, 1)
	v := values[0]
	assert.Equal(t, int64(7), v.Step)
	assert.Equal(t, "loss", v.Name)
	assert.Equal(t, param.Gradient, v.Properties)
	assert.Equal(t, "Perceptron", v.Source)
	assert.Equal(t, p.ID(), v.SourceID)
	assert.Equal(t, "Fraction of training vectors misclassified in a pass", v.Description)
	got, err := anyvalue.As[float64](v.Value)
	require.NoError(t, err)
	assert.Equal(t, 0.25, got)

	assert.True(t, p.Unsubscribe(id))
	assert.False(t, p.Unsubscribe(id))
	p.Observe(8, "loss", anyvalue.Make(0.1), param.None)
	assert.Equal(t, 1, rec.Len())
	assert.Equal(t, 0, rec.Completed())

	assert.Equal(t, 1.0, testutil.ToFloat64(
		te.Registry.CoreMetrics().Observations.WithLabelValues("Perceptron", "loss")))
	assert.Equal(t, 0.0, testutil.ToFloat64(
		te.Registry.CoreMetrics().Subscriptions.WithLabelValues("Perceptron")))
}

func TestObserve_SnapshotIsACopy(t *testing.T) {
	te := tu.NewEnvironment(t)
	p := model.NewPerceptron(te.Options()...)
	rec := tu.NewRecordingObserver()
	p.Subscribe(rec)

	require.NoError(t, object.Put(p, "alphas", []float64{1, 2}))
	require.NoError(t, p.ObserveParameter(3, "alphas"))
	require.NoError(t, object.Put(p, "alphas", []float64{5, 5}))

	values := rec.Values()
	require.Len(t, values, 1)
	got, err := anyvalue.As[[]float64](values[0].Value)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, got)
	assert.Equal(t, param.Gradient, values[0].Properties)
}

func TestObserve_UndeclaredIsDropped(t *testing.T) {
	te := tu.NewEnvironment(t)
	p := model.NewPerceptron(te.Options()...)
	rec := tu.NewRecordingObserver()
	p.Subscribe(rec)

	object.ObserveValue(p, 0, "learning_rate", 1.0, param.None)
	assert.Equal(t, 0, rec.Len())
	assert.Contains(t, te.Logs.String(), "Dropping observation of undeclared parameter")
	assert.Equal(t, 1.0, testutil.ToFloat64(
		te.Registry.CoreMetrics().ObservationsDropped.WithLabelValues("Perceptron", "undeclared")))

	assert.Error(t, p.ObserveParameter(0, "nope"))
}

func TestObserve_Training(t *testing.T) {
	te := tu.NewEnvironment(t)
	p := trainingSet(t, te)
	rec := tu.NewRecordingObserver()
	p.Subscribe(rec)

	assert.Equal(t, []string{"loss", "bias", "alphas"}, p.ObservableNames())
	require.NoError(t, object.Run(p, "train"))

	// separable data: one pass with mistakes, one clean pass
	assert.Equal(t, []string{"loss", "bias", "alphas", "loss", "bias", "alphas"}, rec.Names())
	values := rec.Values()
	assert.Equal(t, int64(0), values[0].Step)
	assert.Equal(t, int64(1), values[3].Step)
	loss, err := anyvalue.As[float64](values[3].Value)
	require.NoError(t, err)
	assert.Equal(t, 0.0, loss)
	assert.Equal(t, int64(1), p.CurrentStep())

	p.Ref()
	p.Unref()
	assert.Equal(t, 1, rec.Completed())
}

func TestCurrentStep_Missing(t *testing.T) {
	te := tu.NewEnvironment(t)
	assert.Equal(t, int64(-1), model.NewGaussianKernel(te.Options()...).CurrentStep())
}

func TestObserve_ObjectSnapshotsAreReleased(t *testing.T) {
	te := tu.NewEnvironment(t)
	h := newHolder(te.Options()...)
	require.NoError(t, object.Put(h, "child", newTracked(te.Options()...)))
	h.RegisterObservable("child", "Owned child")
	live := te.Registry.CoreMetrics().ObjectsLive.WithLabelValues("Tracked")

	var seen *tracked
	h.Subscribe(observer.Func{Next: func(v observable.ObservedValue) {
		seen, _ = anyvalue.As[*tracked](v.Value)
		assert.Equal(t, int32(1), seen.RefCount(), "alive while observers run")
	}})
	require.NoError(t, h.ObserveParameter(0, "child"))

	require.NotNil(t, seen)
	assert.NotSame(t, h.child, seen)
	assert.True(t, seen.Destroyed(), "nobody kept the snapshot")
	assert.Equal(t, 1, seen.destroyed)
	assert.False(t, h.child.Destroyed())
	assert.Equal(t, 1.0, testutil.ToFloat64(live))
}

func TestObserve_RetainingObserversOwnSnapshots(t *testing.T) {
	te := tu.NewEnvironment(t)
	h := newHolder(te.Options()...)
	require.NoError(t, object.Put(h, "child", newTracked(te.Options()...)))
	h.RegisterObservable("child", "Owned child")
	live := te.Registry.CoreMetrics().ObjectsLive.WithLabelValues("Tracked")

	rec := observer.NewRecorder(1)
	h.Subscribe(rec)
	require.NoError(t, h.ObserveParameter(0, "child"))
	first, err := anyvalue.As[*tracked](rec.Values()[0].Value)
	require.NoError(t, err)
	assert.Equal(t, int32(1), first.RefCount())
	assert.Equal(t, 2.0, testutil.ToFloat64(live))

	require.NoError(t, h.ObserveParameter(1, "child"))
	assert.True(t, first.Destroyed(), "dropped from the ring")
	second, err := anyvalue.As[*tracked](rec.Values()[0].Value)
	require.NoError(t, err)
	assert.False(t, second.Destroyed())
	assert.Equal(t, 2.0, testutil.ToFloat64(live))

	rec.Reset()
	assert.True(t, second.Destroyed())
	assert.Equal(t, 1.0, testutil.ToFloat64(live))
}

func TestObserve_LatestReleasesReplacedSnapshots(t *testing.T) {
	te := tu.NewEnvironment(t)
	h := newHolder(te.Options()...)
	require.NoError(t, object.Put(h, "child", newTracked(te.Options()...)))
	h.RegisterObservable("child", "Owned child")
	live := te.Registry.CoreMetrics().ObjectsLive.WithLabelValues("Tracked")

	latest, err := observer.NewLatest(4)
	require.NoError(t, err)
	h.Subscribe(latest)
	for step := range 3 {
		require.NoError(t, h.ObserveParameter(int64(step), "child"))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(live), "only the newest snapshot is kept")

	latest.Reset()
	assert.Empty(t, latest.Keys())
	assert.Equal(t, 1.0, testutil.ToFloat64(live))
}

func TestObserve_RecordingObserverReset(t *testing.T) {
	te := tu.NewEnvironment(t)
	h := newHolder(te.Options()...)
	require.NoError(t, object.Put(h, "child", newTracked(te.Options()...)))
	h.RegisterObservable("child", "Owned child")

	rec := tu.NewRecordingObserver()
	h.Subscribe(rec)
	require.NoError(t, h.ObserveParameter(0, "child"))
	kept, err := anyvalue.As[*tracked](rec.Values()[0].Value)
	require.NoError(t, err)
	assert.False(t, kept.Destroyed())

	rec.Reset()
	assert.Zero(t, rec.Len())
	assert.True(t, kept.Destroyed())
}
