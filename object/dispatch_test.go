package object_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/model"
	"github.com/c360/objkit/object"
	"github.com/c360/objkit/param"
	tu "github.com/c360/objkit/testutil"
)

// bag exposes both array representations.
type bag struct {
	*object.Base
	mixed   *object.DynamicArray
	kernels []object.Kernel
	plain   []object.Object
	count   int
}

func newBag(opts ...object.Option) *bag {
	b := &bag{}
	b.Base = object.NewBase(b, "Bag", opts...)
	param.Watch(b.Params(), "mixed", &b.mixed)
	param.Watch(b.Params(), "kernels", &b.kernels)
	param.Watch(b.Params(), "plain", &b.plain)
	param.Watch(b.Params(), "count", &b.count)
	_ = object.Put(b, "mixed", object.NewDynamicArray(b.Inherit()...))
	return b
}

func (b *bag) CreateEmpty() object.Object { return newBag(b.Inherit()...) }

func TestAddGetAt_BothRepresentations(t *testing.T) {
	te := tu.NewEnvironment(t)

	tests := []struct {
		name  string
		param string
	}{
		{"heterogeneous", "mixed"},
		{"fixed", "kernels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBag(te.Options()...)
			k := model.NewGaussianKernel(te.Options()...)

			require.NoError(t, object.Add[object.Kernel](b, tt.param, k))
			assert.Equal(t, int32(1), k.RefCount())

			got, err := object.GetAt[object.Kernel](b, tt.param, 0)
			require.NoError(t, err)
			assert.Same(t, k, got)
			assert.True(t, object.Equals(k, got))

			untyped, err := object.GetObjectAt(b, tt.param, 0)
			require.NoError(t, err)
			assert.Same(t, k, untyped)

			_, err = object.GetAt[object.Kernel](b, tt.param, 1)
			assert.True(t, stderrors.Is(err, errors.ErrIndexOutOfRange))

			b.Ref()
			b.Unref()
			assert.True(t, k.Destroyed(), "the container held the only reference")
		})
	}
}

func TestGetAt_HeterogeneousNarrowingIsFatal(t *testing.T) {
	te := tu.NewEnvironment(t)
	b := newBag(te.Options()...)
	require.NoError(t, object.Add(b, "mixed", model.NewBinaryLabels([]float64{1}, te.Options()...)))

	_, err := object.GetAt[object.Kernel](b, "mixed", 0)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrTypeMismatch))
	assert.True(t, errors.IsFatal(err))

	l, err := object.GetAt[object.Labels](b, "mixed", 0)
	require.NoError(t, err)
	assert.Equal(t, "BinaryLabels", l.Name())
}

func TestAddGetAt_NotFoundNamesCategory(t *testing.T) {
	te := tu.NewEnvironment(t)
	b := newBag(te.Options()...)

	err := object.Add[object.Features](b, "kernels", model.NewDenseFeatures(nil, te.Options()...))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
	assert.Contains(t, err.Error(), "object.Features")

	_, err = object.GetAt[object.Machine](b, "count", 0)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
	assert.Contains(t, err.Error(), "object.Machine")

	_, err = object.GetObjectAt(b, "missing", 0)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))

	err = object.Add[object.Kernel](b, "kernels", nil)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidData))
}

func TestGetObjectAt_PlainObjectSlice(t *testing.T) {
	te := tu.NewEnvironment(t)
	b := newBag(te.Options()...)
	a := model.NewAccuracy(te.Options()...)
	require.NoError(t, object.Add[object.Object](b, "plain", a))

	got, err := object.GetObjectAt(b, "plain", 0)
	require.NoError(t, err)
	assert.Same(t, a, got)

	res, err := object.GetAt[object.Object](b, "plain", 0)
	require.NoError(t, err)
	_, ok := res.(object.EvaluationResult)
	assert.True(t, ok)
}

func TestDynamicArray(t *testing.T) {
	te := tu.NewEnvironment(t)
	arr := object.NewDynamicArray(te.Options()...)
	k := model.NewLinearKernel(te.Options()...)
	f := model.NewDenseFeatures([][]float64{{1}}, te.Options()...)

	require.NoError(t, arr.Push(k))
	require.NoError(t, arr.Push(f))
	assert.Equal(t, 2, arr.Len())
	assert.Len(t, arr.Elements(), 2)

	got, err := arr.At(1)
	require.NoError(t, err)
	assert.Same(t, f, got)

	c := object.Clone(arr)
	require.NotNil(t, c)
	assert.True(t, object.Equals(arr, c))
	ck, err := c.At(0)
	require.NoError(t, err)
	assert.NotSame(t, k, ck)

	arr.Ref()
	arr.Unref()
	assert.True(t, k.Destroyed())
	assert.True(t, f.Destroyed())
	assert.False(t, ck.Core().Destroyed())
}
