package object_test

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/model"
	"github.com/c360/objkit/object"
)

func TestRegistry_RegisterAndCreate(t *testing.T) {
	r := object.NewRegistry()
	require.NoError(t, model.Register(r))

	assert.True(t, r.Has("Perceptron"))
	assert.False(t, r.Has("DynamicObjectArray"), "a fresh registry only has what was added")
	assert.Equal(t, []string{
		"Accuracy", "BinaryLabels", "DenseFeatures", "GaussianKernel", "LinearKernel", "Perceptron",
	}, r.List())

	o, err := r.Create("GaussianKernel")
	require.NoError(t, err)
	assert.Equal(t, "GaussianKernel", o.Name())
	assert.Equal(t, int32(0), o.Core().RefCount())
}

// plain relies on the registry-backed CreateEmpty of Base.
type plain struct {
	*object.Base
}

func newPlain(r *object.Registry) *plain {
	p := &plain{}
	p.Base = object.NewBase(p, "Plain", object.WithRegistry(r))
	return p
}

func TestRegistry_DefaultCreateEmpty(t *testing.T) {
	r := object.NewRegistry()
	p := newPlain(r)
	assert.Nil(t, p.CreateEmpty(), "class not registered yet")

	r.MustRegisterClass("Plain", func() object.Object { return newPlain(r) })
	empty := p.CreateEmpty()
	require.NotNil(t, empty)
	assert.IsType(t, &plain{}, empty)
	assert.NotSame(t, p, empty)
}

func TestRegistry_Errors(t *testing.T) {
	r := object.NewRegistry()
	factory := func() object.Object { return model.NewLinearKernel() }

	require.NoError(t, r.RegisterClass("LinearKernel", factory))
	err := r.RegisterClass("LinearKernel", factory)
	assert.True(t, stderrors.Is(err, errors.ErrAlreadyRegistered))
	assert.True(t, errors.IsInvalid(err))

	assert.True(t, stderrors.Is(r.RegisterClass("", factory), errors.ErrInvalidConfig))
	assert.True(t, stderrors.Is(r.RegisterClass("Nil", nil), errors.ErrInvalidConfig))

	_, err = r.Create("Missing")
	assert.True(t, stderrors.Is(err, errors.ErrClassNotFound))

	require.NoError(t, r.RegisterClass("Broken", func() object.Object { return nil }))
	_, err = r.Create("Broken")
	assert.True(t, stderrors.Is(err, errors.ErrClassNotFound))

	assert.Panics(t, func() { r.MustRegisterClass("LinearKernel", factory) })
}

func TestRegistry_Default(t *testing.T) {
	r := object.DefaultRegistry()
	for _, name := range []string{object.DynamicArrayName, "Perceptron", "DenseFeatures"} {
		assert.True(t, r.Has(name), name)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := object.NewRegistry()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := string(rune('A' + i))
			assert.NoError(t, r.RegisterClass(name, func() object.Object { return model.NewAccuracy() }))
			assert.True(t, r.Has(name))
			_ = r.List()
		}()
	}
	wg.Wait()
	assert.Len(t, r.List(), 8)
}
