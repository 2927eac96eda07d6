package object

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/c360/objkit/anyvalue"
	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/param"
)

// Array parameters come in two representations: a *DynamicArray holding
// objects of any category, or a slice []T of one element type. Add and GetAt
// work with either without the caller knowing which one an object chose.

// Add appends child to the array parameter name of o.
func Add[T Object](o Object, name string, child T) error {
	b := o.Core()
	if isNil(child) {
		return errors.WrapInvalid(errors.ErrInvalidData, b.name, "Add", "add nil object to "+name)
	}

	if arr, ok := dynamicArray(b, name); ok {
		return arr.Push(child)
	}
	if param.HasType[[]T](b.params, name) {
		cur, err := param.Get[[]T](b.params, name)
		if err != nil {
			return err
		}
		return Put(o, name, append(slices.Clip(cur), child))
	}

	err := errors.NotFoundCategory(b.name, name, categoryName[T]())
	b.recordError(err)
	return err
}

// GetAt returns element i of the array parameter name of o narrowed to T.
// An element of a heterogeneous array that is not a T is a fatal error.
func GetAt[T Object](o Object, name string, i int) (T, error) {
	var zero T
	b := o.Core()

	if arr, ok := dynamicArray(b, name); ok {
		elem, err := arr.At(i)
		if err != nil {
			return zero, err
		}
		t, ok := elem.(T)
		if !ok {
			err := errors.TypeMismatch(b.name, name, categoryName[T](), reflect.TypeOf(elem).String())
			b.recordError(err)
			return zero, errors.WrapFatal(err, b.name, "GetAt", "narrow array element")
		}
		return t, nil
	}
	if param.HasType[[]T](b.params, name) {
		s, err := param.Get[[]T](b.params, name)
		if err != nil {
			return zero, err
		}
		if i < 0 || i >= len(s) {
			return zero, outOfRange(b, name, i, len(s))
		}
		return s[i], nil
	}

	err := errors.NotFoundCategory(b.name, name, categoryName[T]())
	b.recordError(err)
	return zero, err
}

// GetObjectAt returns element i of the array parameter name without a static
// element type. Slice parameters are tried by category, in the order Kernel,
// Features, Machine, Labels, EvaluationResult, then []Object.
func GetObjectAt(o Object, name string, i int) (Object, error) {
	b := o.Core()
	if arr, ok := dynamicArray(b, name); ok {
		return arr.At(i)
	}

	p, ok := b.params.Lookup(name)
	if ok {
		for _, get := range untypedGetters {
			if elem, found, err := get(b, p.Value(), name, i); found {
				return elem, err
			}
		}
	}

	err := errors.NotFoundCategory(b.name, name, "object.Object")
	b.recordError(err)
	return nil, err
}

type untypedGetter func(b *Base, v anyvalue.Value, name string, i int) (Object, bool, error)

var untypedGetters = []untypedGetter{
	sliceGetter[Kernel],
	sliceGetter[Features],
	sliceGetter[Machine],
	sliceGetter[Labels],
	sliceGetter[EvaluationResult],
	sliceGetter[Object],
}

func sliceGetter[T Object](b *Base, v anyvalue.Value, name string, i int) (Object, bool, error) {
	s, err := anyvalue.As[[]T](v)
	if err != nil {
		return nil, false, nil
	}
	if i < 0 || i >= len(s) {
		return nil, true, outOfRange(b, name, i, len(s))
	}
	return s[i], true, nil
}

func dynamicArray(b *Base, name string) (*DynamicArray, bool) {
	p, ok := b.params.Lookup(name)
	if !ok {
		return nil, false
	}
	arr, err := anyvalue.As[*DynamicArray](p.Value())
	return arr, err == nil && arr != nil
}

func categoryName[T any]() string {
	return reflect.TypeFor[T]().String()
}

func outOfRange(b *Base, name string, i, n int) error {
	err := fmt.Errorf("%w: %s[%d] of %d", errors.ErrIndexOutOfRange, name, i, n)
	b.recordError(err)
	return errors.WrapInvalid(err, b.name, "GetAt", "index array")
}
