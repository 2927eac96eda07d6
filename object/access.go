package object

import (
	stderrors "errors"
	"reflect"

	"github.com/c360/objkit/anyvalue"
	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/param"
)

// Has reports whether o has a parameter called name.
func Has(o Object, name string) bool {
	return o.Core().params.Has(name)
}

// HasType reports whether o has a parameter called name stored as exactly T.
func HasType[T any](o Object, name string) bool {
	return param.HasType[T](o.Core().params, name)
}

// Get returns parameter name of o narrowed to T.
func Get[T any](o Object, name string) (T, error) {
	b := o.Core()
	v, err := param.Get[T](b.params, name)
	if err != nil {
		b.recordError(err)
	}
	return v, err
}

// GetTag is Get addressed by a typed tag.
func GetTag[T any](o Object, tag param.Tag[T]) (T, error) {
	return Get[T](o, tag.Name())
}

// Put replaces parameter name of o with value. When the parameter holds
// objects, the new ones are referenced and the replaced ones released.
func Put[T any](o Object, name string, value T) error {
	b := o.Core()
	old := b.childrenOf(name)
	if err := param.Put(b.params, name, value); err != nil {
		b.recordError(err)
		return err
	}
	b.adopt(name, old)
	return nil
}

// PutTag is Put addressed by a typed tag.
func PutTag[T any](o Object, tag param.Tag[T], value T) error {
	return Put(o, tag.Name(), value)
}

// PutObject stores child in an object-valued parameter without naming its
// static type. child must be assignable to the registered type.
func PutObject(o Object, name string, child Object) error {
	b := o.Core()
	p, ok := b.params.Lookup(name)
	if !ok {
		err := errors.NotFound(b.name, name)
		b.recordError(err)
		return err
	}
	t := p.Value().Type()
	rv := reflect.New(t).Elem()
	if !isNil(child) {
		cv := reflect.ValueOf(child)
		if !cv.Type().AssignableTo(t) {
			err := errors.TypeMismatch(b.name, name, p.Value().TypeName(), cv.Type().String())
			b.recordError(err)
			return err
		}
		rv.Set(cv)
	} else if !nilable(t) {
		err := errors.TypeMismatch(b.name, name, p.Value().TypeName(), "nil")
		b.recordError(err)
		return err
	}
	return putValue(b, name, anyvalue.FromReflect(rv))
}

// GetObject returns the object held by parameter name.
func GetObject(o Object, name string) (Object, error) {
	b := o.Core()
	p, ok := b.params.Lookup(name)
	if !ok {
		err := errors.NotFound(b.name, name)
		b.recordError(err)
		return nil, err
	}
	child, ok := p.Value().Interface().(Object)
	if !ok || isNil(child) {
		err := errors.TypeMismatch(b.name, name, p.Value().TypeName(), objectType.String())
		b.recordError(err)
		return nil, err
	}
	return child, nil
}

// Run invokes the run function registered under name.
func Run(o Object, name string) error {
	b := o.Core()
	if err := param.Run(b.params, name); err != nil {
		b.recordError(err)
		b.logger.Warn("Run function failed", "name", name, "error", err)
		return err
	}
	return nil
}

// putValue is the type-erased update path shared by PutObject, Clone and the
// decoders.
func putValue(b *Base, name string, v anyvalue.Value) error {
	old := b.childrenOf(name)
	if err := param.PutValue(b.params, name, v); err != nil {
		b.recordError(err)
		return err
	}
	b.adopt(name, old)
	return nil
}

// PutValue stores an already type-erased value. Decoders use it.
func PutValue(o Object, name string, v anyvalue.Value) error {
	return putValue(o.Core(), name, v)
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func (b *Base) recordError(err error) {
	b.metrics().RecordParameterError(b.name, errorKind(err))
}

func errorKind(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrNotFound):
		return "not_found"
	case stderrors.Is(err, errors.ErrTypeMismatch):
		return "type_mismatch"
	case stderrors.Is(err, errors.ErrNotCloneable):
		return "not_cloneable"
	case stderrors.Is(err, errors.ErrIllegalOption):
		return "illegal_option"
	case stderrors.Is(err, errors.ErrRunFunctionFailure):
		return "run_function"
	case stderrors.Is(err, errors.ErrIndexOutOfRange):
		return "index_out_of_range"
	}
	return "other"
}
