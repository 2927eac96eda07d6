package param

import (
	"reflect"
	"strconv"

	"github.com/c360/objkit/anyvalue"
	"github.com/c360/objkit/errors"
)

var (
	stringType = reflect.TypeFor[string]()
	runType    = reflect.TypeFor[func() bool]()
)

// HasType reports whether name is registered with stored type exactly T.
func HasType[T any](s *Store, name string) bool {
	p, ok := s.params[name]
	return ok && p.value.Type() == reflect.TypeFor[T]()
}

// Get returns the value of name narrowed to T.
//
// A string Get on a parameter with options returns the option name of the
// stored code.
func Get[T any](s *Store, name string) (T, error) {
	var zero T
	p, ok := s.params[name]
	if !ok {
		return zero, errors.NotFound(s.owner, name)
	}
	p.ensureInit()

	want := reflect.TypeFor[T]()
	if want == stringType && p.options != nil {
		code, _ := p.value.Int()
		opt, ok := p.options.Option(int(code))
		if !ok {
			return zero, errors.IllegalOption(s.owner, name, strconv.FormatInt(code, 10), p.options.Options())
		}
		return any(opt).(T), nil
	}

	v, err := anyvalue.As[T](p.value)
	if err != nil {
		return zero, errors.TypeMismatch(s.owner, name, p.value.TypeName(), want.String())
	}
	return v, nil
}

// GetTag is Get addressed by a typed tag.
func GetTag[T any](s *Store, tag Tag[T]) (T, error) {
	return Get[T](s, tag.Name())
}

// Put replaces the value of name. On failure the stored value is unchanged.
//
// A string Put on a parameter with options stores the option's code and
// fails with errors.ErrIllegalOption for an unknown option.
func Put[T any](s *Store, name string, value T) error {
	p, ok := s.params[name]
	if !ok {
		return errors.NotFound(s.owner, name)
	}
	if !p.value.Cloneable() {
		return errors.NotCloneable(s.owner, name)
	}

	if str, isString := any(value).(string); isString && p.options != nil {
		code, ok := p.options.Code(str)
		if !ok {
			return errors.IllegalOption(s.owner, name, str, p.options.Options())
		}
		if err := p.value.SetInt(int64(code)); err != nil {
			return errors.WrapInvalid(err, s.owner, "Put", "store option "+str)
		}
		p.initialized = true
		return nil
	}

	want := reflect.TypeFor[T]()
	if p.value.Type() != want {
		return errors.TypeMismatch(s.owner, name, p.value.TypeName(), want.String())
	}
	if err := p.value.Assign(anyvalue.Make(value)); err != nil {
		return errors.NotCloneable(s.owner, name)
	}
	p.initialized = true
	return nil
}

// PutTag is Put addressed by a typed tag.
func PutTag[T any](s *Store, tag Tag[T], value T) error {
	return Put(s, tag.Name(), value)
}

// PutValue replaces the value of name with an already type-erased value. It
// is the update path used by clone and decoding.
func PutValue(s *Store, name string, value anyvalue.Value) error {
	p, ok := s.params[name]
	if !ok {
		return errors.NotFound(s.owner, name)
	}
	if !p.value.Cloneable() {
		return errors.NotCloneable(s.owner, name)
	}
	if p.value.Type() != value.Type() {
		return errors.TypeMismatch(s.owner, name, p.value.TypeName(), value.TypeName())
	}
	if err := p.value.Assign(value); err != nil {
		return errors.NotCloneable(s.owner, name)
	}
	p.initialized = true
	return nil
}

// Run invokes the run function registered under name.
func Run(s *Store, name string) error {
	p, ok := s.params[name]
	if !ok {
		return errors.NotFound(s.owner, name)
	}
	if !p.props.Has(RunFunction) || p.value.Type() != runType {
		return errors.TypeMismatch(s.owner, name, p.value.TypeName(), runType.String())
	}
	fn, _ := anyvalue.As[func() bool](p.value)
	if fn == nil || !fn() {
		return errors.RunFunctionFailed(s.owner, name)
	}
	return nil
}
