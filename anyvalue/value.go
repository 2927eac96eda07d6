// Package anyvalue provides a type-erased value container.
//
// A Value records its concrete type once, at construction, and never changes
// it. Narrowing with As fails with a type mismatch rather than converting.
// Every Value carries an operation table resolved once per type: deep clone,
// structural equality with float tolerance, and a stable little-endian byte
// stream for hashing. Types can take over any of the three by implementing
// Cloner, Equaler or Hasher.
//
// A Value either owns its storage or refers to a caller's variable (MakeRef).
// Assign writes through a reference, which is how a parameter store updates
// the field an object registered.
package anyvalue

import (
	"fmt"
	"io"
	"reflect"

	"github.com/c360/objkit/errors"
)

// Value is a type-erased value. The zero Value holds nothing.
type Value struct {
	ptr reflect.Value // *T, valid unless fn is set
	fn  reflect.Value // func() T for lazily computed values
	typ reflect.Type
	ref bool
	pol *policy
}

// Make returns a Value owning a copy of v.
func Make[T any](v T) Value {
	p := new(T)
	*p = v
	t := reflect.TypeFor[T]()
	return Value{ptr: reflect.ValueOf(p), typ: t, pol: policyFor(t)}
}

// MakeRef returns a Value referring to *p. Reads see later writes to *p and
// Assign writes through to it.
func MakeRef[T any](p *T) Value {
	if p == nil {
		panic("anyvalue: MakeRef of nil pointer")
	}
	t := reflect.TypeFor[T]()
	return Value{ptr: reflect.ValueOf(p), typ: t, ref: true, pol: policyFor(t)}
}

// MakeFunc returns a read-only Value whose content is computed by fn on every
// read.
func MakeFunc[T any](fn func() T) Value {
	if fn == nil {
		panic("anyvalue: MakeFunc of nil function")
	}
	t := reflect.TypeFor[T]()
	return Value{fn: reflect.ValueOf(fn), typ: t, pol: policyFor(t)}
}

// FromAny returns a Value owning v with v's dynamic type. FromAny(nil)
// returns the zero Value.
func FromAny(v any) Value {
	if v == nil {
		return Value{}
	}
	return FromReflect(reflect.ValueOf(v))
}

// FromReflect returns a Value owning a copy of rv, typed as rv.Type(). An
// interface-typed rv keeps its interface type.
func FromReflect(rv reflect.Value) Value {
	if !rv.IsValid() {
		return Value{}
	}
	t := rv.Type()
	p := reflect.New(t)
	p.Elem().Set(rv)
	return Value{ptr: p, typ: t, pol: policyFor(t)}
}

// As narrows v to T. The types must match exactly.
func As[T any](v Value) (T, error) {
	var zero T
	want := reflect.TypeFor[T]()
	if v.typ != want {
		return zero, mismatch(want, v.typ)
	}
	out, _ := v.current().Interface().(T)
	return out, nil
}

// IsValid reports whether v holds a value.
func (v Value) IsValid() bool { return v.typ != nil }

// Type returns the stored type, nil for the zero Value.
func (v Value) Type() reflect.Type { return v.typ }

// TypeName returns the stored type's name as Go prints it.
func (v Value) TypeName() string { return typeName(v.typ) }

// IsRef reports whether v refers to storage it does not own.
func (v Value) IsRef() bool { return v.ref }

// IsFunc reports whether v is computed on read.
func (v Value) IsFunc() bool { return v.fn.IsValid() }

// Cloneable reports whether Clone and Assign can succeed for this type.
// Functions, channels, unsafe pointers and computed values are not.
func (v Value) Cloneable() bool {
	return v.typ != nil && !v.IsFunc() && v.pol.cloneable
}

// Interface returns the current content. Computed values are evaluated.
func (v Value) Interface() any {
	if v.typ == nil {
		return nil
	}
	return v.current().Interface()
}

// Pointer returns the *T backing v, or nil for computed and zero Values.
func (v Value) Pointer() any {
	if !v.ptr.IsValid() {
		return nil
	}
	return v.ptr.Interface()
}

// Reflect returns the current content as a reflect.Value.
func (v Value) Reflect() reflect.Value {
	if v.typ == nil {
		return reflect.Value{}
	}
	return v.current()
}

func (v Value) current() reflect.Value {
	if v.fn.IsValid() {
		return v.fn.Call(nil)[0]
	}
	return v.ptr.Elem()
}

// Clone returns an owned deep copy of v. Exported structure is copied
// recursively; unexported struct fields are copied shallowly, so slices,
// maps and pointers held in them are shared with v. Objects reached by the
// copy are fresh and unreferenced: see Retain.
func (v Value) Clone() (Value, error) {
	if !v.Cloneable() {
		return Value{}, fmt.Errorf("%w: %s", errors.ErrNotCloneable, v.TypeName())
	}
	c, err := v.pol.clone(v.current())
	if err != nil {
		return Value{}, err
	}
	return fromTyped(c, v.typ), nil
}

func fromTyped(rv reflect.Value, t reflect.Type) Value {
	p := reflect.New(t)
	p.Elem().Set(rv)
	return Value{ptr: p, typ: t, pol: policyFor(t)}
}

// Equal reports structural equality. Values of different types are never
// equal. Float leaves compare under tol.
func (v Value) Equal(other Value, tol Tolerance) bool {
	if v.typ == nil || other.typ == nil {
		return v.typ == nil && other.typ == nil
	}
	if v.typ != other.typ {
		return false
	}
	return v.pol.equal(v.current(), other.current(), tol)
}

// WriteHash streams v's byte representation into w.
func (v Value) WriteHash(w io.Writer) {
	if v.typ == nil {
		return
	}
	v.pol.hash(w, v.current())
}

// Assign replaces v's content with src's, writing through references. The
// assignment is shallow: src's content is stored as is.
func (v Value) Assign(src Value) error {
	if !v.Cloneable() {
		return fmt.Errorf("%w: %s", errors.ErrNotCloneable, v.TypeName())
	}
	if src.typ != v.typ {
		return mismatch(v.typ, src.typ)
	}
	v.ptr.Elem().Set(src.current())
	return nil
}

// Int returns the content of an integer-kinded value.
func (v Value) Int() (int64, bool) {
	if v.typ == nil {
		return 0, false
	}
	switch v.typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.current().Int(), true
	}
	return 0, false
}

// SetInt stores n into an integer-kinded value.
func (v Value) SetInt(n int64) error {
	if _, ok := v.Int(); !ok {
		return mismatch(reflect.TypeFor[int](), v.typ)
	}
	if !v.Cloneable() {
		return fmt.Errorf("%w: %s", errors.ErrNotCloneable, v.TypeName())
	}
	e := v.ptr.Elem()
	if e.OverflowInt(n) {
		return fmt.Errorf("%w: %d overflows %s", errors.ErrInvalidData, n, v.TypeName())
	}
	e.SetInt(n)
	return nil
}

// String formats the current content. Functions print as their type.
func (v Value) String() string {
	if v.typ == nil {
		return "<invalid>"
	}
	if v.typ.Kind() == reflect.Func {
		return v.typ.String()
	}
	return fmt.Sprint(v.current().Interface())
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// MismatchError reports a narrowing failure. It unwraps to
// errors.ErrTypeMismatch.
type MismatchError struct {
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v (expected %s, actual %s)", errors.ErrTypeMismatch, e.Expected, e.Actual)
}

func (e *MismatchError) Unwrap() error { return errors.ErrTypeMismatch }

func mismatch(expected, actual reflect.Type) error {
	return &MismatchError{Expected: typeName(expected), Actual: typeName(actual)}
}
