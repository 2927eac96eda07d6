package anyvalue

import (
	"reflect"
	"sync"
)

// Retainer is implemented by values whose copies are reference counted,
// such as objects. A deep copy holds Retainers nobody has referenced yet;
// Retain and Release reach them through slices, arrays, maps, pointers,
// interfaces and exported struct fields without descending into them.
type Retainer interface {
	RetainValue()
	ReleaseValue()
}

var retainerType = reflect.TypeFor[Retainer]()

var retainerTypes sync.Map // reflect.Type -> bool

// mayHoldRetainer reports whether a value of type t can reach a Retainer.
// Interfaces always can.
func mayHoldRetainer(t reflect.Type) bool {
	if r, ok := retainerTypes.Load(t); ok {
		return r.(bool)
	}
	r := scanRetainer(t, map[reflect.Type]bool{})
	retainerTypes.Store(t, r)
	return r
}

func scanRetainer(t reflect.Type, seen map[reflect.Type]bool) bool {
	if t.Implements(retainerType) {
		return true
	}
	if seen[t] {
		return false
	}
	seen[t] = true
	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Slice, reflect.Array, reflect.Pointer:
		return scanRetainer(t.Elem(), seen)
	case reflect.Map:
		return scanRetainer(t.Key(), seen) || scanRetainer(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); f.IsExported() && scanRetainer(f.Type, seen) {
				return true
			}
		}
	}
	return false
}

func walkRetainers(v reflect.Value, fn func(Retainer)) {
	if !v.IsValid() || !mayHoldRetainer(v.Type()) {
		return
	}
	if v.Type().Implements(retainerType) {
		if !nilable(v) && v.CanInterface() {
			fn(v.Interface().(Retainer))
		}
		return
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if !v.IsNil() {
			walkRetainers(v.Elem(), fn)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			walkRetainers(v.Index(i), fn)
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			walkRetainers(iter.Key(), fn)
			walkRetainers(iter.Value(), fn)
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).IsExported() {
				walkRetainers(v.Field(i), fn)
			}
		}
	}
}

func retain(v reflect.Value)  { walkRetainers(v, Retainer.RetainValue) }
func release(v reflect.Value) { walkRetainers(v, Retainer.ReleaseValue) }

// Retain takes a reference on every Retainer reachable from v. It is meant
// for owned copies returned by Clone: whoever keeps one past the call that
// produced it retains it. Function values are skipped.
func (v Value) Retain() {
	if v.IsValid() && !v.IsFunc() {
		retain(v.ptr.Elem())
	}
}

// Release drops a reference on every Retainer reachable from v. A copy
// that was never retained is destroyed.
func (v Value) Release() {
	if v.IsValid() && !v.IsFunc() {
		release(v.ptr.Elem())
	}
}
