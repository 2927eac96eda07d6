package anyvalue

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
	"slices"
	"sync"

	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/pkg/murmur3"
)

// Cloner is implemented by values that deep-copy themselves. The walker
// defers to it before inspecting the value's structure.
type Cloner interface {
	CloneValue() (any, error)
}

// Equaler is implemented by values that define their own structural equality.
type Equaler interface {
	EqualValue(other any, tol Tolerance) bool
}

// Hasher is implemented by values that stream their own hash bytes.
type Hasher interface {
	HashValue(w io.Writer)
}

var (
	clonerType  = reflect.TypeFor[Cloner]()
	equalerType = reflect.TypeFor[Equaler]()
	hasherType  = reflect.TypeFor[Hasher]()
)

// policy is the per-type operation table. Element policies are looked up
// through the cache when first needed, so recursive types resolve lazily.
type policy struct {
	cloneable bool
	clone     func(v reflect.Value) (reflect.Value, error)
	equal     func(a, b reflect.Value, tol Tolerance) bool
	hash      func(w io.Writer, v reflect.Value)
}

var policies sync.Map // reflect.Type -> *policy

func policyFor(t reflect.Type) *policy {
	if p, ok := policies.Load(t); ok {
		return p.(*policy)
	}
	p, _ := policies.LoadOrStore(t, buildPolicy(t))
	return p.(*policy)
}

func buildPolicy(t reflect.Type) *policy {
	p := &policy{cloneable: true}
	p.clone, p.equal, p.hash = kindOps(t)

	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		p.cloneable = false
	}

	if t.Implements(clonerType) {
		p.cloneable = true
		p.clone = hookClone(t)
	}
	if t.Implements(equalerType) {
		p.equal = hookEqual
	}
	if t.Implements(hasherType) {
		p.hash = hookHash
	}
	return p
}

func nilable(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func hookClone(t reflect.Type) func(reflect.Value) (reflect.Value, error) {
	return func(v reflect.Value) (reflect.Value, error) {
		out := reflect.New(t).Elem()
		if nilable(v) {
			return out, nil
		}
		res, err := v.Interface().(Cloner).CloneValue()
		if err != nil {
			return out, err
		}
		if res == nil {
			return out, fmt.Errorf("%w: %s clone returned nil", errors.ErrNotCloneable, t)
		}
		rv := reflect.ValueOf(res)
		if !rv.Type().AssignableTo(t) {
			return out, mismatch(t, rv.Type())
		}
		out.Set(rv)
		return out, nil
	}
}

func hookEqual(a, b reflect.Value, tol Tolerance) bool {
	an, bn := nilable(a), nilable(b)
	if an || bn {
		return an == bn
	}
	return a.Interface().(Equaler).EqualValue(b.Interface(), tol)
}

func hookHash(w io.Writer, v reflect.Value) {
	if nilable(v) {
		writeByte(w, 0)
		return
	}
	v.Interface().(Hasher).HashValue(w)
}

func kindOps(t reflect.Type) (
	func(reflect.Value) (reflect.Value, error),
	func(a, b reflect.Value, tol Tolerance) bool,
	func(io.Writer, reflect.Value),
) {
	switch t.Kind() {
	case reflect.Bool:
		return copyClone, func(a, b reflect.Value, _ Tolerance) bool { return a.Bool() == b.Bool() },
			func(w io.Writer, v reflect.Value) {
				if v.Bool() {
					writeByte(w, 1)
				} else {
					writeByte(w, 0)
				}
			}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		size := int(t.Size())
		return copyClone, func(a, b reflect.Value, _ Tolerance) bool { return a.Int() == b.Int() },
			func(w io.Writer, v reflect.Value) { writeUint(w, uint64(v.Int()), size) }

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		size := int(t.Size())
		return copyClone, func(a, b reflect.Value, _ Tolerance) bool { return a.Uint() == b.Uint() },
			func(w io.Writer, v reflect.Value) { writeUint(w, v.Uint(), size) }

	case reflect.Float32:
		return copyClone, func(a, b reflect.Value, tol Tolerance) bool {
				return FEquals32(float32(a.Float()), float32(b.Float()), tol)
			},
			func(w io.Writer, v reflect.Value) { writeUint(w, uint64(math.Float32bits(float32(v.Float()))), 4) }

	case reflect.Float64:
		return copyClone, func(a, b reflect.Value, tol Tolerance) bool { return FEquals(a.Float(), b.Float(), tol) },
			func(w io.Writer, v reflect.Value) { writeUint(w, math.Float64bits(v.Float()), 8) }

	case reflect.Complex64, reflect.Complex128:
		return copyClone, func(a, b reflect.Value, tol Tolerance) bool {
				ac, bc := a.Complex(), b.Complex()
				if t.Kind() == reflect.Complex64 {
					return FEquals32(float32(real(ac)), float32(real(bc)), tol) &&
						FEquals32(float32(imag(ac)), float32(imag(bc)), tol)
				}
				return FEquals(real(ac), real(bc), tol) && FEquals(imag(ac), imag(bc), tol)
			},
			func(w io.Writer, v reflect.Value) {
				c := v.Complex()
				if t.Kind() == reflect.Complex64 {
					writeUint(w, uint64(math.Float32bits(float32(real(c)))), 4)
					writeUint(w, uint64(math.Float32bits(float32(imag(c)))), 4)
					return
				}
				writeUint(w, math.Float64bits(real(c)), 8)
				writeUint(w, math.Float64bits(imag(c)), 8)
			}

	case reflect.String:
		return copyClone, func(a, b reflect.Value, _ Tolerance) bool { return a.String() == b.String() },
			func(w io.Writer, v reflect.Value) {
				s := v.String()
				writeUint(w, uint64(len(s)), 4)
				_, _ = io.WriteString(w, s)
			}

	case reflect.Slice:
		return sliceOps(t)
	case reflect.Array:
		return arrayOps(t)
	case reflect.Map:
		return mapOps(t)
	case reflect.Struct:
		return structOps(t)
	case reflect.Pointer:
		return pointerOps(t)
	case reflect.Interface:
		return interfaceOps(t)
	}

	// func, chan, unsafe pointer: identity only
	return func(v reflect.Value) (reflect.Value, error) {
			out := reflect.New(t).Elem()
			if v.Kind() != reflect.UnsafePointer && v.IsNil() {
				return out, nil
			}
			return out, fmt.Errorf("%w: %s", errors.ErrNotCloneable, t)
		},
		func(a, b reflect.Value, _ Tolerance) bool { return a.Pointer() == b.Pointer() },
		func(io.Writer, reflect.Value) {}
}

func copyClone(v reflect.Value) (reflect.Value, error) {
	out := reflect.New(v.Type()).Elem()
	out.Set(v)
	return out, nil
}

func sliceOps(t reflect.Type) (
	func(reflect.Value) (reflect.Value, error),
	func(a, b reflect.Value, tol Tolerance) bool,
	func(io.Writer, reflect.Value),
) {
	elem := t.Elem()
	clone := func(v reflect.Value) (reflect.Value, error) {
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		out := reflect.MakeSlice(t, v.Len(), v.Len())
		if err := cloneElems(out, v, elem); err != nil {
			return reflect.Zero(t), err
		}
		return out, nil
	}
	hash := func(w io.Writer, v reflect.Value) {
		writeUint(w, uint64(v.Len()), 4)
		if elem.Kind() == reflect.Uint8 {
			_, _ = w.Write(v.Bytes())
			return
		}
		hashElems(w, v, elem)
	}
	return clone, seqEqual(elem), hash
}

func arrayOps(t reflect.Type) (
	func(reflect.Value) (reflect.Value, error),
	func(a, b reflect.Value, tol Tolerance) bool,
	func(io.Writer, reflect.Value),
) {
	elem := t.Elem()
	clone := func(v reflect.Value) (reflect.Value, error) {
		out := reflect.New(t).Elem()
		if err := cloneElems(out, v, elem); err != nil {
			return out, err
		}
		return out, nil
	}
	return clone, seqEqual(elem), func(w io.Writer, v reflect.Value) { hashElems(w, v, elem) }
}

func cloneElems(dst, src reflect.Value, elem reflect.Type) error {
	p := policyFor(elem)
	for i := 0; i < src.Len(); i++ {
		c, err := p.clone(src.Index(i))
		if err != nil {
			for j := 0; j < i; j++ {
				release(dst.Index(j))
			}
			return fmt.Errorf("[%d]: %w", i, err)
		}
		dst.Index(i).Set(c)
	}
	return nil
}

func seqEqual(elem reflect.Type) func(a, b reflect.Value, tol Tolerance) bool {
	return func(a, b reflect.Value, tol Tolerance) bool {
		if a.Len() != b.Len() {
			return false
		}
		p := policyFor(elem)
		for i := 0; i < a.Len(); i++ {
			if !p.equal(a.Index(i), b.Index(i), tol) {
				return false
			}
		}
		return true
	}
}

func hashElems(w io.Writer, v reflect.Value, elem reflect.Type) {
	p := policyFor(elem)
	for i := 0; i < v.Len(); i++ {
		p.hash(w, v.Index(i))
	}
}

func mapOps(t reflect.Type) (
	func(reflect.Value) (reflect.Value, error),
	func(a, b reflect.Value, tol Tolerance) bool,
	func(io.Writer, reflect.Value),
) {
	clone := func(v reflect.Value) (reflect.Value, error) {
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		kp, vp := policyFor(t.Key()), policyFor(t.Elem())
		out := reflect.MakeMapWithSize(t, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			k, err := kp.clone(iter.Key())
			if err != nil {
				release(out)
				return reflect.Zero(t), err
			}
			e, err := vp.clone(iter.Value())
			if err != nil {
				release(out)
				release(k)
				return reflect.Zero(t), fmt.Errorf("[%v]: %w", iter.Key(), err)
			}
			out.SetMapIndex(k, e)
		}
		return out, nil
	}
	equal := func(a, b reflect.Value, tol Tolerance) bool {
		if a.Len() != b.Len() {
			return false
		}
		vp := policyFor(t.Elem())
		iter := a.MapRange()
		for iter.Next() {
			bv := b.MapIndex(iter.Key())
			if !bv.IsValid() || !vp.equal(iter.Value(), bv, tol) {
				return false
			}
		}
		return true
	}
	// map iteration order is random, so each entry is digested on its own and
	// the digests are written in sorted order
	hash := func(w io.Writer, v reflect.Value) {
		kp, vp := policyFor(t.Key()), policyFor(t.Elem())
		digests := make([]uint32, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			m := murmur3.New(0)
			kp.hash(m, iter.Key())
			vp.hash(m, iter.Value())
			digests = append(digests, m.Sum32())
		}
		slices.Sort(digests)
		writeUint(w, uint64(len(digests)), 4)
		for _, d := range digests {
			writeUint(w, uint64(d), 4)
		}
	}
	return clone, equal, hash
}

// Structs are walked over exported fields. Unexported fields are copied
// shallowly on clone and ignored by equal and hash. A failed clone releases
// the copies it already made.
func structOps(t reflect.Type) (
	func(reflect.Value) (reflect.Value, error),
	func(a, b reflect.Value, tol Tolerance) bool,
	func(io.Writer, reflect.Value),
) {
	var fields []int
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).IsExported() {
			fields = append(fields, i)
		}
	}
	clone := func(v reflect.Value) (reflect.Value, error) {
		out := reflect.New(t).Elem()
		out.Set(v)
		for n, i := range fields {
			c, err := policyFor(t.Field(i).Type).clone(v.Field(i))
			if err != nil {
				for _, done := range fields[:n] {
					release(out.Field(done))
				}
				return out, fmt.Errorf("%s: %w", t.Field(i).Name, err)
			}
			out.Field(i).Set(c)
		}
		return out, nil
	}
	equal := func(a, b reflect.Value, tol Tolerance) bool {
		for _, i := range fields {
			if !policyFor(t.Field(i).Type).equal(a.Field(i), b.Field(i), tol) {
				return false
			}
		}
		return true
	}
	hash := func(w io.Writer, v reflect.Value) {
		for _, i := range fields {
			policyFor(t.Field(i).Type).hash(w, v.Field(i))
		}
	}
	return clone, equal, hash
}

func pointerOps(t reflect.Type) (
	func(reflect.Value) (reflect.Value, error),
	func(a, b reflect.Value, tol Tolerance) bool,
	func(io.Writer, reflect.Value),
) {
	clone := func(v reflect.Value) (reflect.Value, error) {
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		c, err := policyFor(t.Elem()).clone(v.Elem())
		if err != nil {
			return reflect.Zero(t), err
		}
		out := reflect.New(t.Elem())
		out.Elem().Set(c)
		return out, nil
	}
	equal := func(a, b reflect.Value, tol Tolerance) bool {
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return policyFor(t.Elem()).equal(a.Elem(), b.Elem(), tol)
	}
	hash := func(w io.Writer, v reflect.Value) {
		if v.IsNil() {
			writeByte(w, 0)
			return
		}
		writeByte(w, 1)
		policyFor(t.Elem()).hash(w, v.Elem())
	}
	return clone, equal, hash
}

func interfaceOps(t reflect.Type) (
	func(reflect.Value) (reflect.Value, error),
	func(a, b reflect.Value, tol Tolerance) bool,
	func(io.Writer, reflect.Value),
) {
	clone := func(v reflect.Value) (reflect.Value, error) {
		out := reflect.New(t).Elem()
		if v.IsNil() {
			return out, nil
		}
		e := v.Elem()
		c, err := policyFor(e.Type()).clone(e)
		if err != nil {
			return out, err
		}
		out.Set(c)
		return out, nil
	}
	equal := func(a, b reflect.Value, tol Tolerance) bool {
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		ea, eb := a.Elem(), b.Elem()
		if ea.Type() != eb.Type() {
			return false
		}
		return policyFor(ea.Type()).equal(ea, eb, tol)
	}
	hash := func(w io.Writer, v reflect.Value) {
		if v.IsNil() {
			writeByte(w, 0)
			return
		}
		e := v.Elem()
		policyFor(e.Type()).hash(w, e)
	}
	return clone, equal, hash
}

func writeByte(w io.Writer, b byte) {
	_, _ = w.Write([]byte{b})
}

func writeUint(w io.Writer, v uint64, size int) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = w.Write(buf[:size])
}
