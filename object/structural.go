package object

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/c360/objkit/anyvalue"
	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/param"
	"github.com/c360/objkit/pkg/murmur3"
)

// Clone returns a deep copy of b's object holding one reference, or nil when
// a parameter refuses to be cloned. The failure is logged.
func (b *Base) Clone() Object {
	c, err := b.cloneObject()
	if err != nil {
		b.logger.Warn("Clone failed", "error", err)
		return nil
	}
	c.Core().Ref()
	return c
}

// Clone is the typed form of o.Core().Clone(). It returns the zero T on
// failure.
func Clone[T Object](o T) T {
	var zero T
	if isNil(o) {
		return zero
	}
	c, ok := o.Core().Clone().(T)
	if !ok {
		return zero
	}
	return c
}

// cloneObject builds the copy without taking a reference to it; the caller
// decides who owns it.
func (b *Base) cloneObject() (Object, error) {
	start := time.Now()
	c, err := b.copyInto()
	b.metrics().RecordClone(b.name, err == nil, time.Since(start))
	return c, err
}

func (b *Base) copyInto() (Object, error) {
	empty := b.self.CreateEmpty()
	if isNil(empty) {
		return nil, errors.WrapInvalid(errors.ErrClassNotFound, b.name, "Clone", "create empty instance")
	}
	if reflect.TypeOf(empty) != reflect.TypeOf(b.self) {
		err := errors.TypeMismatch(b.name, "<self>", reflect.TypeOf(b.self).String(), reflect.TypeOf(empty).String())
		discard(empty)
		return nil, errors.WrapFatal(err, b.name, "Clone", "create empty instance")
	}

	dst := empty.Core()
	b.params.InitAutoParameters()
	for _, p := range b.params.Parameters() {
		if p.IsFunction() {
			continue
		}
		v, err := p.Value().Clone()
		if err == nil {
			if err = putValue(dst, p.Name(), v); err != nil {
				v.Release()
			}
		}
		if err != nil {
			discard(empty)
			return nil, errors.WrapInvalid(fmt.Errorf("%s: %w", p.Name(), err), b.name, "Clone", "clone parameter")
		}
	}
	return empty, nil
}

// discard destroys an object nobody references yet.
func discard(o Object) {
	if b := o.Core(); b != nil && b.count.Enabled() && !b.Destroyed() {
		b.Unref()
	}
}

// Equals reports whether other has b's concrete type and equal parameters.
// Floats compare under the environment's tolerance.
func (b *Base) Equals(other Object) bool {
	return equal(b.self, other, b.env.Tolerance())
}

// Equals reports structural equality of a and c.
func Equals(a, c Object) bool {
	if isNil(a) {
		return isNil(c)
	}
	return a.Core().Equals(c)
}

func equal(a, c Object, tol anyvalue.Tolerance) bool {
	if isNil(a) || isNil(c) {
		return isNil(a) && isNil(c)
	}
	if reflect.TypeOf(a) != reflect.TypeOf(c) {
		return false
	}
	ba, bc := a.Core(), c.Core()
	if ba == bc {
		return true
	}

	ba.params.InitAutoParameters()
	bc.params.InitAutoParameters()
	pa, pc := ba.params.Parameters(), bc.params.Parameters()
	if len(pa) != len(pc) {
		return false
	}
	for i := range pa {
		if pa[i].Name() != pc[i].Name() {
			return false
		}
		if pa[i].IsFunction() {
			continue
		}
		if !pa[i].Value().Equal(pc[i].Value(), tol) {
			ba.logger.Debug("Parameter differs", "name", pa[i].Name())
			return false
		}
	}
	return true
}

// Hash returns the MurmurHash3 of every data parameter value, recursing into
// child objects.
func (b *Base) Hash() uint32 {
	m := murmur3.New(0)
	b.writeHash(m)
	return m.Sum32()
}

// UpdateParameterHash caches the current hash.
func (b *Base) UpdateParameterHash() {
	b.hash = b.Hash()
}

// ParameterHashChanged reports whether the parameters changed since the last
// UpdateParameterHash.
func (b *Base) ParameterHashChanged() bool {
	return b.Hash() != b.hash
}

// writeHash streams every data parameter into w. Children write into the same
// running hash.
func (b *Base) writeHash(w io.Writer) {
	b.params.InitAutoParameters()
	for _, p := range b.params.Parameters() {
		if p.IsFunction() {
			continue
		}
		p.Value().WriteHash(w)
	}
}

// CloneValue implements anyvalue.Cloner so parameters holding objects clone
// recursively. The copy is returned unreferenced; storing it takes the
// reference.
func (b *Base) CloneValue() (any, error) {
	return b.cloneObject()
}

// RetainValue implements anyvalue.Retainer.
func (b *Base) RetainValue() { b.Ref() }

// ReleaseValue implements anyvalue.Retainer. A copy nobody retained is
// destroyed.
func (b *Base) ReleaseValue() { b.Unref() }

// EqualValue implements anyvalue.Equaler.
func (b *Base) EqualValue(other any, tol anyvalue.Tolerance) bool {
	o, ok := other.(Object)
	if !ok {
		return false
	}
	return equal(b.self, o, tol)
}

// HashValue implements anyvalue.Hasher.
func (b *Base) HashValue(w io.Writer) {
	b.writeHash(w)
}

// String renders the object as Name(p1=v1, p2=v2). Run functions are left
// out; string options print their name.
func (b *Base) String() string {
	var sb strings.Builder
	sb.WriteString(b.self.Name())
	sb.WriteByte('(')
	first := true
	for _, p := range b.params.Parameters() {
		if p.Properties().Has(param.RunFunction) {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(p.Name())
		sb.WriteByte('=')
		sb.WriteString(formatParameter(p))
	}
	sb.WriteByte(')')
	return sb.String()
}

func formatParameter(p *param.Parameter) string {
	v := p.Value()
	if opts := p.Options(); opts != nil {
		if code, ok := v.Int(); ok {
			if name, ok := opts.Option(int(code)); ok {
				return name
			}
		}
	}
	return v.String()
}
