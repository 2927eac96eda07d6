package param

import (
	"fmt"

	"github.com/c360/objkit/anyvalue"
)

// Builder attaches metadata to a freshly registered parameter.
type Builder struct {
	p *Parameter
}

// Hyper flags the parameter for model selection.
func (b *Builder) Hyper() *Builder { b.p.props |= Hyper; return b }

// Gradient flags the parameter for gradient-based optimization.
func (b *Builder) Gradient() *Builder { b.p.props |= Gradient; return b }

// ReadOnly flags the parameter as read-only.
func (b *Builder) ReadOnly() *Builder { b.p.props |= ReadOnly; return b }

// Describe sets the description.
func (b *Builder) Describe(text string) *Builder { b.p.description = text; return b }

// Options exposes an integer-kinded parameter as a string choice.
func (b *Builder) Options(options map[string]int) *Builder {
	if _, ok := b.p.value.Int(); !ok {
		panic(fmt.Sprintf("param: options on non-integer parameter %s (%s)", b.p.name, b.p.value.TypeName()))
	}
	b.p.options = NewStringEnumTable(options)
	return b
}

// Register adds a parameter owning value.
func Register[T any](s *Store, name string, value T) *Builder {
	return s.add(&Parameter{name: name, value: anyvalue.Make(value)})
}

// Watch adds a parameter backed by *field. Put writes into the field.
func Watch[T any](s *Store, name string, field *T) *Builder {
	return s.add(&Parameter{name: name, value: anyvalue.MakeRef(field)})
}

// WatchAuto adds an AUTO parameter backed by *field. The first Get, or
// InitAutoParameters, stores init() into the field unless a value was Put
// before. An AUTO parameter never takes an initial value.
func WatchAuto[T any](s *Store, name string, field *T, init func() T) *Builder {
	if init == nil {
		panic(fmt.Sprintf("param: AUTO parameter %s::%s needs an initializer", s.owner, name))
	}
	return s.add(&Parameter{
		name:  name,
		value: anyvalue.MakeRef(field),
		props: Auto,
		init:  func() { *field = init() },
	})
}

// WatchMethod adds a read-only parameter computed by fn on every Get.
func WatchMethod[T any](s *Store, name string, fn func() T) *Builder {
	return s.add(&Parameter{
		name:        name,
		value:       anyvalue.MakeFunc(fn),
		props:       ReadOnly,
		description: "Dynamic parameter",
	})
}

// WatchRunFunction adds a callable invoked by Run. fn reports success.
func WatchRunFunction(s *Store, name string, fn func() bool) *Builder {
	return s.add(&Parameter{
		name:        name,
		value:       anyvalue.Make(fn),
		props:       RunFunction | ReadOnly,
		description: "Non-const function",
	})
}
