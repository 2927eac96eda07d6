package object

import (
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	"github.com/c360/objkit/env"
	"github.com/c360/objkit/metric"
	"github.com/c360/objkit/observable"
	"github.com/c360/objkit/param"
	"github.com/c360/objkit/refcount"
)

// Object is implemented by every framework object. Embedding *Base provides
// all three methods; derived types usually override CreateEmpty.
type Object interface {
	// Name returns the class name.
	Name() string
	// CreateEmpty returns a new instance of the same concrete type with
	// default parameter values, or nil.
	CreateEmpty() Object
	// Core returns the embedded base.
	Core() *Base
}

// Destroyer is implemented by objects that release resources of their own
// when their reference count reaches zero. OnDestroy runs before the base
// releases child objects.
type Destroyer interface {
	OnDestroy()
}

// Base carries the state shared by all objects: the reference count, the
// parameter store, the observable subject and the cached parameter hash.
type Base struct {
	self     Object
	name     string
	id       uuid.UUID
	count    *refcount.Count
	params   *param.Store
	subject  *observable.Subject
	env      *env.Environment
	registry *Registry
	logger   *slog.Logger
	hash     uint32
	hooks    hookFlags
}

type options struct {
	env      *env.Environment
	registry *Registry
	counting bool
}

// Option configures NewBase.
type Option func(*options)

// WithEnvironment binds the object to e instead of env.Default().
func WithEnvironment(e *env.Environment) Option {
	return func(o *options) { o.env = e }
}

// WithoutRefCounting disables reference counting: Ref, Unref and RefCount
// report refcount.Disabled and the object is never destroyed by Unref.
func WithoutRefCounting() Option {
	return func(o *options) { o.counting = false }
}

// WithRegistry makes the default CreateEmpty look classes up in r.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// NewBase returns the base for self, an object of class name. Derived
// constructors call it first and then register their parameters.
func NewBase(self Object, name string, opts ...Option) *Base {
	if self == nil {
		panic("object: NewBase with nil self")
	}
	o := options{counting: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.env == nil {
		o.env = env.Default()
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}

	b := &Base{
		self:     self,
		name:     name,
		id:       uuid.New(),
		params:   param.NewStore(name),
		env:      o.env,
		registry: o.registry,
	}
	b.logger = o.env.Logger().With("object", name, "id", b.id.String())
	b.subject = observable.NewSubject(b.logger)
	if o.counting {
		b.count = refcount.New(b.destroy)
	} else {
		b.count = refcount.NewDisabled()
	}

	b.metrics().RecordCreated(name)
	return b
}

// Inherit returns options that give a new object this object's environment,
// registry and counting mode. CreateEmpty implementations pass them on.
func (b *Base) Inherit() []Option {
	opts := []Option{WithEnvironment(b.env), WithRegistry(b.registry)}
	if !b.count.Enabled() {
		opts = append(opts, WithoutRefCounting())
	}
	return opts
}

// Name returns the class name.
func (b *Base) Name() string { return b.name }

// Core returns b.
func (b *Base) Core() *Base { return b }

// ID returns the instance id.
func (b *Base) ID() uuid.UUID { return b.id }

// Params returns the parameter store. Derived constructors register into it.
func (b *Base) Params() *param.Store { return b.params }

// Environment returns the environment the object was built with.
func (b *Base) Environment() *env.Environment { return b.env }

// Registry returns the class registry CreateEmpty uses.
func (b *Base) Registry() *Registry { return b.registry }

// Logger returns a logger tagged with the object's class and id.
func (b *Base) Logger() *slog.Logger { return b.logger }

// CreateEmpty creates a default instance of the class through the registry.
func (b *Base) CreateEmpty() Object {
	o, err := b.registry.Create(b.name)
	if err != nil {
		b.logger.Error("Cannot create empty instance", "error", err)
		return nil
	}
	return o
}

// Ref increments the reference count and returns it.
func (b *Base) Ref() int32 { return b.count.Ref() }

// Unref decrements the reference count and returns it. The object is
// destroyed when the count reaches zero.
func (b *Base) Unref() int32 { return b.count.Unref() }

// RefCount returns the reference count.
func (b *Base) RefCount() int32 { return b.count.Value() }

// Destroyed reports whether the object has been destroyed.
func (b *Base) Destroyed() bool { return b.count.Destroyed() }

func (b *Base) metrics() *metric.Metrics { return b.env.Metrics() }

func (b *Base) destroy() {
	if n := b.subject.Len(); n > 0 {
		b.metrics().AddSubscriptions(b.name, -n)
	}
	b.subject.Complete()

	if d, ok := b.self.(Destroyer); ok {
		d.OnDestroy()
	}
	for _, p := range b.params.Parameters() {
		if p.IsFunction() {
			continue
		}
		for _, c := range children(p) {
			c.Core().Unref()
		}
	}

	b.metrics().RecordDestroyed(b.name)
	b.logger.Debug("Destroyed object")
}

// childrenOf returns the objects held by parameter name.
func (b *Base) childrenOf(name string) []Object {
	p, ok := b.params.Lookup(name)
	if !ok || p.IsFunction() {
		return nil
	}
	return children(p)
}

// adopt refs the objects now held by name and then unrefs old, the objects
// it held before an update.
func (b *Base) adopt(name string, old []Object) {
	for _, c := range b.childrenOf(name) {
		c.Core().Ref()
	}
	for _, c := range old {
		c.Core().Unref()
	}
}

var objectType = reflect.TypeFor[Object]()

func children(p *param.Parameter) []Object {
	v := p.Value()
	if !v.IsValid() || !mayHoldObject(v.Type()) {
		return nil
	}
	return collect(v.Reflect(), nil)
}

// mayHoldObject reports whether a value of type t can reach an Object
// without going through a non-Object pointer or a struct.
func mayHoldObject(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Pointer:
		return t.Implements(objectType)
	case reflect.Slice, reflect.Array, reflect.Map:
		return mayHoldObject(t.Elem())
	}
	return false
}

func collect(rv reflect.Value, out []Object) []Object {
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return out
		}
		if o, ok := rv.Interface().(Object); ok && o.Core() != nil {
			return append(out, o)
		}
	case reflect.Slice, reflect.Array:
		if !mayHoldObject(rv.Type().Elem()) {
			return out
		}
		for i := 0; i < rv.Len(); i++ {
			out = collect(rv.Index(i), out)
		}
	case reflect.Map:
		if !mayHoldObject(rv.Type().Elem()) {
			return out
		}
		iter := rv.MapRange()
		for iter.Next() {
			out = collect(iter.Value(), out)
		}
	}
	return out
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
