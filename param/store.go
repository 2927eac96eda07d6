// Package param implements the named, typed parameter store every object
// carries.
//
// Parameters are registered once, while the owning object is constructed,
// through the Register/Watch family. Each registration returns a Builder
// for attaching flags, a description and string options. After construction
// the set of names is fixed: values change only through Put, and run
// functions are invoked through Run.
//
// Access is checked against the type recorded at registration. Get and Put
// never convert between types; a disagreement is reported as a
// errors.ErrTypeMismatch carrying both type names.
package param

import (
	"fmt"

	"github.com/c360/objkit/anyvalue"
)

// Parameter is one registered entry.
type Parameter struct {
	name        string
	value       anyvalue.Value
	props       Properties
	description string
	options     *StringEnumTable
	init        func()
	initialized bool
}

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.name }

// Value returns the type-erased value. AUTO parameters are not initialized by
// this call.
func (p *Parameter) Value() anyvalue.Value { return p.value }

// Properties returns the parameter's flags.
func (p *Parameter) Properties() Properties { return p.props }

// Description returns the human-readable description, possibly empty.
func (p *Parameter) Description() string { return p.description }

// Options returns the string option table, or nil.
func (p *Parameter) Options() *StringEnumTable { return p.options }

// IsFunction reports whether the value is computed or callable rather than
// data. Clone and equality skip such parameters.
func (p *Parameter) IsFunction() bool {
	return p.value.IsFunc() || p.props.Has(RunFunction)
}

// ensureInit runs the AUTO initializer once if no value was supplied first.
func (p *Parameter) ensureInit() {
	if p.init != nil && !p.initialized {
		p.initialized = true
		p.init()
	}
}

// Store is an insertion-ordered map of parameters. It is not safe for
// concurrent mutation.
type Store struct {
	owner  string
	order  []string
	params map[string]*Parameter
}

// NewStore returns an empty store. owner names the object class in errors.
func NewStore(owner string) *Store {
	return &Store{owner: owner, params: make(map[string]*Parameter)}
}

// Owner returns the class name used in errors.
func (s *Store) Owner() string { return s.owner }

// Len returns the number of registered parameters.
func (s *Store) Len() int { return len(s.order) }

// Has reports whether name is registered.
func (s *Store) Has(name string) bool {
	_, ok := s.params[name]
	return ok
}

// Lookup returns the parameter registered under name.
func (s *Store) Lookup(name string) (*Parameter, bool) {
	p, ok := s.params[name]
	return p, ok
}

// Names returns parameter names in registration order.
func (s *Store) Names() []string {
	return append([]string(nil), s.order...)
}

// Parameters returns parameters in registration order.
func (s *Store) Parameters() []*Parameter {
	out := make([]*Parameter, len(s.order))
	for i, n := range s.order {
		out[i] = s.params[n]
	}
	return out
}

// HyperParameters returns the parameters flagged Hyper, in registration order.
func (s *Store) HyperParameters() []*Parameter { return s.filter(Hyper) }

// GradientParameters returns the parameters flagged Gradient, in registration
// order.
func (s *Store) GradientParameters() []*Parameter { return s.filter(Gradient) }

// ModelSelectionNames returns the names of the Hyper parameters.
func (s *Store) ModelSelectionNames() []string {
	hp := s.HyperParameters()
	names := make([]string, len(hp))
	for i, p := range hp {
		names[i] = p.name
	}
	return names
}

// Description returns the description registered for name.
func (s *Store) Description(name string) (string, bool) {
	p, ok := s.params[name]
	if !ok {
		return "", false
	}
	return p.description, true
}

// InitAutoParameters runs every pending AUTO initializer.
func (s *Store) InitAutoParameters() {
	for _, n := range s.order {
		s.params[n].ensureInit()
	}
}

func (s *Store) filter(f Properties) []*Parameter {
	var out []*Parameter
	for _, n := range s.order {
		if p := s.params[n]; p.props.Has(f) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) add(p *Parameter) *Builder {
	if _, dup := s.params[p.name]; dup {
		panic(fmt.Sprintf("param: %s::%s registered twice", s.owner, p.name))
	}
	s.params[p.name] = p
	s.order = append(s.order, p.name)
	return &Builder{p: p}
}
