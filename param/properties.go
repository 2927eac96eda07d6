package param

import "strings"

// Properties is a set of independent parameter flags.
type Properties uint8

// Parameter flags.
const (
	// Hyper marks a model-selection candidate.
	Hyper Properties = 1 << iota
	// Gradient marks a gradient-optimization candidate.
	Gradient
	// ReadOnly marks a parameter callers are not expected to set.
	ReadOnly
	// RunFunction marks a bound callable invoked through Run.
	RunFunction
	// Auto marks a parameter whose value comes from an initializer on first use.
	Auto

	// None is the empty set.
	None Properties = 0
)

var propertyNames = []struct {
	flag Properties
	name string
}{
	{Hyper, "HYPER"},
	{Gradient, "GRADIENT"},
	{ReadOnly, "READONLY"},
	{RunFunction, "RUNFUNCTION"},
	{Auto, "AUTO"},
}

// Has reports whether every flag in f is set.
func (p Properties) Has(f Properties) bool {
	return p&f == f
}

// String renders the set as pipe-separated flag names, e.g. "HYPER|GRADIENT".
func (p Properties) String() string {
	if p == None {
		return "NONE"
	}
	var parts []string
	for _, pn := range propertyNames {
		if p&pn.flag != 0 {
			parts = append(parts, pn.name)
		}
	}
	return strings.Join(parts, "|")
}

// MarshalText implements encoding.TextMarshaler.
func (p Properties) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
