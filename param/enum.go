package param

import (
	"maps"
	"slices"
)

// StringEnumTable maps the string options of an enumerated parameter to the
// integer codes actually stored, and back.
type StringEnumTable struct {
	forward map[string]int
	reverse map[int]string
}

// NewStringEnumTable builds a table from option name to code. Codes must be
// distinct.
func NewStringEnumTable(options map[string]int) *StringEnumTable {
	t := &StringEnumTable{
		forward: make(map[string]int, len(options)),
		reverse: make(map[int]string, len(options)),
	}
	for name, code := range options {
		if prev, dup := t.reverse[code]; dup {
			panic("param: options " + prev + " and " + name + " share a code")
		}
		t.forward[name] = code
		t.reverse[code] = name
	}
	return t
}

// Code returns the code for option.
func (t *StringEnumTable) Code(option string) (int, bool) {
	c, ok := t.forward[option]
	return c, ok
}

// Option returns the option name for code.
func (t *StringEnumTable) Option(code int) (string, bool) {
	o, ok := t.reverse[code]
	return o, ok
}

// Options returns the option names ordered by code.
func (t *StringEnumTable) Options() []string {
	codes := slices.Sorted(maps.Keys(t.reverse))
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = t.reverse[c]
	}
	return out
}

// Map returns a copy of the forward mapping.
func (t *StringEnumTable) Map() map[string]int {
	return maps.Clone(t.forward)
}
