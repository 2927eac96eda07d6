// Package schema describes an object's parameters as a JSON Schema
// (draft-07) and applies JSON documents that conform to it.
//
// Scalar, string, slice and string-keyed map parameters map to the matching
// JSON types. Parameters with string options become string enums, with the
// integer code of each option under x-enum-codes. A
// parameter holding a single object is described as
//
//	{"class": "<registered class>", "parameters": {...}}
//
// and Apply creates the child through the class registry. Parameters holding
// several objects, run functions and values of other Go types are left out.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/objkit/anyvalue"
	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/object"
	"github.com/c360/objkit/param"
)

// Draft is the JSON Schema dialect Generate produces.
const Draft = "http://json-schema.org/draft-07/schema#"

var objectType = reflect.TypeFor[object.Object]()

// Schema is the document Generate returns.
type Schema struct {
	Schema               string               `json:"$schema"`
	ID                   string               `json:"$id"`
	Title                string               `json:"title"`
	Type                 string               `json:"type"`
	Properties           map[string]*Property `json:"properties"`
	AdditionalProperties bool                 `json:"additionalProperties"`
	Metadata             Metadata             `json:"x-objkit"`
}

// Property describes one parameter.
type Property struct {
	Type                 string               `json:"type"`
	Description          string               `json:"description,omitempty"`
	Default              any                  `json:"default,omitempty"`
	Enum                 []string             `json:"enum,omitempty"`
	EnumCodes            map[string]int       `json:"x-enum-codes,omitempty"`
	ReadOnly             bool                 `json:"readOnly,omitempty"`
	Items                *Property            `json:"items,omitempty"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	Required             []string             `json:"required,omitempty"`
	AdditionalProperties any                  `json:"additionalProperties,omitempty"`
}

// Metadata carries the parameter groups JSON Schema has no keyword for.
type Metadata struct {
	Class    string   `json:"class"`
	Hyper    []string `json:"hyper,omitempty"`
	Gradient []string `json:"gradient,omitempty"`
}

// JSON renders the schema indented.
func (s *Schema) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Generate describes the parameters of o. Defaults are the current values.
func Generate(o object.Object) *Schema {
	store := o.Core().Params()
	s := &Schema{
		Schema:     Draft,
		ID:         o.Name() + ".v1.json",
		Title:      o.Name(),
		Type:       "object",
		Properties: make(map[string]*Property),
		Metadata:   Metadata{Class: o.Name()},
	}
	for _, p := range store.Parameters() {
		if prop, ok := describe(p); ok {
			s.Properties[p.Name()] = prop
		}
	}
	for _, p := range store.HyperParameters() {
		s.Metadata.Hyper = append(s.Metadata.Hyper, p.Name())
	}
	for _, p := range store.GradientParameters() {
		s.Metadata.Gradient = append(s.Metadata.Gradient, p.Name())
	}
	return s
}

func describe(p *param.Parameter) (*Property, bool) {
	if p.Properties().Has(param.RunFunction) {
		return nil, false
	}
	v := p.Value()
	t := v.Type()
	if t == nil {
		return nil, false
	}

	var prop *Property
	switch {
	case p.Options() != nil:
		prop = &Property{Type: "string", Enum: p.Options().Options(), EnumCodes: p.Options().Map()}
		if code, ok := v.Int(); ok {
			if opt, ok := p.Options().Option(int(code)); ok {
				prop.Default = opt
			}
		}
	case isSingleObject(t):
		prop = objectProperty()
		if child, ok := v.Interface().(object.Object); ok && !isNil(child) {
			prop.Default = map[string]any{"class": child.Name()}
		}
	default:
		var ok bool
		if prop, ok = valueProperty(t); !ok {
			return nil, false
		}
		prop.Default = defaultOf(v)
	}
	prop.Description = p.Description()
	prop.ReadOnly = p.Properties().Has(param.ReadOnly) || v.IsFunc()
	return prop, true
}

func isSingleObject(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		return t.Implements(objectType)
	}
	return false
}

func objectProperty() *Property {
	return &Property{
		Type: "object",
		Properties: map[string]*Property{
			"class":      {Type: "string", Description: "Registered class name"},
			"parameters": {Type: "object", Description: "Parameters of the new instance"},
		},
		Required:             []string{"class"},
		AdditionalProperties: false,
	}
}

// valueProperty maps a plain Go type to a JSON type.
func valueProperty(t reflect.Type) (*Property, bool) {
	switch t.Kind() {
	case reflect.Bool:
		return &Property{Type: "boolean"}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Property{Type: "integer"}, true
	case reflect.Float32, reflect.Float64:
		return &Property{Type: "number"}, true
	case reflect.String:
		return &Property{Type: "string"}, true
	case reflect.Slice, reflect.Array:
		items, ok := valueProperty(t.Elem())
		if !ok {
			return nil, false
		}
		return &Property{Type: "array", Items: items}, true
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, false
		}
		values, ok := valueProperty(t.Elem())
		if !ok {
			return nil, false
		}
		return &Property{Type: "object", AdditionalProperties: values}, true
	}
	return nil, false
}

// defaultOf returns v's content when it encodes to a JSON value of the
// declared type.
func defaultOf(v anyvalue.Value) any {
	rv := v.Reflect()
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		if f := rv.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
	case reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return nil
		}
	}
	out := rv.Interface()
	if _, err := json.Marshal(out); err != nil {
		return nil
	}
	return out
}

// Validate checks doc against the schema of o.
func Validate(o object.Object, doc []byte) error {
	raw, err := json.Marshal(Generate(o))
	if err != nil {
		return errors.WrapFatal(err, "schema", "Validate", "encode schema of "+o.Name())
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(raw), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		err = fmt.Errorf("%w: %v", errors.ErrParsingFailed, err)
		return errors.WrapInvalid(err, "schema", "Validate", "load document for "+o.Name())
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	err = fmt.Errorf("%w: %s", errors.ErrInvalidData, strings.Join(msgs, "; "))
	return errors.WrapInvalid(err, "schema", "Validate", "validate document for "+o.Name())
}

// Apply validates doc and puts each value it names into o, in parameter
// registration order. Option names are stored through the option table.
// Values applied before a failing one stay applied.
func Apply(o object.Object, doc []byte) error {
	if err := Validate(o, doc); err != nil {
		return err
	}
	var values map[string]json.RawMessage
	if err := json.Unmarshal(doc, &values); err != nil {
		err = fmt.Errorf("%w: %v", errors.ErrParsingFailed, err)
		return errors.WrapInvalid(err, "schema", "Apply", "decode document")
	}

	b := o.Core()
	for _, p := range b.Params().Parameters() {
		raw, ok := values[p.Name()]
		if !ok {
			continue
		}
		if err := applyOne(o, p, raw); err != nil {
			return errors.Wrap(err, "schema", "Apply", "set "+p.Name())
		}
	}
	b.Logger().Debug("Applied parameter document", "parameters", len(values))
	return nil
}

func applyOne(o object.Object, p *param.Parameter, raw json.RawMessage) error {
	t := p.Value().Type()
	switch {
	case p.Options() != nil:
		var option string
		if err := json.Unmarshal(raw, &option); err != nil {
			return errors.WrapInvalid(err, "schema", "Apply", "decode option")
		}
		return object.Put(o, p.Name(), option)
	case isSingleObject(t):
		child, err := createChild(o, raw)
		if err != nil {
			return err
		}
		return object.PutObject(o, p.Name(), child)
	}
	rv := reflect.New(t)
	if err := json.Unmarshal(raw, rv.Interface()); err != nil {
		err = fmt.Errorf("%w: %v", errors.ErrInvalidData, err)
		return errors.WrapInvalid(err, "schema", "Apply", "decode "+t.String())
	}
	return object.PutValue(o, p.Name(), anyvalue.FromReflect(rv.Elem()))
}

type childDoc struct {
	Class      string          `json:"class"`
	Parameters json.RawMessage `json:"parameters"`
}

func createChild(parent object.Object, raw json.RawMessage) (object.Object, error) {
	var doc childDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.WrapInvalid(err, "schema", "Apply", "decode child")
	}
	child, err := parent.Core().Registry().Create(doc.Class)
	if err != nil {
		return nil, err
	}
	if len(doc.Parameters) > 0 {
		if err := Apply(child, doc.Parameters); err != nil {
			return nil, err
		}
	}
	return child, nil
}

func isNil(o object.Object) bool {
	if o == nil {
		return true
	}
	rv := reflect.ValueOf(o)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
