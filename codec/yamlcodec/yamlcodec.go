// Package yamlcodec stores objects as YAML documents for object.Save and
// object.Load.
//
// A document names the class and the framework release that wrote it:
//
//	class: Perceptron
//	version: 1.0.0
//	parameters:
//	  learning_rate: 0.5
//	  kernel_type: LINEAR
//	  kernel:
//	    class: LinearKernel
//	    parameters:
//	      scale: 1
//
// Parameters holding objects nest one such document per object, without the
// version. Option parameters are written by option name. Computed parameters
// and run functions are not written.
package yamlcodec

import (
	"fmt"
	"io"
	"reflect"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/c360/objkit/anyvalue"
	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/object"
	"github.com/c360/objkit/param"
)

var objectType = reflect.TypeFor[object.Object]()

type document struct {
	Class      string    `yaml:"class"`
	Version    string    `yaml:"version,omitempty"`
	Parameters yaml.Node `yaml:"parameters"`
}

// Encoder writes one object per Encode call.
type Encoder struct {
	w      io.Writer
	indent int
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, indent: 2}
}

// Encode implements object.Encoder. AUTO parameters are resolved first so
// the document carries their values.
func (e *Encoder) Encode(o object.Object) error {
	node, err := encodeObject(o, o.Core().Environment().Version().String())
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(e.w)
	enc.SetIndent(e.indent)
	if err := enc.Encode(node); err != nil {
		return errors.WrapTransient(err, "yamlcodec", "Encode", "write "+o.Name())
	}
	if err := enc.Close(); err != nil {
		return errors.WrapTransient(err, "yamlcodec", "Encode", "flush "+o.Name())
	}
	return nil
}

func encodeObject(o object.Object, version string) (*yaml.Node, error) {
	store := o.Core().Params()
	store.InitAutoParameters()

	params := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range store.Parameters() {
		if p.IsFunction() {
			continue
		}
		value, err := encodeParameter(p)
		if err != nil {
			return nil, errors.Wrap(err, "yamlcodec", "Encode", o.Name()+"."+p.Name())
		}
		params.Content = append(params.Content, scalar(p.Name()), value)
	}

	node := &yaml.Node{}
	if err := node.Encode(document{Class: o.Name(), Version: version, Parameters: *params}); err != nil {
		return nil, errors.WrapInvalid(err, "yamlcodec", "Encode", "build document for "+o.Name())
	}
	return node, nil
}

func encodeParameter(p *param.Parameter) (*yaml.Node, error) {
	v := p.Value()
	if opts := p.Options(); opts != nil {
		code, _ := v.Int()
		name, ok := opts.Option(int(code))
		if !ok {
			return nil, errors.IllegalOption("yamlcodec", p.Name(), fmt.Sprint(code), opts.Options())
		}
		return scalar(name), nil
	}
	return encodeValue(v.Reflect())
}

func encodeValue(rv reflect.Value) (*yaml.Node, error) {
	if !holdsObjects(rv.Type()) {
		return encodePlain(rv.Interface())
	}
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return null(), nil
		}
		o, ok := rv.Interface().(object.Object)
		if !ok {
			return encodePlain(rv.Interface())
		}
		return encodeObject(o, "")
	case reflect.Slice, reflect.Array:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i := 0; i < rv.Len(); i++ {
			item, err := encodeValue(rv.Index(i))
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, item)
		}
		return seq, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key %s", errors.ErrTypeMismatch, rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		slices.Sort(keys)
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range keys {
			item, err := encodeValue(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())))
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, scalar(k), item)
		}
		return m, nil
	}
	return encodePlain(rv.Interface())
}

func encodePlain(v any) (*yaml.Node, error) {
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, errors.WrapInvalid(err, "yamlcodec", "Encode", fmt.Sprintf("encode %T", v))
	}
	return n, nil
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithRegistry creates nested objects from r instead of the registry of the
// object being loaded.
func WithRegistry(r *object.Registry) DecoderOption {
	return func(d *Decoder) { d.registry = r }
}

// AllowUnknown ignores parameters the target object does not have. By
// default they fail the decode.
func AllowUnknown() DecoderOption {
	return func(d *Decoder) { d.allowUnknown = true }
}

// Decoder reads one object per Decode call.
type Decoder struct {
	r            io.Reader
	registry     *object.Registry
	allowUnknown bool
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	d := &Decoder{r: r}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode implements object.Decoder. The document's class must be o's class
// and its version must be compatible with o's environment.
func (d *Decoder) Decode(o object.Object) error {
	var doc document
	if err := yaml.NewDecoder(d.r).Decode(&doc); err != nil {
		err = fmt.Errorf("%w: %v", errors.ErrParsingFailed, err)
		return errors.WrapInvalid(err, "yamlcodec", "Decode", "read document")
	}
	if doc.Class != o.Name() {
		err := fmt.Errorf("%w: document holds %q, not %q", errors.ErrInvalidData, doc.Class, o.Name())
		return errors.WrapInvalid(err, "yamlcodec", "Decode", "class check")
	}
	version := o.Core().Environment().Version()
	if doc.Version != "" && !version.Compatible(doc.Version) {
		err := fmt.Errorf("%w: written by %s, reading with %s", errors.ErrInvalidData, doc.Version, version)
		return errors.WrapInvalid(err, "yamlcodec", "Decode", "version check")
	}

	registry := d.registry
	if registry == nil {
		registry = o.Core().Registry()
	}
	state := &decodeState{registry: registry, allowUnknown: d.allowUnknown}
	return state.decodeParameters(o, &doc.Parameters)
}

type decodeState struct {
	registry     *object.Registry
	allowUnknown bool
}

// nodeDecoder decodes a nested object through object.Load so that its hooks
// run like those of the top-level object.
type nodeDecoder struct {
	state  *decodeState
	params *yaml.Node
}

func (n *nodeDecoder) Decode(o object.Object) error {
	return n.state.decodeParameters(o, n.params)
}

func (s *decodeState) decodeParameters(o object.Object, params *yaml.Node) error {
	if params.Kind == 0 || isNull(params) {
		return nil
	}
	if params.Kind != yaml.MappingNode {
		err := fmt.Errorf("%w: parameters of %s at line %d are not a mapping", errors.ErrInvalidData, o.Name(), params.Line)
		return errors.WrapInvalid(err, "yamlcodec", "Decode", "read parameters")
	}

	store := o.Core().Params()
	for i := 0; i+1 < len(params.Content); i += 2 {
		name := params.Content[i].Value
		p, ok := store.Lookup(name)
		if !ok {
			if s.allowUnknown {
				continue
			}
			return errors.WrapInvalid(errors.NotFound(o.Name(), name), "yamlcodec", "Decode", "match parameter")
		}
		if err := s.decodeParameter(o, p, params.Content[i+1]); err != nil {
			return errors.Wrap(err, "yamlcodec", "Decode", o.Name()+"."+name)
		}
	}
	return nil
}

func (s *decodeState) decodeParameter(o object.Object, p *param.Parameter, node *yaml.Node) error {
	if p.Options() != nil {
		var option string
		if err := node.Decode(&option); err != nil {
			return errors.WrapInvalid(err, "yamlcodec", "Decode", "read option")
		}
		return object.Put(o, p.Name(), option)
	}
	rv, err := s.decodeValue(p.Value().Type(), node)
	if err != nil {
		return err
	}
	return object.PutValue(o, p.Name(), anyvalue.FromReflect(rv))
}

func (s *decodeState) decodeValue(t reflect.Type, node *yaml.Node) (reflect.Value, error) {
	if isNull(node) && nilable(t) {
		return reflect.Zero(t), nil
	}
	if !holdsObjects(t) {
		rv := reflect.New(t)
		if err := node.Decode(rv.Interface()); err != nil {
			err = fmt.Errorf("%w: %v", errors.ErrInvalidData, err)
			return reflect.Value{}, errors.WrapInvalid(err, "yamlcodec", "Decode", "read "+t.String())
		}
		return rv.Elem(), nil
	}

	switch t.Kind() {
	case reflect.Interface, reflect.Pointer:
		child, err := s.decodeObject(node)
		if err != nil {
			return reflect.Value{}, err
		}
		cv := reflect.ValueOf(child)
		if !cv.Type().AssignableTo(t) {
			err := errors.TypeMismatch("yamlcodec", child.Name(), t.String(), cv.Type().String())
			return reflect.Value{}, errors.WrapInvalid(err, "yamlcodec", "Decode", "place nested object")
		}
		rv := reflect.New(t).Elem()
		rv.Set(cv)
		return rv, nil
	case reflect.Slice, reflect.Array:
		if node.Kind != yaml.SequenceNode {
			return reflect.Value{}, notA("sequence", node)
		}
		var rv reflect.Value
		if t.Kind() == reflect.Slice {
			rv = reflect.MakeSlice(t, len(node.Content), len(node.Content))
		} else {
			if len(node.Content) != t.Len() {
				err := fmt.Errorf("%w: %d elements for %s", errors.ErrInvalidData, len(node.Content), t)
				return reflect.Value{}, errors.WrapInvalid(err, "yamlcodec", "Decode", "read array")
			}
			rv = reflect.New(t).Elem()
		}
		for i, item := range node.Content {
			ev, err := s.decodeValue(t.Elem(), item)
			if err != nil {
				return reflect.Value{}, err
			}
			rv.Index(i).Set(ev)
		}
		return rv, nil
	case reflect.Map:
		if node.Kind != yaml.MappingNode {
			return reflect.Value{}, notA("mapping", node)
		}
		rv := reflect.MakeMapWithSize(t, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			ev, err := s.decodeValue(t.Elem(), node.Content[i+1])
			if err != nil {
				return reflect.Value{}, err
			}
			rv.SetMapIndex(reflect.ValueOf(node.Content[i].Value).Convert(t.Key()), ev)
		}
		return rv, nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot decode %s", errors.ErrTypeMismatch, t)
}

func (s *decodeState) decodeObject(node *yaml.Node) (object.Object, error) {
	var doc document
	if err := node.Decode(&doc); err != nil {
		err = fmt.Errorf("%w: %v", errors.ErrInvalidData, err)
		return nil, errors.WrapInvalid(err, "yamlcodec", "Decode", "read nested object")
	}
	child, err := s.registry.Create(doc.Class)
	if err != nil {
		return nil, err
	}
	if err := object.Load(child, &nodeDecoder{state: s, params: &doc.Parameters}); err != nil {
		return nil, err
	}
	return child, nil
}

// holdsObjects reports whether a value of type t can reach an Object.
func holdsObjects(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer:
		return t.Implements(objectType)
	case reflect.Slice, reflect.Array, reflect.Map:
		return holdsObjects(t.Elem())
	}
	return false
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func null() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func notA(kind string, n *yaml.Node) error {
	err := fmt.Errorf("%w: expected a %s at line %d", errors.ErrInvalidData, kind, n.Line)
	return errors.WrapInvalid(err, "yamlcodec", "Decode", "read "+kind)
}
