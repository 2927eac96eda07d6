package param

// BaseTag names a parameter. Two tags address the same parameter iff their
// names are equal.
type BaseTag struct {
	name string
}

// NewBaseTag returns the tag for name.
func NewBaseTag(name string) BaseTag {
	return BaseTag{name: name}
}

// Name returns the parameter name.
func (t BaseTag) Name() string { return t.name }

func (t BaseTag) String() string { return t.name }

// Tag is a parameter name with a static type witness. GetTag and PutTag only
// accept values of type T.
type Tag[T any] struct {
	BaseTag
}

// NewTag returns a typed tag for name.
func NewTag[T any](name string) Tag[T] {
	return Tag[T]{BaseTag: BaseTag{name: name}}
}
