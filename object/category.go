package object

import (
	"fmt"

	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/param"
)

// The known object categories. Derived types join a category by embedding
// the matching marker next to *Base:
//
//	type GaussianKernel struct {
//		*object.Base
//		object.KernelMarker
//		Width float64
//	}
type (
	Kernel interface {
		Object
		isKernel()
	}
	Features interface {
		Object
		isFeatures()
	}
	Machine interface {
		Object
		isMachine()
	}
	Labels interface {
		Object
		isLabels()
	}
	EvaluationResult interface {
		Object
		isEvaluationResult()
	}
)

type (
	KernelMarker           struct{}
	FeaturesMarker         struct{}
	MachineMarker          struct{}
	LabelsMarker           struct{}
	EvaluationResultMarker struct{}
)

func (KernelMarker) isKernel()                     {}
func (FeaturesMarker) isFeatures()                 {}
func (MachineMarker) isMachine()                   {}
func (LabelsMarker) isLabels()                     {}
func (EvaluationResultMarker) isEvaluationResult() {}

// DynamicArray is a heterogeneous array of objects. It holds one reference
// to each element.
type DynamicArray struct {
	*Base
	elems []Object
}

// DynamicArrayName is the class name of DynamicArray.
const DynamicArrayName = "DynamicObjectArray"

// NewDynamicArray returns an empty array.
func NewDynamicArray(opts ...Option) *DynamicArray {
	a := &DynamicArray{}
	a.Base = NewBase(a, DynamicArrayName, opts...)
	param.Watch(a.Params(), "array", &a.elems).Describe("Array elements")
	return a
}

// CreateEmpty returns an empty array sharing a's environment.
func (a *DynamicArray) CreateEmpty() Object {
	return NewDynamicArray(a.Inherit()...)
}

// Len returns the number of elements.
func (a *DynamicArray) Len() int { return len(a.elems) }

// Push appends o and takes a reference to it.
func (a *DynamicArray) Push(o Object) error {
	if isNil(o) {
		return errors.WrapInvalid(errors.ErrInvalidData, a.name, "Push", "append nil element")
	}
	o.Core().Ref()
	a.elems = append(a.elems, o)
	return nil
}

// At returns element i.
func (a *DynamicArray) At(i int) (Object, error) {
	if i < 0 || i >= len(a.elems) {
		err := fmt.Errorf("%w: %d of %d", errors.ErrIndexOutOfRange, i, len(a.elems))
		return nil, errors.WrapInvalid(err, a.name, "At", "index array")
	}
	return a.elems[i], nil
}

// Elements returns a copy of the element list.
func (a *DynamicArray) Elements() []Object {
	return append([]Object(nil), a.elems...)
}

func init() {
	defaultRegistry.MustRegisterClass(DynamicArrayName, func() Object { return NewDynamicArray() })
}
