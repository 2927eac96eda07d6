// Package object provides the base every framework object embeds.
//
// # Defining an object
//
// A derived type embeds *Base, optionally a category marker, and registers
// its parameters in its constructor:
//
//	type GaussianKernel struct {
//		*object.Base
//		object.KernelMarker
//		width float64
//	}
//
//	func NewGaussianKernel(opts ...object.Option) *GaussianKernel {
//		k := &GaussianKernel{width: 1}
//		k.Base = object.NewBase(k, "GaussianKernel", opts...)
//		param.Watch(k.Params(), "width", &k.width).Hyper().Describe("Kernel width")
//		return k
//	}
//
//	func (k *GaussianKernel) CreateEmpty() object.Object {
//		return NewGaussianKernel(k.Inherit()...)
//	}
//
// # Parameters
//
// Get, Put, GetTag, PutTag and Run address parameters by name and check the
// registered type. Put of a parameter holding objects takes a reference to
// the new children and releases the replaced ones. Add and GetAt work on
// array parameters whether they are a *DynamicArray or a typed slice.
//
// # Lifetime
//
// Objects start with a reference count of zero. Whoever keeps an object Refs
// it and Unrefs it when done; the Unref that reaches zero completes all
// subscriptions, runs Destroyer.OnDestroy and releases every child held
// through parameters. Objects built WithoutRefCounting report
// refcount.Disabled and are never destroyed this way.
//
// # Structure
//
// Clone, Equals and Hash walk the parameters in registration order and
// recurse into child objects. Function parameters are skipped. The object
// graph must be a tree: a cycle recurses without bound.
//
// # Observation
//
// Long-running computations report progress through Observe. Each call
// copies the value, so observers never see later mutation. Only names
// declared with RegisterObservable are delivered.
package object
