package model

import (
	"math"

	"github.com/c360/objkit/object"
	"github.com/c360/objkit/param"
)

// Kernel is a similarity function between two vectors.
type Kernel interface {
	object.Kernel
	Compute(a, b []float64) float64
}

// GaussianKernel computes exp(-|a-b|^2 / width).
type GaussianKernel struct {
	*object.Base
	object.KernelMarker

	width     float64
	cacheSize int32
}

// NewGaussianKernel returns a kernel of width 1.
func NewGaussianKernel(opts ...object.Option) *GaussianKernel {
	k := &GaussianKernel{width: 1, cacheSize: 10}
	k.Base = object.NewBase(k, "GaussianKernel", opts...)
	param.Watch(k.Params(), "width", &k.width).Hyper().Gradient().Describe("Kernel width")
	param.Watch(k.Params(), "cache_size", &k.cacheSize).Describe("Cache size in MB")
	return k
}

// CreateEmpty implements object.Object.
func (k *GaussianKernel) CreateEmpty() object.Object {
	return NewGaussianKernel(k.Inherit()...)
}

// Width returns the kernel width.
func (k *GaussianKernel) Width() float64 { return k.width }

// Compute implements Kernel.
func (k *GaussianKernel) Compute(a, b []float64) float64 {
	var d float64
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return math.Exp(-d / k.width)
}

// LinearKernel computes scale * <a, b>.
type LinearKernel struct {
	*object.Base
	object.KernelMarker

	scale float64
}

// NewLinearKernel returns a kernel of scale 1.
func NewLinearKernel(opts ...object.Option) *LinearKernel {
	k := &LinearKernel{scale: 1}
	k.Base = object.NewBase(k, "LinearKernel", opts...)
	param.Watch(k.Params(), "scale", &k.scale).Hyper().Describe("Scale factor")
	return k
}

// CreateEmpty implements object.Object.
func (k *LinearKernel) CreateEmpty() object.Object {
	return NewLinearKernel(k.Inherit()...)
}

// Compute implements Kernel.
func (k *LinearKernel) Compute(a, b []float64) float64 {
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return k.scale * dot
}
