// Package model holds small learners and data containers built on objkit.
// They serve as worked examples of derived objects and as the demo model of
// the objkit command.
package model

import (
	"github.com/c360/objkit/object"
)

// Register adds every class of this package to r.
func Register(r *object.Registry) error {
	classes := map[string]object.Factory{
		"GaussianKernel": func() object.Object { return NewGaussianKernel(object.WithRegistry(r)) },
		"LinearKernel":   func() object.Object { return NewLinearKernel(object.WithRegistry(r)) },
		"DenseFeatures":  func() object.Object { return NewDenseFeatures(nil, object.WithRegistry(r)) },
		"BinaryLabels":   func() object.Object { return NewBinaryLabels(nil, object.WithRegistry(r)) },
		"Accuracy":       func() object.Object { return NewAccuracy(object.WithRegistry(r)) },
		"Perceptron":     func() object.Object { return NewPerceptron(object.WithRegistry(r)) },
	}
	for name, factory := range classes {
		if err := r.RegisterClass(name, factory); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	if err := Register(object.DefaultRegistry()); err != nil {
		panic(err)
	}
}
