package model

import (
	"github.com/c360/objkit/object"
	"github.com/c360/objkit/param"
)

// DenseFeatures holds one feature vector per row.
type DenseFeatures struct {
	*object.Base
	object.FeaturesMarker

	matrix [][]float64
}

// NewDenseFeatures returns features holding a copy of rows.
func NewDenseFeatures(rows [][]float64, opts ...object.Option) *DenseFeatures {
	f := &DenseFeatures{}
	for _, r := range rows {
		f.matrix = append(f.matrix, append([]float64(nil), r...))
	}
	f.Base = object.NewBase(f, "DenseFeatures", opts...)
	param.Watch(f.Params(), "feature_matrix", &f.matrix).Describe("Feature vectors, one per row")
	param.WatchMethod(f.Params(), "num_vectors", f.NumVectors)
	return f
}

// CreateEmpty implements object.Object.
func (f *DenseFeatures) CreateEmpty() object.Object {
	return NewDenseFeatures(nil, f.Inherit()...)
}

// NumVectors returns the number of rows.
func (f *DenseFeatures) NumVectors() int { return len(f.matrix) }

// Vector returns row i.
func (f *DenseFeatures) Vector(i int) []float64 { return f.matrix[i] }

// BinaryLabels holds +1/-1 labels.
type BinaryLabels struct {
	*object.Base
	object.LabelsMarker

	labels []float64
}

// NewBinaryLabels returns labels holding a copy of values.
func NewBinaryLabels(values []float64, opts ...object.Option) *BinaryLabels {
	l := &BinaryLabels{labels: append([]float64(nil), values...)}
	l.Base = object.NewBase(l, "BinaryLabels", opts...)
	param.Watch(l.Params(), "labels", &l.labels).Describe("Label per vector")
	return l
}

// CreateEmpty implements object.Object.
func (l *BinaryLabels) CreateEmpty() object.Object {
	return NewBinaryLabels(nil, l.Inherit()...)
}

// Len returns the number of labels.
func (l *BinaryLabels) Len() int { return len(l.labels) }

// At returns label i.
func (l *BinaryLabels) At(i int) float64 { return l.labels[i] }

// Accuracy is the fraction of matching labels.
type Accuracy struct {
	*object.Base
	object.EvaluationResultMarker

	value float64
}

// NewAccuracy returns an accuracy of zero.
func NewAccuracy(opts ...object.Option) *Accuracy {
	a := &Accuracy{}
	a.Base = object.NewBase(a, "Accuracy", opts...)
	param.Watch(a.Params(), "accuracy", &a.value).ReadOnly().Describe("Fraction of correct predictions")
	return a
}

// CreateEmpty implements object.Object.
func (a *Accuracy) CreateEmpty() object.Object {
	return NewAccuracy(a.Inherit()...)
}

// Value returns the accuracy.
func (a *Accuracy) Value() float64 { return a.value }

// Evaluate stores and returns the fraction of predicted labels equal to
// truth. Lengths must match.
func (a *Accuracy) Evaluate(predicted, truth *BinaryLabels) float64 {
	if truth.Len() == 0 {
		a.value = 0
		return 0
	}
	var hits int
	for i := 0; i < truth.Len(); i++ {
		if predicted.At(i) == truth.At(i) {
			hits++
		}
	}
	a.value = float64(hits) / float64(truth.Len())
	return a.value
}
