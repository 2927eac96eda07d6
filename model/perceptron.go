package model

import (
	"github.com/c360/objkit/object"
	"github.com/c360/objkit/param"
)

// Kernel choices for Perceptron's kernel_type parameter.
const (
	KernelGaussian = 0
	KernelLinear   = 1
)

// Perceptron is a kernel perceptron. Training data is added to the
// "features" and "labels" arrays; the first entry of each is used.
type Perceptron struct {
	*object.Base
	object.MachineMarker

	kernel           Kernel
	kernelType       int
	learningRate     float64
	maxIterations    int
	currentIteration int64
	alphas           []float64
	bias             float64
	features         *object.DynamicArray
	labels           []object.Labels
}

// NewPerceptron returns an untrained perceptron.
func NewPerceptron(opts ...object.Option) *Perceptron {
	p := &Perceptron{learningRate: 1, maxIterations: 10}
	p.Base = object.NewBase(p, "Perceptron", opts...)

	s := p.Params()
	param.Watch(s, "kernel", &p.kernel).Hyper().Describe("Kernel; built from kernel_type when unset")
	param.Watch(s, "kernel_type", &p.kernelType).
		Options(map[string]int{"GAUSSIAN": KernelGaussian, "LINEAR": KernelLinear}).
		Describe("Kernel used when none is set")
	param.Watch(s, "learning_rate", &p.learningRate).Hyper().Gradient().Describe("Update step")
	param.Watch(s, "max_iterations", &p.maxIterations).Describe("Passes over the training data")
	param.Watch(s, object.CurrentIteration, &p.currentIteration).ReadOnly().Describe("Current training pass")
	param.Watch(s, "alphas", &p.alphas).Gradient().Describe("Dual coefficients")
	param.WatchAuto(s, "bias", &p.bias, p.labelBalance).Describe("Decision offset")
	param.Watch(s, "features", &p.features).Describe("Training features")
	param.Watch(s, "labels", &p.labels).Describe("Training labels")
	param.WatchMethod(s, "num_alphas", func() int { return len(p.alphas) })
	param.WatchRunFunction(s, "train", p.Train)

	// Owned through the parameter so that Put, Clone and destruction manage
	// its reference.
	_ = object.Put(p, "features", object.NewDynamicArray(p.Inherit()...))

	p.RegisterObservable("loss", "Fraction of training vectors misclassified in a pass")
	p.RegisterObservable("bias", "Decision offset after a pass")
	p.RegisterObservable("alphas", "Dual coefficients after a pass")
	return p
}

// CreateEmpty implements object.Object.
func (p *Perceptron) CreateEmpty() object.Object {
	return NewPerceptron(p.Inherit()...)
}

// labelBalance is the AUTO initializer of bias: the mean training label, so
// an untrained model predicts the majority class.
func (p *Perceptron) labelBalance() float64 {
	if len(p.labels) == 0 {
		return 0
	}
	l, ok := p.labels[0].(*BinaryLabels)
	if !ok || l.Len() == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < l.Len(); i++ {
		sum += l.At(i)
	}
	return sum / float64(l.Len())
}

func (p *Perceptron) resolveKernel() Kernel {
	if p.kernel != nil {
		return p.kernel
	}
	var k Kernel
	if p.kernelType == KernelLinear {
		k = NewLinearKernel(p.Inherit()...)
	} else {
		k = NewGaussianKernel(p.Inherit()...)
	}
	if err := object.PutObject(p, "kernel", k); err != nil {
		p.Logger().Error("Cannot install kernel", "error", err)
	}
	return k
}

func (p *Perceptron) trainingData() (*DenseFeatures, *BinaryLabels, bool) {
	feats, err := object.GetAt[*DenseFeatures](p, "features", 0)
	if err != nil {
		p.Logger().Error("No training features", "error", err)
		return nil, nil, false
	}
	l, err := object.GetAt[object.Labels](p, "labels", 0)
	if err != nil {
		p.Logger().Error("No training labels", "error", err)
		return nil, nil, false
	}
	labels, ok := l.(*BinaryLabels)
	if !ok {
		p.Logger().Error("Labels are not binary", "class", l.Name())
		return nil, nil, false
	}
	if feats.NumVectors() != labels.Len() || labels.Len() == 0 {
		p.Logger().Error("Features and labels disagree",
			"vectors", feats.NumVectors(), "labels", labels.Len())
		return nil, nil, false
	}
	return feats, labels, true
}

// Train runs the perceptron updates and reports whether training data was
// usable. Each pass is observable as loss, bias and alphas.
func (p *Perceptron) Train() bool {
	feats, labels, ok := p.trainingData()
	if !ok {
		return false
	}
	if _, err := object.Get[float64](p, "bias"); err != nil {
		return false
	}
	k := p.resolveKernel()

	n := labels.Len()
	gram := make([][]float64, n)
	for i := range gram {
		gram[i] = make([]float64, n)
		for j := range gram[i] {
			gram[i][j] = k.Compute(feats.Vector(i), feats.Vector(j))
		}
	}

	p.alphas = make([]float64, n)
	for it := 0; it < p.maxIterations; it++ {
		p.currentIteration = int64(it)
		mistakes := 0
		for i := 0; i < n; i++ {
			f := p.bias
			for j := 0; j < n; j++ {
				f += p.alphas[j] * labels.At(j) * gram[j][i]
			}
			if labels.At(i)*f <= 0 {
				p.alphas[i] += p.learningRate
				p.bias += p.learningRate * labels.At(i)
				mistakes++
			}
		}

		step := p.CurrentStep()
		object.ObserveValue(p, step, "loss", float64(mistakes)/float64(n), param.None)
		_ = p.ObserveParameter(step, "bias")
		_ = p.ObserveParameter(step, "alphas")
		if mistakes == 0 {
			break
		}
	}
	p.Logger().Debug("Trained", "iterations", p.currentIteration+1, "bias", p.bias)
	return true
}

// Apply predicts a label for every vector of f. It needs a trained model.
func (p *Perceptron) Apply(f *DenseFeatures) *BinaryLabels {
	train, labels, ok := p.trainingData()
	if !ok || len(p.alphas) != labels.Len() {
		return nil
	}
	k := p.resolveKernel()
	out := make([]float64, f.NumVectors())
	for i := range out {
		s := p.bias
		for j, a := range p.alphas {
			if a != 0 {
				s += a * labels.At(j) * k.Compute(train.Vector(j), f.Vector(i))
			}
		}
		out[i] = 1
		if s < 0 {
			out[i] = -1
		}
	}
	return NewBinaryLabels(out, p.Inherit()...)
}
