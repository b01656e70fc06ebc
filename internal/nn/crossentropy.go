package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/convnet/internal/tensor"
)

// CrossEntropy is the classification output layer. It is the identity on
// the forward path and computes the mean negative log-likelihood of its
// input, typically softmax probabilities, against one-hot targets.
//
//	loss = -sum(T * log(Y)) / N
//	dY   = -T / Y
//
// Y is bounded away from zero by the machine epsilon of its data type.
type CrossEntropy struct {
	stateless
	numClasses int // 0 until inferred
}

// NewCrossEntropy creates a classification output layer.
func NewCrossEntropy() CrossEntropy {
	return CrossEntropy{stateless: newStateless()}
}

// WithName returns the layer with a name.
func (l CrossEntropy) WithName(name string) CrossEntropy {
	l.name = name
	return l
}

// NumClasses returns the class count, 0 if not inferred yet.
func (l CrossEntropy) NumClasses() int { return l.numClasses }

// Kind returns "classoutput".
func (l CrossEntropy) Kind() string { return "classoutput" }

// HasSizeDetermined reports whether the class count is known.
func (l CrossEntropy) HasSizeDetermined() bool { return l.numClasses > 0 }

// Forward returns x.
func (l CrossEntropy) Forward(x *tensor.Tensor) (*tensor.Tensor, any) { return x, nil }

// Predict returns x.
func (l CrossEntropy) Predict(x *tensor.Tensor) *tensor.Tensor { return x }

// Backward panics: the network calls BackwardLoss instead.
func (l CrossEntropy) Backward(_, _, _ *tensor.Tensor, _ any) *tensor.Tensor {
	violation(ErrInvalidOperation, "%s: backward on an output layer", l.name)
	return nil
}

// Gradients panics: the output layer has no parameters to differentiate.
func (l CrossEntropy) Gradients(_, _ *tensor.Tensor) []*tensor.Tensor {
	violation(ErrInvalidOperation, "%s: gradients on an output layer", l.name)
	return nil
}

// ForwardLoss returns the mean negative log-likelihood of y against t.
func (l CrossEntropy) ForwardLoss(y, t *tensor.Tensor) float64 {
	checkTargets(l.name, y, t)
	eps := y.DType().Epsilon()
	yd := y.Data()
	var sum float64
	for i, target := range t.Data() {
		if target != 0 {
			sum += target * math.Log(boundAwayFromZero(yd[i], eps))
		}
	}
	return y.DType().Round(-sum / float64(y.Shape().N()))
}

// BackwardLoss returns -t / y.
func (l CrossEntropy) BackwardLoss(y, t *tensor.Tensor) *tensor.Tensor {
	checkTargets(l.name, y, t)
	eps := y.DType().Epsilon()
	dy := y.ZerosLike()
	dd, yd := dy.Data(), y.Data()
	for i, target := range t.Data() {
		dd[i] = y.DType().Round(-target / boundAwayFromZero(yd[i], eps))
	}
	return dy
}

// boundAwayFromZero replaces magnitudes below eps by eps, keeping the sign
// of negative values.
func boundAwayFromZero(v, eps float64) float64 {
	if math.Abs(v) >= eps {
		return v
	}
	if math.Signbit(v) && v != 0 {
		return -eps
	}
	return eps
}

func checkTargets(name string, y, t *tensor.Tensor) {
	if y.Shape() != t.Shape() {
		panic(fmt.Sprintf("%s: predictions %v and targets %v differ in shape", name, y.Shape(), t.Shape()))
	}
}

// ForwardPropagateSize returns in.
func (l CrossEntropy) ForwardPropagateSize(in tensor.Size) tensor.Size { return in }

// InferSize resolves the class count from the channels of in.
func (l CrossEntropy) InferSize(in tensor.Size) Layer {
	if l.HasSizeDetermined() {
		return l
	}
	l.numClasses = in.C()
	return l
}

// IsValidInputSize reports whether in carries one channel per class.
func (l CrossEntropy) IsValidInputSize(in tensor.Size) bool {
	return !l.HasSizeDetermined() || in.C() == l.numClasses
}

// InitializeLearnableParameters returns the layer unchanged.
func (l CrossEntropy) InitializeLearnableParameters(tensor.Precision) Layer { return l }

// PrepareForTraining returns the layer unchanged.
func (l CrossEntropy) PrepareForTraining() Layer { return l }

// PrepareForPrediction returns the layer unchanged.
func (l CrossEntropy) PrepareForPrediction() Layer { return l }

// SetupForHostPrediction runs the layer on the host.
func (l CrossEntropy) SetupForHostPrediction() Layer {
	l.stateless = l.onHost()
	return l
}

// SetupForGPUPrediction runs the layer on device.
func (l CrossEntropy) SetupForGPUPrediction(device tensor.Backend) Layer {
	l.stateless = l.onDevice(device)
	return l
}

func (l CrossEntropy) String() string {
	return fmt.Sprintf("cross-entropy over %d classes", l.numClasses)
}

func (l CrossEntropy) withName(name string) Layer { return l.WithName(name) }

func (l CrossEntropy) withLearnableParameters(params []Parameter) Layer {
	checkNoParameters(l.name, params)
	return l
}
