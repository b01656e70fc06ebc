package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// FullyConnected connects every input element to every output channel.
//
// Input shape:   [H, W, C, N]
// Weights shape: [H, W, C, O]
// Bias shape:    [1, 1, O, 1]
// Output shape:  [1, 1, O, N]
type FullyConnected struct {
	name       string
	inputSize  tensor.Size // zero until inferred
	outputSize int

	weights Parameter
	bias    Parameter

	backend tensor.Backend
}

// NewFullyConnected creates a fully connected layer with outputSize
// outputs. Defaults: weight factors (1, 1), bias factors (1, 0).
func NewFullyConnected(outputSize int) FullyConnected {
	if outputSize <= 0 {
		panic(fmt.Sprintf("fully connected: invalid output size %d", outputSize))
	}
	return FullyConnected{
		outputSize: outputSize,
		weights:    NewParameter(nil, 1, 1),
		bias:       NewParameter(nil, 1, 0),
		backend:    host,
	}
}

// WithName returns the layer with a name.
func (l FullyConnected) WithName(name string) FullyConnected {
	l.name = name
	return l
}

// WithInputSize returns the layer expecting inputs of size in, skipping
// inference.
func (l FullyConnected) WithInputSize(in tensor.Size) FullyConnected {
	l.inputSize = in
	checkValue(l.name, "Weights", l.weights.Host(), l.weightsShape())
	return l
}

// WithWeightFactors returns the layer with the weights' learning-rate and
// L2 multipliers.
func (l FullyConnected) WithWeightFactors(learnRate, l2 float64) FullyConnected {
	l.weights = l.weights.WithFactors(learnRate, l2)
	return l
}

// WithBiasFactors returns the layer with the bias' learning-rate and L2
// multipliers.
func (l FullyConnected) WithBiasFactors(learnRate, l2 float64) FullyConnected {
	l.bias = l.bias.WithFactors(learnRate, l2)
	return l
}

// WithWeights returns the layer with preset weights of shape [H W C O].
// Setting weights resolves the input size.
// Panics with ErrParameterSize on a shape mismatch.
func (l FullyConnected) WithWeights(w *tensor.Tensor) FullyConnected {
	if !l.HasSizeDetermined() && w != nil {
		l.inputSize = w.Size()
	}
	checkValue(l.name, "Weights", w, l.weightsShape())
	l.weights = l.weights.WithValue(w)
	return l
}

// WithBias returns the layer with a preset bias of shape [1 1 O 1].
// Panics with ErrParameterSize on a shape mismatch.
func (l FullyConnected) WithBias(b *tensor.Tensor) FullyConnected {
	checkValue(l.name, "Bias", b, l.biasShape())
	l.bias = l.bias.WithValue(b)
	return l
}

// InputSize returns the expected input size, zero if not inferred yet.
func (l FullyConnected) InputSize() tensor.Size { return l.inputSize }

// OutputSize returns the number of outputs.
func (l FullyConnected) OutputSize() int { return l.outputSize }

// Weights returns the host weights, nil before initialization.
func (l FullyConnected) Weights() *tensor.Tensor { return l.weights.Host() }

// Bias returns the host bias, nil before initialization.
func (l FullyConnected) Bias() *tensor.Tensor { return l.bias.Host() }

func (l FullyConnected) weightsShape() tensor.Shape {
	return tensor.NewShape(l.inputSize, l.outputSize)
}

func (l FullyConnected) biasShape() tensor.Shape {
	return tensor.Shape{1, 1, l.outputSize, 1}
}

// Kind returns "fc".
func (l FullyConnected) Kind() string { return "fc" }

// Name returns the layer name.
func (l FullyConnected) Name() string { return l.name }

// LearnableParameters returns the weights and the bias.
func (l FullyConnected) LearnableParameters() []Parameter {
	return []Parameter{l.weights, l.bias}
}

// HasSizeDetermined reports whether the input size is known.
func (l FullyConnected) HasSizeDetermined() bool { return l.inputSize.NumElements() > 0 }

// Forward computes W x + b.
func (l FullyConnected) Forward(x *tensor.Tensor) (*tensor.Tensor, any) {
	return l.Predict(x), nil
}

// Predict computes W x + b.
func (l FullyConnected) Predict(x *tensor.Tensor) *tensor.Tensor {
	return l.backend.FullyConnected(x, l.weights.Value(), l.bias.Value())
}

// Backward computes the input gradient.
func (l FullyConnected) Backward(x, _, dz *tensor.Tensor, _ any) *tensor.Tensor {
	return l.backend.FullyConnectedBackwardData(x, l.weights.Value(), dz)
}

// Gradients returns the weights and bias gradients.
func (l FullyConnected) Gradients(x, dz *tensor.Tensor) []*tensor.Tensor {
	dw := l.backend.FullyConnectedBackwardWeights(x, l.weights.Value(), dz)
	db := l.backend.Conv2DBackwardBias(dz)
	return []*tensor.Tensor{dw, db}
}

// ForwardPropagateSize returns [1 1 O].
func (l FullyConnected) ForwardPropagateSize(tensor.Size) tensor.Size {
	l.checkSize()
	return tensor.Size{1, 1, l.outputSize}
}

// InferSize resolves the input size from in.
func (l FullyConnected) InferSize(in tensor.Size) Layer {
	if l.HasSizeDetermined() {
		return l
	}
	l.inputSize = in
	return l
}

// IsValidInputSize reports whether in is the expected input size.
func (l FullyConnected) IsValidInputSize(in tensor.Size) bool {
	return !l.HasSizeDetermined() || in == l.inputSize
}

// InitializeLearnableParameters draws empty weights from N(0, 0.01^2),
// zero-fills an empty bias, and casts preset values to precision.
func (l FullyConnected) InitializeLearnableParameters(precision tensor.Precision) Layer {
	l.checkSize()
	l.weights = initWeights(l.weights, l.weightsShape(), precision)
	l.bias = initBias(l.bias, l.biasShape(), precision)
	return l
}

// PrepareForTraining converts the parameters to the training representation.
func (l FullyConnected) PrepareForTraining() Layer {
	l.weights, l.bias = l.weights.ForTraining(), l.bias.ForTraining()
	return l
}

// PrepareForPrediction converts the parameters to the prediction representation.
func (l FullyConnected) PrepareForPrediction() Layer {
	l.weights, l.bias = l.weights.ForPrediction(), l.bias.ForPrediction()
	return l
}

// SetupForHostPrediction runs the layer on the host.
func (l FullyConnected) SetupForHostPrediction() Layer {
	l.backend = host
	l.weights, l.bias = l.weights.OnHost(), l.bias.OnHost()
	return l
}

// SetupForGPUPrediction runs the layer on device.
func (l FullyConnected) SetupForGPUPrediction(device tensor.Backend) Layer {
	l.backend = device
	l.weights, l.bias = l.weights.OnDevice(device), l.bias.OnDevice(device)
	return l
}

func (l FullyConnected) String() string {
	return fmt.Sprintf("%d fully connected layer", l.outputSize)
}

func (l FullyConnected) withName(name string) Layer { return l.WithName(name) }

func (l FullyConnected) withLearnableParameters(params []Parameter) Layer {
	if len(params) != 2 {
		violation(ErrParameterSize, "%s: expected 2 parameters, got %d", l.name, len(params))
	}
	checkValue(l.name, "Weights", params[0].Host(), l.weightsShape())
	checkValue(l.name, "Bias", params[1].Host(), l.biasShape())
	l.weights, l.bias = params[0], params[1]
	return l
}

func (l FullyConnected) checkSize() {
	if !l.HasSizeDetermined() {
		violation(ErrSizeNotDetermined, "%s: input size not inferred", l.name)
	}
}
