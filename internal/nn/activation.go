package nn

import (
	"github.com/born-ml/convnet/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
type ReLU struct {
	stateless
}

// NewReLU creates a ReLU layer.
func NewReLU() ReLU {
	return ReLU{stateless: newStateless()}
}

// WithName returns the layer with a name.
func (l ReLU) WithName(name string) ReLU {
	l.name = name
	return l
}

// Kind returns "relu".
func (l ReLU) Kind() string { return "relu" }

// Forward applies ReLU.
func (l ReLU) Forward(x *tensor.Tensor) (*tensor.Tensor, any) { return l.Predict(x), nil }

// Predict applies ReLU.
func (l ReLU) Predict(x *tensor.Tensor) *tensor.Tensor { return l.backend.ReLU(x) }

// Backward passes dz where x > 0.
func (l ReLU) Backward(x, _, dz *tensor.Tensor, _ any) *tensor.Tensor {
	return l.backend.ReLUBackward(x, dz)
}

// ForwardPropagateSize returns in.
func (l ReLU) ForwardPropagateSize(in tensor.Size) tensor.Size { return in }

// InferSize returns the layer unchanged.
func (l ReLU) InferSize(tensor.Size) Layer { return l }

// IsValidInputSize accepts any size.
func (l ReLU) IsValidInputSize(tensor.Size) bool { return true }

// InitializeLearnableParameters returns the layer unchanged.
func (l ReLU) InitializeLearnableParameters(tensor.Precision) Layer { return l }

// PrepareForTraining returns the layer unchanged.
func (l ReLU) PrepareForTraining() Layer { return l }

// PrepareForPrediction returns the layer unchanged.
func (l ReLU) PrepareForPrediction() Layer { return l }

// SetupForHostPrediction runs the layer on the host.
func (l ReLU) SetupForHostPrediction() Layer {
	l.stateless = l.onHost()
	return l
}

// SetupForGPUPrediction runs the layer on device.
func (l ReLU) SetupForGPUPrediction(device tensor.Backend) Layer {
	l.stateless = l.onDevice(device)
	return l
}

func (l ReLU) String() string { return "ReLU" }

func (l ReLU) withName(name string) Layer { return l.WithName(name) }

func (l ReLU) withLearnableParameters(params []Parameter) Layer {
	checkNoParameters(l.name, params)
	return l
}

// Softmax normalizes the channels of every position into probabilities.
type Softmax struct {
	stateless
}

// NewSoftmax creates a softmax layer.
func NewSoftmax() Softmax {
	return Softmax{stateless: newStateless()}
}

// WithName returns the layer with a name.
func (l Softmax) WithName(name string) Softmax {
	l.name = name
	return l
}

// Kind returns "softmax".
func (l Softmax) Kind() string { return "softmax" }

// Forward applies softmax across channels.
func (l Softmax) Forward(x *tensor.Tensor) (*tensor.Tensor, any) { return l.Predict(x), nil }

// Predict applies softmax across channels.
func (l Softmax) Predict(x *tensor.Tensor) *tensor.Tensor { return l.backend.Softmax(x) }

// Backward computes z * (dz - sum(z * dz)).
func (l Softmax) Backward(_, z, dz *tensor.Tensor, _ any) *tensor.Tensor {
	return l.backend.SoftmaxBackward(z, dz)
}

// ForwardPropagateSize returns in.
func (l Softmax) ForwardPropagateSize(in tensor.Size) tensor.Size { return in }

// InferSize returns the layer unchanged.
func (l Softmax) InferSize(tensor.Size) Layer { return l }

// IsValidInputSize accepts any size.
func (l Softmax) IsValidInputSize(tensor.Size) bool { return true }

// InitializeLearnableParameters returns the layer unchanged.
func (l Softmax) InitializeLearnableParameters(tensor.Precision) Layer { return l }

// PrepareForTraining returns the layer unchanged.
func (l Softmax) PrepareForTraining() Layer { return l }

// PrepareForPrediction returns the layer unchanged.
func (l Softmax) PrepareForPrediction() Layer { return l }

// SetupForHostPrediction runs the layer on the host.
func (l Softmax) SetupForHostPrediction() Layer {
	l.stateless = l.onHost()
	return l
}

// SetupForGPUPrediction runs the layer on device.
func (l Softmax) SetupForGPUPrediction(device tensor.Backend) Layer {
	l.stateless = l.onDevice(device)
	return l
}

func (l Softmax) String() string { return "softmax" }

func (l Softmax) withName(name string) Layer { return l.WithName(name) }

func (l Softmax) withLearnableParameters(params []Parameter) Layer {
	checkNoParameters(l.name, params)
	return l
}

// Identity passes data through unchanged.
type Identity struct {
	stateless
}

// NewIdentity creates an identity layer.
func NewIdentity() Identity {
	return Identity{stateless: newStateless()}
}

// WithName returns the layer with a name.
func (l Identity) WithName(name string) Identity {
	l.name = name
	return l
}

// Kind returns "identity".
func (l Identity) Kind() string { return "identity" }

// Forward returns x.
func (l Identity) Forward(x *tensor.Tensor) (*tensor.Tensor, any) { return x, nil }

// Predict returns x.
func (l Identity) Predict(x *tensor.Tensor) *tensor.Tensor { return x }

// Backward returns dz.
func (l Identity) Backward(_, _, dz *tensor.Tensor, _ any) *tensor.Tensor { return dz }

// ForwardPropagateSize returns in.
func (l Identity) ForwardPropagateSize(in tensor.Size) tensor.Size { return in }

// InferSize returns the layer unchanged.
func (l Identity) InferSize(tensor.Size) Layer { return l }

// IsValidInputSize accepts any size.
func (l Identity) IsValidInputSize(tensor.Size) bool { return true }

// InitializeLearnableParameters returns the layer unchanged.
func (l Identity) InitializeLearnableParameters(tensor.Precision) Layer { return l }

// PrepareForTraining returns the layer unchanged.
func (l Identity) PrepareForTraining() Layer { return l }

// PrepareForPrediction returns the layer unchanged.
func (l Identity) PrepareForPrediction() Layer { return l }

// SetupForHostPrediction returns the layer unchanged.
func (l Identity) SetupForHostPrediction() Layer { return l }

// SetupForGPUPrediction returns the layer unchanged.
func (l Identity) SetupForGPUPrediction(tensor.Backend) Layer { return l }

func (l Identity) String() string { return "identity" }

func (l Identity) withName(name string) Layer { return l.WithName(name) }

func (l Identity) withLearnableParameters(params []Parameter) Layer {
	checkNoParameters(l.name, params)
	return l
}
