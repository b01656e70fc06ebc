// Package nn implements the layers and the series network of the convnet
// engine.
//
// A network is a strictly linear chain of layers: one ImageInput first, one
// output layer last. Every layer pairs a forward computation with its
// hand-written derivative and delegates arithmetic to a tensor.Backend, its
// execution strategy. Layers are values; every transformation (size
// inference, parameter initialization, representation or placement changes)
// returns a new layer and leaves the receiver untouched.
package nn

import (
	"github.com/born-ml/convnet/internal/backend/cpu"
	"github.com/born-ml/convnet/internal/tensor"
)

// host is the execution strategy every layer starts with.
var host tensor.Backend = cpu.New()

// Layer is the capability set shared by every layer kind. The set of
// implementations is closed: only this package defines layers.
type Layer interface {
	// Name returns the layer name; empty until assigned or auto-named by
	// the network.
	Name() string

	// Kind returns the layer kind, used for auto-naming.
	Kind() string

	// LearnableParameters returns the owned parameters in a fixed order.
	LearnableParameters() []Parameter

	// HasSizeDetermined reports whether every size-dependent
	// hyperparameter is resolved.
	HasSizeDetermined() bool

	// Forward computes the training output of x. memory is handed back to
	// Backward unchanged.
	Forward(x *tensor.Tensor) (z *tensor.Tensor, memory any)

	// Predict computes the inference output of x.
	Predict(x *tensor.Tensor) *tensor.Tensor

	// Backward returns the loss derivative with respect to x given the
	// derivative dz with respect to the output z.
	Backward(x, z, dz *tensor.Tensor, memory any) *tensor.Tensor

	// Gradients returns one gradient per learnable parameter, summed over
	// the observations of the batch.
	Gradients(x, dz *tensor.Tensor) []*tensor.Tensor

	// ForwardPropagateSize returns the output size for an input size.
	// Panics with ErrSizeNotDetermined if the layer is unresolved.
	ForwardPropagateSize(in tensor.Size) tensor.Size

	// InferSize resolves unset hyperparameters from in. Resolution happens
	// at most once; a resolved layer is returned unchanged.
	InferSize(in tensor.Size) Layer

	// IsValidInputSize reports whether the layer accepts in. Unresolved
	// layers accept any size.
	IsValidInputSize(in tensor.Size) bool

	// InitializeLearnableParameters draws values for empty parameters and
	// casts the existing ones to precision.
	InitializeLearnableParameters(precision tensor.Precision) Layer

	// PrepareForTraining and PrepareForPrediction convert every parameter
	// to the matching representation.
	PrepareForTraining() Layer
	PrepareForPrediction() Layer

	// SetupForHostPrediction and SetupForGPUPrediction swap the execution
	// strategy and move the parameters accordingly.
	SetupForHostPrediction() Layer
	SetupForGPUPrediction(device tensor.Backend) Layer

	// String describes the layer's hyperparameters.
	String() string

	withName(name string) Layer
	withLearnableParameters(params []Parameter) Layer
}

// OutputLayer is the loss layer closing a network. Its Backward and
// Gradients panic with ErrInvalidOperation; the network calls ForwardLoss
// and BackwardLoss instead.
type OutputLayer interface {
	Layer

	// ForwardLoss returns the loss of predictions y against targets t.
	ForwardLoss(y, t *tensor.Tensor) float64

	// BackwardLoss returns the loss derivative with respect to y.
	BackwardLoss(y, t *tensor.Tensor) *tensor.Tensor
}

// stateless carries what every parameter-free layer shares.
type stateless struct {
	name    string
	backend tensor.Backend
}

func newStateless() stateless {
	return stateless{backend: host}
}

// Name returns the layer name.
func (s stateless) Name() string { return s.name }

// LearnableParameters returns nil; the layer has no parameters.
func (s stateless) LearnableParameters() []Parameter { return nil }

// HasSizeDetermined always returns true.
func (s stateless) HasSizeDetermined() bool { return true }

// Gradients returns nil; the layer has no parameters.
func (s stateless) Gradients(_, _ *tensor.Tensor) []*tensor.Tensor { return nil }

func (s stateless) onHost() stateless {
	s.backend = host
	return s
}

func (s stateless) onDevice(device tensor.Backend) stateless {
	s.backend = device
	return s
}

func checkNoParameters(layer string, params []Parameter) {
	if len(params) != 0 {
		violation(ErrParameterSize, "%s: expected no parameters, got %d", layer, len(params))
	}
}
