package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// CrossChannelNormalization applies local response normalization across
// neighboring channels:
//
//	z_c = x_c / (K + Alpha/WindowChannelSize * sum_{c' in window(c)} x_c'^2)^Beta
type CrossChannelNormalization struct {
	stateless
	params tensor.LRNParams
}

// NewCrossChannelNormalization creates a normalization over windowSize
// channels with Alpha 1e-4, Beta 0.75 and K 2.
func NewCrossChannelNormalization(windowSize int) CrossChannelNormalization {
	if windowSize <= 0 {
		panic(fmt.Sprintf("cross channel normalization: invalid window size %d", windowSize))
	}
	return CrossChannelNormalization{
		stateless: newStateless(),
		params:    tensor.LRNParams{WindowSize: windowSize, Alpha: 1e-4, Beta: 0.75, K: 2},
	}
}

// WithName returns the layer with a name.
func (l CrossChannelNormalization) WithName(name string) CrossChannelNormalization {
	l.name = name
	return l
}

// WithAlpha returns the layer with a different Alpha.
func (l CrossChannelNormalization) WithAlpha(alpha float64) CrossChannelNormalization {
	l.params.Alpha = alpha
	return l
}

// WithBeta returns the layer with a different Beta.
func (l CrossChannelNormalization) WithBeta(beta float64) CrossChannelNormalization {
	l.params.Beta = beta
	return l
}

// WithK returns the layer with a different K.
func (l CrossChannelNormalization) WithK(k float64) CrossChannelNormalization {
	l.params.K = k
	return l
}

// Params returns the normalization hyperparameters.
func (l CrossChannelNormalization) Params() tensor.LRNParams { return l.params }

// Kind returns "norm".
func (l CrossChannelNormalization) Kind() string { return "norm" }

// Forward normalizes x.
func (l CrossChannelNormalization) Forward(x *tensor.Tensor) (*tensor.Tensor, any) {
	return l.Predict(x), nil
}

// Predict normalizes x.
func (l CrossChannelNormalization) Predict(x *tensor.Tensor) *tensor.Tensor {
	return l.backend.LRN(x, l.params)
}

// Backward computes the input gradient.
func (l CrossChannelNormalization) Backward(x, z, dz *tensor.Tensor, _ any) *tensor.Tensor {
	return l.backend.LRNBackward(x, z, dz, l.params)
}

// ForwardPropagateSize returns in.
func (l CrossChannelNormalization) ForwardPropagateSize(in tensor.Size) tensor.Size { return in }

// InferSize returns the layer unchanged.
func (l CrossChannelNormalization) InferSize(tensor.Size) Layer { return l }

// IsValidInputSize accepts any size.
func (l CrossChannelNormalization) IsValidInputSize(tensor.Size) bool { return true }

// InitializeLearnableParameters returns the layer unchanged.
func (l CrossChannelNormalization) InitializeLearnableParameters(tensor.Precision) Layer { return l }

// PrepareForTraining returns the layer unchanged.
func (l CrossChannelNormalization) PrepareForTraining() Layer { return l }

// PrepareForPrediction returns the layer unchanged.
func (l CrossChannelNormalization) PrepareForPrediction() Layer { return l }

// SetupForHostPrediction runs the layer on the host.
func (l CrossChannelNormalization) SetupForHostPrediction() Layer {
	l.stateless = l.onHost()
	return l
}

// SetupForGPUPrediction runs the layer on device.
func (l CrossChannelNormalization) SetupForGPUPrediction(device tensor.Backend) Layer {
	l.stateless = l.onDevice(device)
	return l
}

func (l CrossChannelNormalization) String() string {
	return fmt.Sprintf("cross channel normalization with %d channels per element", l.params.WindowSize)
}

func (l CrossChannelNormalization) withName(name string) Layer { return l.WithName(name) }

func (l CrossChannelNormalization) withLearnableParameters(params []Parameter) Layer {
	checkNoParameters(l.name, params)
	return l
}
