package nn

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/born-ml/convnet/internal/tensor"
)

// lockedRand serializes draws from a shared random source.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (r *lockedRand) float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// Dropout zeroes each element with a given probability during training and
// scales the survivors by 1/(1-p), so prediction is the identity.
//
// The mask drawn by Forward is the layer's memory; Backward applies the
// same mask to the gradient.
type Dropout struct {
	stateless
	probability float64
	rng         *lockedRand
}

// NewDropout creates a dropout layer with drop probability p in [0, 1).
func NewDropout(p float64) Dropout {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("dropout: probability %v outside [0, 1)", p))
	}
	return Dropout{
		stateless:   newStateless(),
		probability: p,
		rng:         &lockedRand{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}, //nolint:gosec // masks are not security-critical
	}
}

// WithName returns the layer with a name.
func (l Dropout) WithName(name string) Dropout {
	l.name = name
	return l
}

// WithRand returns the layer drawing masks from r.
func (l Dropout) WithRand(r *rand.Rand) Dropout {
	l.rng = &lockedRand{rng: r}
	return l
}

// Probability returns the drop probability.
func (l Dropout) Probability() float64 { return l.probability }

// Kind returns "dropout".
func (l Dropout) Kind() string { return "dropout" }

// Forward draws a mask and applies it to x.
func (l Dropout) Forward(x *tensor.Tensor) (*tensor.Tensor, any) {
	mask := x.ZerosLike()
	md := mask.Data()
	scale := 1 / (1 - l.probability)
	for i := range md {
		if l.rng.float64() >= l.probability {
			md[i] = scale
		}
	}
	return x.Mul(mask), mask
}

// Predict returns x.
func (l Dropout) Predict(x *tensor.Tensor) *tensor.Tensor { return x }

// Backward applies the forward mask to dz.
func (l Dropout) Backward(_, _, dz *tensor.Tensor, memory any) *tensor.Tensor {
	mask, ok := memory.(*tensor.Tensor)
	if !ok {
		violation(ErrInvalidOperation, "%s: backward without a forward mask", l.name)
	}
	return dz.Mul(mask)
}

// ForwardPropagateSize returns in.
func (l Dropout) ForwardPropagateSize(in tensor.Size) tensor.Size { return in }

// InferSize returns the layer unchanged.
func (l Dropout) InferSize(tensor.Size) Layer { return l }

// IsValidInputSize accepts any size.
func (l Dropout) IsValidInputSize(tensor.Size) bool { return true }

// InitializeLearnableParameters returns the layer unchanged.
func (l Dropout) InitializeLearnableParameters(tensor.Precision) Layer { return l }

// PrepareForTraining returns the layer unchanged.
func (l Dropout) PrepareForTraining() Layer { return l }

// PrepareForPrediction returns the layer unchanged.
func (l Dropout) PrepareForPrediction() Layer { return l }

// SetupForHostPrediction runs the layer on the host.
func (l Dropout) SetupForHostPrediction() Layer {
	l.stateless = l.onHost()
	return l
}

// SetupForGPUPrediction runs the layer on device.
func (l Dropout) SetupForGPUPrediction(device tensor.Backend) Layer {
	l.stateless = l.onDevice(device)
	return l
}

func (l Dropout) String() string {
	return fmt.Sprintf("%g%% dropout", 100*l.probability)
}

func (l Dropout) withName(name string) Layer { return l.WithName(name) }

func (l Dropout) withLearnableParameters(params []Parameter) Layer {
	checkNoParameters(l.name, params)
	return l
}
