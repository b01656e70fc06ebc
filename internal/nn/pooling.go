package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// PoolingMode selects the pooling reduction.
type PoolingMode int

const (
	// MaxPooling keeps the largest value of every window.
	MaxPooling PoolingMode = iota
	// AveragePooling averages every window over its full area.
	AveragePooling
)

// String returns "max" or "average".
func (m PoolingMode) String() string {
	if m == AveragePooling {
		return "average"
	}
	return "max"
}

// Pooling2D downsamples every channel with a sliding window.
//
// Input shape:  [H, W, C, N]
// Output shape: [HOut, WOut, C, N]
//
// Max pooling pads with the most negative value, so padding is never
// selected; average pooling pads with zeros.
type Pooling2D struct {
	stateless
	mode     PoolingMode
	poolSize tensor.Pair
	stride   tensor.Pair
	padding  tensor.Pair
}

// NewMaxPooling2D creates a max pooling layer with stride 1 and no padding.
func NewMaxPooling2D(poolSize tensor.Pair) Pooling2D {
	return newPooling2D(MaxPooling, poolSize)
}

// NewAveragePooling2D creates an average pooling layer with stride 1 and no
// padding.
func NewAveragePooling2D(poolSize tensor.Pair) Pooling2D {
	return newPooling2D(AveragePooling, poolSize)
}

func newPooling2D(mode PoolingMode, poolSize tensor.Pair) Pooling2D {
	if poolSize[0] <= 0 || poolSize[1] <= 0 {
		panic(fmt.Sprintf("pooling: invalid pool size %v", poolSize))
	}
	return Pooling2D{
		stateless: newStateless(),
		mode:      mode,
		poolSize:  poolSize,
		stride:    tensor.Square(1),
	}
}

// WithName returns the layer with a name.
func (l Pooling2D) WithName(name string) Pooling2D {
	l.name = name
	return l
}

// WithStride returns the layer with a [vertical horizontal] stride.
func (l Pooling2D) WithStride(stride tensor.Pair) Pooling2D {
	if stride[0] <= 0 || stride[1] <= 0 {
		panic(fmt.Sprintf("pooling: invalid stride %v", stride))
	}
	l.stride = stride
	return l
}

// WithPadding returns the layer with [vertical horizontal] padding.
func (l Pooling2D) WithPadding(padding tensor.Pair) Pooling2D {
	if padding[0] < 0 || padding[1] < 0 {
		panic(fmt.Sprintf("pooling: invalid padding %v", padding))
	}
	l.padding = padding
	return l
}

// Mode returns the pooling reduction.
func (l Pooling2D) Mode() PoolingMode { return l.mode }

// PoolSize returns the window size.
func (l Pooling2D) PoolSize() tensor.Pair { return l.poolSize }

// Stride returns the stride.
func (l Pooling2D) Stride() tensor.Pair { return l.stride }

// Padding returns the padding.
func (l Pooling2D) Padding() tensor.Pair { return l.padding }

// Kind returns "maxpool" or "avgpool".
func (l Pooling2D) Kind() string {
	if l.mode == AveragePooling {
		return "avgpool"
	}
	return "maxpool"
}

// Forward pools x.
func (l Pooling2D) Forward(x *tensor.Tensor) (*tensor.Tensor, any) {
	return l.Predict(x), nil
}

// Predict pools x.
func (l Pooling2D) Predict(x *tensor.Tensor) *tensor.Tensor {
	if l.mode == AveragePooling {
		return l.backend.AvgPool2D(x, l.poolSize, l.stride, l.padding)
	}
	return l.backend.MaxPool2D(x, l.poolSize, l.stride, l.padding)
}

// Backward routes dz back through the windows.
func (l Pooling2D) Backward(x, z, dz *tensor.Tensor, _ any) *tensor.Tensor {
	if l.mode == AveragePooling {
		return l.backend.AvgPool2DBackward(x, dz, l.poolSize, l.stride, l.padding)
	}
	return l.backend.MaxPool2DBackward(x, z, dz, l.poolSize, l.stride, l.padding)
}

// ForwardPropagateSize returns the pooled size.
func (l Pooling2D) ForwardPropagateSize(in tensor.Size) tensor.Size {
	out := tensor.OutputSpatial(in.H(), in.W(), l.poolSize, l.stride, l.padding)
	return tensor.Size{out[0], out[1], in.C()}
}

// InferSize returns the layer unchanged.
func (l Pooling2D) InferSize(tensor.Size) Layer { return l }

// IsValidInputSize reports whether in fits at least one window.
func (l Pooling2D) IsValidInputSize(in tensor.Size) bool {
	return in.H()+2*l.padding[0] >= l.poolSize[0] && in.W()+2*l.padding[1] >= l.poolSize[1]
}

// InitializeLearnableParameters returns the layer unchanged.
func (l Pooling2D) InitializeLearnableParameters(tensor.Precision) Layer { return l }

// PrepareForTraining returns the layer unchanged.
func (l Pooling2D) PrepareForTraining() Layer { return l }

// PrepareForPrediction returns the layer unchanged.
func (l Pooling2D) PrepareForPrediction() Layer { return l }

// SetupForHostPrediction runs the layer on the host.
func (l Pooling2D) SetupForHostPrediction() Layer {
	l.stateless = l.onHost()
	return l
}

// SetupForGPUPrediction runs the layer on device.
func (l Pooling2D) SetupForGPUPrediction(device tensor.Backend) Layer {
	l.stateless = l.onDevice(device)
	return l
}

func (l Pooling2D) String() string {
	return fmt.Sprintf("%dx%d %s pooling with stride %v and padding %v",
		l.poolSize[0], l.poolSize[1], l.mode, l.stride, l.padding)
}

func (l Pooling2D) withName(name string) Layer { return l.WithName(name) }

func (l Pooling2D) withLearnableParameters(params []Parameter) Layer {
	checkNoParameters(l.name, params)
	return l
}
