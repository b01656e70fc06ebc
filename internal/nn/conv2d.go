package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// Convolution2D is a 2D convolutional layer.
//
// Input shape:   [H, W, C, N]
// Weights shape: [FH, FW, C/G, F]
// Bias shape:    [1, 1, F, 1]
// Output shape:  [HOut, WOut, F, N]
//
// Where:
//
//	HOut = (H + 2*padding - FH) / stride + 1
//	WOut = (W + 2*padding - FW) / stride + 1
//
// With two filter groups (G = 2) the input channels are split in halves;
// the first NumFilters()[0] filters see the first half, the rest the second
// half, and the two outputs are concatenated along the channel axis.
//
// Example:
//
//	// 20 5x5 filters, input channels inferred from the previous layer
//	conv := nn.NewConvolution2D(tensor.Square(5), 20).WithPadding(tensor.Square(2))
type Convolution2D struct {
	name        string
	filterSize  tensor.Pair
	numFilters  []int // one entry per group
	numChannels int   // per group; 0 until inferred
	stride      tensor.Pair
	padding     tensor.Pair

	weights Parameter
	bias    Parameter

	backend tensor.Backend
}

// NewConvolution2D creates a convolution with the given filter size and
// filter count. Passing two counts enables two filter groups.
//
// Defaults: stride 1, no padding, weight factors (1, 1), bias factors (1, 0).
func NewConvolution2D(filterSize tensor.Pair, numFilters ...int) Convolution2D {
	if filterSize[0] <= 0 || filterSize[1] <= 0 {
		panic(fmt.Sprintf("conv2d: invalid filter size %v", filterSize))
	}
	if len(numFilters) < 1 || len(numFilters) > 2 {
		panic(fmt.Sprintf("conv2d: expected 1 or 2 filter groups, got %d", len(numFilters)))
	}
	for _, f := range numFilters {
		if f <= 0 {
			panic(fmt.Sprintf("conv2d: invalid filter count %d", f))
		}
	}
	return Convolution2D{
		filterSize: filterSize,
		numFilters: append([]int(nil), numFilters...),
		stride:     tensor.Square(1),
		weights:    NewParameter(nil, 1, 1),
		bias:       NewParameter(nil, 1, 0),
		backend:    host,
	}
}

// WithName returns the layer with a name.
func (l Convolution2D) WithName(name string) Convolution2D {
	l.name = name
	return l
}

// WithStride returns the layer with a [vertical horizontal] stride.
func (l Convolution2D) WithStride(stride tensor.Pair) Convolution2D {
	if stride[0] <= 0 || stride[1] <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %v", stride))
	}
	l.stride = stride
	return l
}

// WithPadding returns the layer with [vertical horizontal] zero padding.
func (l Convolution2D) WithPadding(padding tensor.Pair) Convolution2D {
	if padding[0] < 0 || padding[1] < 0 {
		panic(fmt.Sprintf("conv2d: invalid padding %v", padding))
	}
	l.padding = padding
	return l
}

// WithNumChannels returns the layer expecting channels input channels per
// filter group, skipping inference.
func (l Convolution2D) WithNumChannels(channels int) Convolution2D {
	if channels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channel count %d", channels))
	}
	l.numChannels = channels
	checkValue(l.name, "Weights", l.weights.Host(), l.weightsShape())
	return l
}

// WithWeightFactors returns the layer with the weights' learning-rate and
// L2 multipliers.
func (l Convolution2D) WithWeightFactors(learnRate, l2 float64) Convolution2D {
	l.weights = l.weights.WithFactors(learnRate, l2)
	return l
}

// WithBiasFactors returns the layer with the bias' learning-rate and L2
// multipliers.
func (l Convolution2D) WithBiasFactors(learnRate, l2 float64) Convolution2D {
	l.bias = l.bias.WithFactors(learnRate, l2)
	return l
}

// WithWeights returns the layer with preset weights of shape
// [FH FW C/G F]. Setting weights resolves the channel count.
// Panics with ErrParameterSize on a shape mismatch.
func (l Convolution2D) WithWeights(w *tensor.Tensor) Convolution2D {
	if l.numChannels == 0 && w != nil {
		l.numChannels = w.Shape().C()
	}
	checkValue(l.name, "Weights", w, l.weightsShape())
	l.weights = l.weights.WithValue(w)
	return l
}

// WithBias returns the layer with a preset bias of shape [1 1 F 1].
// Panics with ErrParameterSize on a shape mismatch.
func (l Convolution2D) WithBias(b *tensor.Tensor) Convolution2D {
	checkValue(l.name, "Bias", b, l.biasShape())
	l.bias = l.bias.WithValue(b)
	return l
}

// FilterSize returns the filter height and width.
func (l Convolution2D) FilterSize() tensor.Pair { return l.filterSize }

// NumFilters returns the filter count of every group.
func (l Convolution2D) NumFilters() []int { return append([]int(nil), l.numFilters...) }

// NumChannels returns the input channels per group, 0 if not inferred yet.
func (l Convolution2D) NumChannels() int { return l.numChannels }

// NumGroups returns the number of filter groups.
func (l Convolution2D) NumGroups() int { return len(l.numFilters) }

// Stride returns the stride.
func (l Convolution2D) Stride() tensor.Pair { return l.stride }

// Padding returns the padding.
func (l Convolution2D) Padding() tensor.Pair { return l.padding }

// Weights returns the host weights, nil before initialization.
func (l Convolution2D) Weights() *tensor.Tensor { return l.weights.Host() }

// Bias returns the host bias, nil before initialization.
func (l Convolution2D) Bias() *tensor.Tensor { return l.bias.Host() }

func (l Convolution2D) totalFilters() int {
	total := 0
	for _, f := range l.numFilters {
		total += f
	}
	return total
}

func (l Convolution2D) weightsShape() tensor.Shape {
	return tensor.Shape{l.filterSize[0], l.filterSize[1], l.numChannels, l.totalFilters()}
}

func (l Convolution2D) biasShape() tensor.Shape {
	return tensor.Shape{1, 1, l.totalFilters(), 1}
}

// Kind returns "conv".
func (l Convolution2D) Kind() string { return "conv" }

// Name returns the layer name.
func (l Convolution2D) Name() string { return l.name }

// LearnableParameters returns the weights and the bias.
func (l Convolution2D) LearnableParameters() []Parameter {
	return []Parameter{l.weights, l.bias}
}

// HasSizeDetermined reports whether the channel count is known.
func (l Convolution2D) HasSizeDetermined() bool { return l.numChannels > 0 }

// group is the slice of one filter group's operands.
type group struct {
	channels [2]int // input channel range
	filters  [2]int // filter range
}

func (l Convolution2D) groups() []group {
	out := make([]group, len(l.numFilters))
	first := 0
	for i, f := range l.numFilters {
		out[i] = group{
			channels: [2]int{i * l.numChannels, (i + 1) * l.numChannels},
			filters:  [2]int{first, first + f},
		}
		first += f
	}
	return out
}

// perGroup runs f once per filter group on the group's slices of x, the
// weights, the bias and dz (nil operands stay nil), concatenating results
// with join. A single group runs f on the operands themselves.
func (l Convolution2D) perGroup(x, dz *tensor.Tensor, join func(a, b *tensor.Tensor) *tensor.Tensor,
	f func(x, w, b, dz *tensor.Tensor) *tensor.Tensor,
) *tensor.Tensor {
	w, b := l.weights.Value(), l.bias.Value()
	if len(l.numFilters) == 1 {
		return f(x, w, b, dz)
	}

	var out *tensor.Tensor
	for _, g := range l.groups() {
		var gx, gdz, gb *tensor.Tensor
		if x != nil {
			gx = x.SliceChannels(g.channels[0], g.channels[1])
		}
		if dz != nil {
			gdz = dz.SliceChannels(g.filters[0], g.filters[1])
		}
		if b != nil {
			gb = b.SliceChannels(g.filters[0], g.filters[1])
		}
		r := f(gx, w.SliceObservations(g.filters[0], g.filters[1]), gb, gdz)
		if out == nil {
			out = r
		} else {
			out = join(out, r)
		}
	}
	return out
}

// Forward computes the convolution.
func (l Convolution2D) Forward(x *tensor.Tensor) (*tensor.Tensor, any) {
	return l.Predict(x), nil
}

// Predict computes the convolution.
func (l Convolution2D) Predict(x *tensor.Tensor) *tensor.Tensor {
	l.checkSize()
	return l.perGroup(x, nil, tensor.ConcatChannels, func(x, w, b, _ *tensor.Tensor) *tensor.Tensor {
		return l.backend.Conv2D(x, w, b, l.stride, l.padding)
	})
}

// Backward computes the input gradient.
func (l Convolution2D) Backward(x, _, dz *tensor.Tensor, _ any) *tensor.Tensor {
	l.checkSize()
	return l.perGroup(x, dz, tensor.ConcatChannels, func(x, w, _, dz *tensor.Tensor) *tensor.Tensor {
		return l.backend.Conv2DBackwardData(x, w, dz, l.stride, l.padding)
	})
}

// Gradients returns the weights and bias gradients.
func (l Convolution2D) Gradients(x, dz *tensor.Tensor) []*tensor.Tensor {
	l.checkSize()
	dw := l.perGroup(x, dz, tensor.ConcatObservations, func(x, w, _, dz *tensor.Tensor) *tensor.Tensor {
		return l.backend.Conv2DBackwardFilter(x, w, dz, l.stride, l.padding)
	})
	db := l.backend.Conv2DBackwardBias(dz)
	return []*tensor.Tensor{dw, db}
}

// ForwardPropagateSize returns the output size for in.
func (l Convolution2D) ForwardPropagateSize(in tensor.Size) tensor.Size {
	l.checkSize()
	out := tensor.OutputSpatial(in.H(), in.W(), l.filterSize, l.stride, l.padding)
	return tensor.Size{out[0], out[1], l.totalFilters()}
}

// InferSize resolves the channel count from in.
func (l Convolution2D) InferSize(in tensor.Size) Layer {
	if l.HasSizeDetermined() {
		return l
	}
	l.numChannels = in.C() / len(l.numFilters)
	return l
}

// IsValidInputSize reports whether in has the expected channel count and
// fits at least one filter window.
func (l Convolution2D) IsValidInputSize(in tensor.Size) bool {
	if !l.HasSizeDetermined() {
		return true
	}
	return in.C() == l.numChannels*len(l.numFilters) &&
		in.H()+2*l.padding[0] >= l.filterSize[0] &&
		in.W()+2*l.padding[1] >= l.filterSize[1]
}

// InitializeLearnableParameters draws empty weights from N(0, 0.01^2),
// zero-fills an empty bias, and casts preset values to precision.
func (l Convolution2D) InitializeLearnableParameters(precision tensor.Precision) Layer {
	l.checkSize()
	l.weights = initWeights(l.weights, l.weightsShape(), precision)
	l.bias = initBias(l.bias, l.biasShape(), precision)
	return l
}

// PrepareForTraining converts the parameters to the training representation.
func (l Convolution2D) PrepareForTraining() Layer {
	l.weights, l.bias = l.weights.ForTraining(), l.bias.ForTraining()
	return l
}

// PrepareForPrediction converts the parameters to the prediction representation.
func (l Convolution2D) PrepareForPrediction() Layer {
	l.weights, l.bias = l.weights.ForPrediction(), l.bias.ForPrediction()
	return l
}

// SetupForHostPrediction runs the layer on the host.
func (l Convolution2D) SetupForHostPrediction() Layer {
	l.backend = host
	l.weights, l.bias = l.weights.OnHost(), l.bias.OnHost()
	return l
}

// SetupForGPUPrediction runs the layer on device.
func (l Convolution2D) SetupForGPUPrediction(device tensor.Backend) Layer {
	l.backend = device
	l.weights, l.bias = l.weights.OnDevice(device), l.bias.OnDevice(device)
	return l
}

func (l Convolution2D) String() string {
	desc := fmt.Sprintf("%d %dx%d convolutions with stride %v and padding %v",
		l.totalFilters(), l.filterSize[0], l.filterSize[1], l.stride, l.padding)
	if len(l.numFilters) > 1 {
		desc += fmt.Sprintf(" in groups of %v", l.numFilters)
	}
	return desc
}

func (l Convolution2D) withName(name string) Layer { return l.WithName(name) }

func (l Convolution2D) withLearnableParameters(params []Parameter) Layer {
	if len(params) != 2 {
		violation(ErrParameterSize, "%s: expected 2 parameters, got %d", l.name, len(params))
	}
	checkValue(l.name, "Weights", params[0].Host(), l.weightsShape())
	checkValue(l.name, "Bias", params[1].Host(), l.biasShape())
	l.weights, l.bias = params[0], params[1]
	return l
}

func (l Convolution2D) checkSize() {
	if !l.HasSizeDetermined() {
		violation(ErrSizeNotDetermined, "%s: channel count not inferred", l.name)
	}
}
