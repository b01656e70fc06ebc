package nn

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/born-ml/convnet/internal/tensor"
)

// SeriesNetwork is a linear chain of layers: an ImageInput first, an
// OutputLayer last.
//
// Transformations (initialization, representation and placement changes,
// state loading) return a new network. Only UpdateLearnableParameters
// mutates the receiver, in place, as the single writer during training.
//
// Example:
//
//	net, err := nn.NewSeriesNetwork(
//	    nn.NewImageInput(tensor.Size{28, 28, 1}),
//	    nn.NewConvolution2D(tensor.Square(5), 20),
//	    nn.NewReLU(),
//	    nn.NewMaxPooling2D(tensor.Square(2)).WithStride(tensor.Square(2)),
//	    nn.NewFullyConnected(10),
//	    nn.NewSoftmax(),
//	    nn.NewCrossEntropy(),
//	)
type SeriesNetwork struct {
	layers []Layer
}

// NewSeriesNetwork checks and assembles layers into a network.
//
// Unnamed layers are named "<kind>_<index>" (1-based). Sizes are inferred
// down the chain, so every layer of the result accepts its predecessor's
// output. Returns an error wrapping ErrInvalidNetwork if the chain is not
// an input layer, any hidden layers, then an output layer, if two layers
// share a name, or if sizes do not fit.
func NewSeriesNetwork(layers ...Layer) (*SeriesNetwork, error) {
	if len(layers) < 2 {
		return nil, fmt.Errorf("%w: need an input and an output layer, got %d layers", ErrInvalidNetwork, len(layers))
	}
	if _, ok := layers[0].(ImageInput); !ok {
		return nil, fmt.Errorf("%w: first layer is %s, not an image input", ErrInvalidNetwork, layers[0].Kind())
	}
	if _, ok := layers[len(layers)-1].(OutputLayer); !ok {
		return nil, fmt.Errorf("%w: last layer is %s, not an output layer", ErrInvalidNetwork, layers[len(layers)-1].Kind())
	}

	out := make([]Layer, len(layers))
	names := make(map[string]int, len(layers))
	for i, l := range layers {
		if i > 0 {
			if _, ok := l.(ImageInput); ok {
				return nil, fmt.Errorf("%w: image input at position %d", ErrInvalidNetwork, i+1)
			}
		}
		if _, ok := l.(OutputLayer); ok && i < len(layers)-1 {
			return nil, fmt.Errorf("%w: output layer at position %d", ErrInvalidNetwork, i+1)
		}
		if l.Name() == "" {
			l = l.withName(fmt.Sprintf("%s_%d", l.Kind(), i+1))
		}
		if prev, dup := names[l.Name()]; dup {
			return nil, fmt.Errorf("%w: layers %d and %d are both named %q", ErrInvalidNetwork, prev, i+1, l.Name())
		}
		names[l.Name()] = i + 1
		out[i] = l
	}

	size := out[0].(ImageInput).InputSize()
	for i := 1; i < len(out); i++ {
		l := out[i].InferSize(size)
		if !l.HasSizeDetermined() || !l.IsValidInputSize(size) {
			return nil, fmt.Errorf("%w: layer %q does not accept input of size %v", ErrInvalidNetwork, l.Name(), size)
		}
		size = l.ForwardPropagateSize(size)
		if size.NumElements() <= 0 {
			return nil, fmt.Errorf("%w: layer %q produces empty output %v", ErrInvalidNetwork, l.Name(), size)
		}
		out[i] = l
	}

	return &SeriesNetwork{layers: out}, nil
}

// Layers returns a copy of the layer list.
func (net *SeriesNetwork) Layers() []Layer {
	return append([]Layer(nil), net.layers...)
}

// NumLayers returns the number of layers.
func (net *SeriesNetwork) NumLayers() int {
	return len(net.layers)
}

// Input returns the input layer.
func (net *SeriesNetwork) Input() ImageInput {
	return net.layers[0].(ImageInput)
}

// Output returns the output layer.
func (net *SeriesNetwork) Output() OutputLayer {
	return net.layers[len(net.layers)-1].(OutputLayer)
}

// InputSize returns the observation size the network accepts.
func (net *SeriesNetwork) InputSize() tensor.Size {
	return net.Input().InputSize()
}

// OutputSize returns the size of one output observation.
func (net *SeriesNetwork) OutputSize() tensor.Size {
	size := net.InputSize()
	for _, l := range net.layers[1:] {
		size = l.ForwardPropagateSize(size)
	}
	return size
}

// LearnableParameters returns every parameter, in layer order and in
// parameter order within each layer.
func (net *SeriesNetwork) LearnableParameters() []Parameter {
	var params []Parameter
	for _, l := range net.layers {
		params = append(params, l.LearnableParameters()...)
	}
	return params
}

// WithInput returns the network with its input layer replaced. The
// replacement must declare the same input size.
func (net *SeriesNetwork) WithInput(input ImageInput) (*SeriesNetwork, error) {
	if input.InputSize() != net.InputSize() {
		return nil, fmt.Errorf("%w: input size %v, network expects %v", ErrInvalidNetwork, input.InputSize(), net.InputSize())
	}
	if input.Name() == "" {
		input = input.WithName(net.layers[0].Name())
	}
	return net.mapLayers(func(i int, l Layer) Layer {
		if i == 0 {
			return input
		}
		return l
	}), nil
}

// Predict returns the network output for data.
func (net *SeriesNetwork) Predict(data *tensor.Tensor) *tensor.Tensor {
	return net.Activations(data, len(net.layers))
}

// Activations transforms data through the input layer's prediction
// transform and runs Predict through the first upTo layers.
func (net *SeriesNetwork) Activations(data *tensor.Tensor, upTo int) *tensor.Tensor {
	if upTo < 1 || upTo > len(net.layers) {
		panic(fmt.Sprintf("activations: layer %d out of range [1, %d]", upTo, len(net.layers)))
	}
	x := net.Input().PredictionTransform(data)
	for _, l := range net.layers[:upTo] {
		x = l.Predict(x)
	}
	return x
}

// Classify returns the predicted class of every observation.
func (net *SeriesNetwork) Classify(data *tensor.Tensor) []int {
	return net.Predict(data).ArgmaxChannels()
}

// Gradients runs a training forward and backward pass of x against the
// targets t. It returns one gradient per learnable parameter (summed over
// the batch), the loss, and the accuracy in percent.
//
// x must already be transformed by the input layer.
func (net *SeriesNetwork) Gradients(x, t *tensor.Tensor) ([]*tensor.Tensor, float64, float64) {
	n := len(net.layers)

	// inputs[i] is the input of layer i, inputs[i+1] its output.
	inputs := make([]*tensor.Tensor, n+1)
	memory := make([]any, n)
	inputs[0] = x
	for i, l := range net.layers {
		inputs[i+1], memory[i] = l.Forward(inputs[i])
	}

	output := net.Output()
	y := inputs[n-1]
	loss := output.ForwardLoss(y, t)
	accuracy := Accuracy(y, t)

	// dz[i] is the loss derivative with respect to the output of layer i.
	dz := make([]*tensor.Tensor, n)
	dz[n-2] = output.BackwardLoss(y, t)
	for i := n - 2; i >= 1; i-- {
		dz[i-1] = net.layers[i].Backward(inputs[i], inputs[i+1], dz[i], memory[i])
	}

	var grads []*tensor.Tensor
	for i := 1; i < n-1; i++ {
		grads = append(grads, net.layers[i].Gradients(inputs[i], dz[i])...)
	}
	return grads, loss, accuracy
}

// Accuracy returns the percentage of positions whose largest prediction
// channel matches the largest target channel.
func Accuracy(y, t *tensor.Tensor) float64 {
	predicted, expected := y.ArgmaxChannels(), t.ArgmaxChannels()
	if len(predicted) != len(expected) {
		panic(fmt.Sprintf("accuracy: predictions %v and targets %v differ in shape", y.Shape(), t.Shape()))
	}
	if len(predicted) == 0 {
		return 0
	}
	correct := 0
	for i := range predicted {
		if predicted[i] == expected[i] {
			correct++
		}
	}
	return 100 * float64(correct) / float64(len(predicted))
}

// UpdateLearnableParameters adds deltas[i] to the i-th learnable parameter
// in place. Panics with ErrDeltaCount unless there is exactly one delta per
// parameter.
func (net *SeriesNetwork) UpdateLearnableParameters(deltas []*tensor.Tensor) {
	params := net.LearnableParameters()
	if len(deltas) != len(params) {
		violation(ErrDeltaCount, "%d deltas for %d learnable parameters", len(deltas), len(params))
	}
	for i, p := range params {
		p.add(deltas[i])
	}
}

// InitializeLearnableParameters initializes every layer's parameters.
func (net *SeriesNetwork) InitializeLearnableParameters(precision tensor.Precision) *SeriesNetwork {
	return net.mapLayers(func(_ int, l Layer) Layer { return l.InitializeLearnableParameters(precision) })
}

// PrepareNetworkForTraining converts every parameter to the training
// representation.
func (net *SeriesNetwork) PrepareNetworkForTraining() *SeriesNetwork {
	return net.mapLayers(func(_ int, l Layer) Layer { return l.PrepareForTraining() })
}

// PrepareNetworkForPrediction converts every parameter to the prediction
// representation.
func (net *SeriesNetwork) PrepareNetworkForPrediction() *SeriesNetwork {
	return net.mapLayers(func(_ int, l Layer) Layer { return l.PrepareForPrediction() })
}

// SetupNetworkForHostPrediction runs every layer on the host.
func (net *SeriesNetwork) SetupNetworkForHostPrediction() *SeriesNetwork {
	return net.mapLayers(func(_ int, l Layer) Layer { return l.SetupForHostPrediction() })
}

// SetupNetworkForGPUPrediction runs every layer on device.
func (net *SeriesNetwork) SetupNetworkForGPUPrediction(device tensor.Backend) *SeriesNetwork {
	return net.mapLayers(func(_ int, l Layer) Layer { return l.SetupForGPUPrediction(device) })
}

func (net *SeriesNetwork) mapLayers(f func(i int, l Layer) Layer) *SeriesNetwork {
	out := make([]Layer, len(net.layers))
	for i, l := range net.layers {
		out[i] = f(i, l)
	}
	return &SeriesNetwork{layers: out}
}

// Summary describes every layer and the learnable parameter counts.
func (net *SeriesNetwork) Summary() string {
	var b strings.Builder
	total := 0
	for i, l := range net.layers {
		count := 0
		for _, p := range l.LearnableParameters() {
			if !p.IsEmpty() {
				count += p.Host().NumElements()
			}
		}
		total += count
		fmt.Fprintf(&b, "%3d  %-16s %-12s %s", i+1, l.Name(), l.Kind(), l)
		if count > 0 {
			fmt.Fprintf(&b, " (%s parameters)", humanize.Comma(int64(count)))
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d layers, %s learnable parameters\n", len(net.layers), humanize.Comma(int64(total)))
	return b.String()
}
