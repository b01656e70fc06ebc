package tensor

// LRNParams are the hyperparameters of cross-channel local response
// normalization:
//
//	z_c = x_c / (K + Alpha/WindowSize * sum_{c' in window(c)} x_c'^2)^Beta
type LRNParams struct {
	WindowSize int
	Alpha      float64
	Beta       float64
	K          float64
}

// Backend is the Numeric Kernels contract. Every layer delegates its
// arithmetic to one Backend, its execution strategy; swapping the backend
// changes placement only, never results.
//
// Kernels are pure: they never modify their inputs and retain no state
// across calls. Gradients with respect to parameters are summed over the
// observations of the batch, not averaged.
//
// Implementations:
//   - cpu: host memory, gonum BLAS
//   - webgpu: WGSL compute shaders via go-webgpu
type Backend interface {
	// Convolution. x is [H W C N], weights [FH FW C F], bias [1 1 F 1].
	Conv2D(x, weights, bias *Tensor, stride, padding Pair) *Tensor
	Conv2DBackwardData(x, weights, dz *Tensor, stride, padding Pair) *Tensor
	Conv2DBackwardFilter(x, weights, dz *Tensor, stride, padding Pair) *Tensor
	// Conv2DBackwardBias sums dz over height, width and observations.
	Conv2DBackwardBias(dz *Tensor) *Tensor

	// Fully connected. x is [H W C N], weights [H W C O], output [1 1 O N].
	FullyConnected(x, weights, bias *Tensor) *Tensor
	FullyConnectedBackwardData(x, weights, dz *Tensor) *Tensor
	FullyConnectedBackwardWeights(x, weights, dz *Tensor) *Tensor

	// Pooling. Max pooling pads with the most negative value, average
	// pooling pads with zeros and always divides by the window area.
	MaxPool2D(x *Tensor, pool, stride, padding Pair) *Tensor
	MaxPool2DBackward(x, z, dz *Tensor, pool, stride, padding Pair) *Tensor
	AvgPool2D(x *Tensor, pool, stride, padding Pair) *Tensor
	AvgPool2DBackward(x, dz *Tensor, pool, stride, padding Pair) *Tensor

	// Cross-channel local response normalization.
	LRN(x *Tensor, p LRNParams) *Tensor
	LRNBackward(x, z, dz *Tensor, p LRNParams) *Tensor

	// Softmax across channels at every (h, w, n) position.
	Softmax(x *Tensor) *Tensor
	SoftmaxBackward(z, dz *Tensor) *Tensor

	ReLU(x *Tensor) *Tensor
	ReLUBackward(x, dz *Tensor) *Tensor

	// Placement.
	ToDevice(t *Tensor) *Tensor
	ToHost(t *Tensor) *Tensor

	// Metadata
	Name() string
	Device() Device
}
