package webgpu

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// Conv2D performs 2D convolution on the device.
func (b *Backend) Conv2D(x, weights, bias *tensor.Tensor, stride, padding tensor.Pair) *tensor.Tensor {
	xs, ws := x.Shape(), weights.Shape()
	if xs.C() != ws.C() {
		panic(fmt.Sprintf("conv2d: input channels %d != filter channels %d", xs.C(), ws.C()))
	}
	out := tensor.OutputSpatial(xs.H(), xs.W(), tensor.Pair{ws.H(), ws.W()}, stride, padding)
	if out[0] <= 0 || out[1] <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions %v (check stride/padding)", out))
	}
	shape := tensor.Shape{out[0], out[1], ws.N(), xs.N()}

	b32 := make([]float32, ws.N())
	if bias != nil {
		b32 = float32s(bias)
	}
	return b.launch("Conv2D", dispatch{
		kernel:  kernelConv2D,
		inputs:  [][]float32{float32s(x), float32s(weights), b32},
		outLen:  shape.NumElements(),
		threads: shape.NumElements(),
		params: u32s(xs.C(), xs.H(), xs.W(), ws.N(), out[0], out[1],
			ws.H(), ws.W(), stride[0], stride[1], padding[0], padding[1]),
	}, shape, x)
}

// Conv2DBackwardData runs on the host.
func (b *Backend) Conv2DBackwardData(x, weights, dz *tensor.Tensor, stride, padding tensor.Pair) *tensor.Tensor {
	return b.onDevice(b.host.Conv2DBackwardData(x, weights, dz, stride, padding))
}

// Conv2DBackwardFilter runs on the host.
func (b *Backend) Conv2DBackwardFilter(x, weights, dz *tensor.Tensor, stride, padding tensor.Pair) *tensor.Tensor {
	return b.onDevice(b.host.Conv2DBackwardFilter(x, weights, dz, stride, padding))
}

// Conv2DBackwardBias runs on the host.
func (b *Backend) Conv2DBackwardBias(dz *tensor.Tensor) *tensor.Tensor {
	return b.onDevice(b.host.Conv2DBackwardBias(dz))
}

// FullyConnected computes z = W x + b on the device.
func (b *Backend) FullyConnected(x, weights, bias *tensor.Tensor) *tensor.Tensor {
	if x.Size() != weights.Size() {
		panic(fmt.Sprintf("fully connected: input size %v does not match weights size %v", x.Size(), weights.Size()))
	}
	outputs := weights.Shape().N()
	shape := tensor.Shape{1, 1, outputs, x.Shape().N()}

	b32 := make([]float32, outputs)
	if bias != nil {
		b32 = float32s(bias)
	}
	return b.launch("FullyConnected", dispatch{
		kernel:  kernelFullyConnected,
		inputs:  [][]float32{float32s(x), float32s(weights), b32},
		outLen:  shape.NumElements(),
		threads: shape.NumElements(),
		params:  u32s(x.Size().NumElements(), outputs),
	}, shape, x)
}

// FullyConnectedBackwardData runs on the host.
func (b *Backend) FullyConnectedBackwardData(x, weights, dz *tensor.Tensor) *tensor.Tensor {
	return b.onDevice(b.host.FullyConnectedBackwardData(x, weights, dz))
}

// FullyConnectedBackwardWeights runs on the host.
func (b *Backend) FullyConnectedBackwardWeights(x, weights, dz *tensor.Tensor) *tensor.Tensor {
	return b.onDevice(b.host.FullyConnectedBackwardWeights(x, weights, dz))
}

func (b *Backend) pool(op string, mode uint32, x *tensor.Tensor, pool, stride, padding tensor.Pair) *tensor.Tensor {
	xs := x.Shape()
	out := tensor.OutputSpatial(xs.H(), xs.W(), pool, stride, padding)
	if out[0] <= 0 || out[1] <= 0 {
		panic(fmt.Sprintf("%s: pool size %v too large for input %dx%d", op, pool, xs.H(), xs.W()))
	}
	shape := tensor.Shape{out[0], out[1], xs.C(), xs.N()}

	params := u32s(xs.C(), xs.H(), xs.W(), out[0], out[1],
		pool[0], pool[1], stride[0], stride[1], padding[0], padding[1])
	return b.launch(op, dispatch{
		kernel:  kernelPool2D,
		inputs:  [][]float32{float32s(x)},
		outLen:  shape.NumElements(),
		threads: shape.NumElements(),
		params:  append(params, mode),
	}, shape, x)
}

// MaxPool2D performs 2D max pooling on the device.
func (b *Backend) MaxPool2D(x *tensor.Tensor, pool, stride, padding tensor.Pair) *tensor.Tensor {
	return b.pool("MaxPool2D", poolModeMax, x, pool, stride, padding)
}

// MaxPool2DBackward runs on the host.
func (b *Backend) MaxPool2DBackward(x, z, dz *tensor.Tensor, pool, stride, padding tensor.Pair) *tensor.Tensor {
	return b.onDevice(b.host.MaxPool2DBackward(x, z, dz, pool, stride, padding))
}

// AvgPool2D performs 2D average pooling on the device.
func (b *Backend) AvgPool2D(x *tensor.Tensor, pool, stride, padding tensor.Pair) *tensor.Tensor {
	return b.pool("AvgPool2D", poolModeAvg, x, pool, stride, padding)
}

// AvgPool2DBackward runs on the host.
func (b *Backend) AvgPool2DBackward(x, dz *tensor.Tensor, pool, stride, padding tensor.Pair) *tensor.Tensor {
	return b.onDevice(b.host.AvgPool2DBackward(x, dz, pool, stride, padding))
}

// LRN runs on the host.
func (b *Backend) LRN(x *tensor.Tensor, p tensor.LRNParams) *tensor.Tensor {
	return b.onDevice(b.host.LRN(x, p))
}

// LRNBackward runs on the host.
func (b *Backend) LRNBackward(x, z, dz *tensor.Tensor, p tensor.LRNParams) *tensor.Tensor {
	return b.onDevice(b.host.LRNBackward(x, z, dz, p))
}

// Softmax normalizes across channels on the device.
func (b *Backend) Softmax(x *tensor.Tensor) *tensor.Tensor {
	s := x.Shape()
	plane := s.H() * s.W()
	return b.launch("Softmax", dispatch{
		kernel:  kernelSoftmax,
		inputs:  [][]float32{float32s(x)},
		outLen:  s.NumElements(),
		threads: plane * s.N(),
		params:  u32s(s.C(), plane),
	}, s, x)
}

// SoftmaxBackward computes the softmax input gradient on the device.
func (b *Backend) SoftmaxBackward(z, dz *tensor.Tensor) *tensor.Tensor {
	s := z.Shape()
	plane := s.H() * s.W()
	return b.launch("SoftmaxBackward", dispatch{
		kernel:  kernelSoftmaxBackward,
		inputs:  [][]float32{float32s(z), float32s(dz)},
		outLen:  s.NumElements(),
		threads: plane * s.N(),
		params:  u32s(s.C(), plane),
	}, s, z)
}

// ReLU applies max(0, x) on the device.
func (b *Backend) ReLU(x *tensor.Tensor) *tensor.Tensor {
	n := x.NumElements()
	return b.launch("ReLU", dispatch{
		kernel:  kernelReLU,
		inputs:  [][]float32{float32s(x)},
		outLen:  n,
		threads: n,
	}, x.Shape(), x)
}

// ReLUBackward passes dz where x > 0 on the device.
func (b *Backend) ReLUBackward(x, dz *tensor.Tensor) *tensor.Tensor {
	n := x.NumElements()
	return b.launch("ReLUBackward", dispatch{
		kernel:  kernelReLUBackward,
		inputs:  [][]float32{float32s(x), float32s(dz)},
		outLen:  n,
		threads: n,
	}, x.Shape(), x)
}
