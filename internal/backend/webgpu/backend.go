// Package webgpu implements the device Numeric Kernels on WebGPU.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// Forward kernels run as WGSL compute shaders in single precision. Kernels
// without a shader run on the host backend and the result is tagged as
// device resident, so a network set up for device prediction never needs to
// know which kernels are native.
package webgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/born-ml/convnet/internal/backend/cpu"
	"github.com/born-ml/convnet/internal/tensor"
)

// ErrUnavailable is returned when no usable WebGPU device exists.
var ErrUnavailable = errors.New("webgpu: device unavailable")

// Kernel names, also used as pipeline cache keys.
const (
	kernelConv2D          = "conv2d"
	kernelFullyConnected  = "fully_connected"
	kernelPool2D          = "pool2d"
	kernelReLU            = "relu"
	kernelReLUBackward    = "relu_backward"
	kernelSoftmax         = "softmax"
	kernelSoftmaxBackward = "softmax_backward"
)

const (
	poolModeMax uint32 = iota
	poolModeAvg
)

// dispatch describes one kernel launch.
type dispatch struct {
	kernel  string
	inputs  [][]float32
	outLen  int
	threads int
	params  []uint32
}

// Backend implements the kernel contract on a WebGPU device.
type Backend struct {
	ctx  *gpuContext
	host *cpu.CPUBackend
	mu   sync.Mutex
}

// New creates a new WebGPU backend.
// Returns an error wrapping ErrUnavailable if WebGPU cannot be initialized.
func New() (*Backend, error) {
	ctx, err := newContext()
	if err != nil {
		return nil, err
	}
	return &Backend{ctx: ctx, host: cpu.New()}, nil
}

var (
	probeOnce    sync.Once
	probeBackend *Backend
	probeErr     error
)

// Probe reports whether a device is available, creating the shared backend
// on first call. Later calls return the same result.
func Probe() (*Backend, error) {
	probeOnce.Do(func() {
		probeBackend, probeErr = New()
	})
	return probeBackend, probeErr
}

// Release frees the device. The backend must not be used afterwards.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx != nil {
		b.ctx.release()
		b.ctx = nil
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "WebGPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// ToDevice returns a device-resident copy of t.
func (b *Backend) ToDevice(t *tensor.Tensor) *tensor.Tensor {
	return t.OnDevice(tensor.WebGPU)
}

// ToHost returns a host copy of t.
func (b *Backend) ToHost(t *tensor.Tensor) *tensor.Tensor {
	return t.OnDevice(tensor.CPU)
}

// launch runs d on the device and stores the result in a tensor shaped like
// shape with like's data type. Panics if the device fails.
func (b *Backend) launch(op string, d dispatch, shape tensor.Shape, like *tensor.Tensor) *tensor.Tensor {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		panic(fmt.Errorf("webgpu: %s: %w", op, ErrUnavailable))
	}
	data, err := b.ctx.run(d)
	if err != nil {
		panic(fmt.Errorf("webgpu: %s: %w", op, err))
	}

	out := tensor.ZerosAs(shape, like).OnDevice(tensor.WebGPU)
	od := out.Data()
	for i, v := range data {
		od[i] = like.DType().Round(float64(v))
	}
	return out
}

// onDevice tags a host kernel result as device resident.
func (b *Backend) onDevice(t *tensor.Tensor) *tensor.Tensor {
	return t.OnDevice(tensor.WebGPU)
}

func float32s(t *tensor.Tensor) []float32 {
	out := make([]float32, t.NumElements())
	for i, v := range t.Data() {
		out[i] = float32(v)
	}
	return out
}

//nolint:gosec // G115: tensor dimensions are positive and small
func u32s(values ...int) []uint32 {
	out := make([]uint32, len(values))
	for i, v := range values {
		out[i] = uint32(v)
	}
	return out
}
