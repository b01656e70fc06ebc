// Package cpu implements the host Numeric Kernels. Convolution and
// fully-connected products run through gonum's BLAS; every other kernel is
// a direct loop over the tensor layout, split per observation.
package cpu

import (
	"github.com/born-ml/convnet/internal/tensor"
)

// CPUBackend implements the kernel contract on host memory.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// ToDevice returns a host copy of t; the host is this backend's device.
func (cpu *CPUBackend) ToDevice(t *tensor.Tensor) *tensor.Tensor {
	return t.OnDevice(tensor.CPU)
}

// ToHost returns a host copy of t.
func (cpu *CPUBackend) ToHost(t *tensor.Tensor) *tensor.Tensor {
	return t.OnDevice(tensor.CPU)
}

// result allocates a kernel output on the host with x's data type.
func (cpu *CPUBackend) result(shape tensor.Shape, x *tensor.Tensor) *tensor.Tensor {
	return tensor.ZerosAs(shape, x).OnDevice(cpu.device)
}
