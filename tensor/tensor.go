// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/convnet/internal/tensor"
)

// Tensor is a 4-D array of H×W×C×N values.
type Tensor = tensor.Tensor

// Shape is the [H W C N] shape of a tensor.
type Shape = tensor.Shape

// Size is the [H W C] size of one observation.
type Size = tensor.Size

// Pair is a (vertical, horizontal) pair such as a window or a stride.
type Pair = tensor.Pair

// DataType tags the precision of a tensor's values.
type DataType = tensor.DataType

// Device identifies where a tensor's data lives.
type Device = tensor.Device

// Precision is a numeric precision policy.
type Precision = tensor.Precision

// Backend is the Numeric Kernels contract.
type Backend = tensor.Backend

// LRNParams configures cross-channel normalization kernels.
type LRNParams = tensor.LRNParams

// Data types.
const (
	Float64 = tensor.Float64
	Float32 = tensor.Float32
)

// Devices.
const (
	CPU    = tensor.CPU
	WebGPU = tensor.WebGPU
)

// Precision policies.
var (
	Single = tensor.Single
	Double = tensor.Double
)

// Zeros creates a zero-filled float64 tensor.
func Zeros(shape Shape) *Tensor { return tensor.Zeros(shape) }

// Full creates a tensor filled with value.
func Full(shape Shape, value float64) *Tensor { return tensor.Full(shape, value) }

// FromSlice creates a tensor over data, which must hold exactly
// shape.NumElements() values in [H W C N] order.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// MustFromSlice is like FromSlice but panics on error.
func MustFromSlice(data []float64, shape Shape) *Tensor {
	return tensor.MustFromSlice(data, shape)
}

// Randn draws a tensor from N(0, sigma²).
func Randn(shape Shape, sigma float64, rng *rand.Rand) *Tensor {
	return tensor.Randn(shape, sigma, rng)
}

// NewShape returns the shape of n observations of the given size.
func NewShape(size Size, n int) Shape { return tensor.NewShape(size, n) }

// Square returns the pair (v, v).
func Square(v int) Pair { return tensor.Square(v) }

// ConcatObservations stacks a and b along N.
func ConcatObservations(a, b *Tensor) *Tensor { return tensor.ConcatObservations(a, b) }
