package tensor

import (
	"fmt"
	"math/rand"
)

// Zeros creates a float64 host tensor filled with zeros.
// Panics if the shape is invalid.
func Zeros(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("zeros: %v", err))
	}
	return &Tensor{
		shape: shape,
		data:  make([]float64, shape.NumElements()),
	}
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float64) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// FromSlice creates a tensor from data laid out as documented on Tensor.
// The slice is copied into the tensor's memory.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t := Zeros(shape)
	copy(t.data, data)
	return t, nil
}

// MustFromSlice is FromSlice that panics on error. Intended for literals.
func MustFromSlice(data []float64, shape Shape) *Tensor {
	t, err := FromSlice(data, shape)
	if err != nil {
		panic(err)
	}
	return t
}

// Randn creates a tensor with values drawn from N(0, sigma^2).
// Note: Uses math/rand (not crypto/rand) - appropriate for ML/statistical purposes.
func Randn(shape Shape, sigma float64, rng *rand.Rand) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = rng.NormFloat64() * sigma
	}
	return t
}

// ZerosAs creates a zero tensor of the given shape carrying like's data
// type and device. Kernels use it for their results.
func ZerosAs(shape Shape, like *Tensor) *Tensor {
	t := Zeros(shape)
	t.dtype = like.dtype
	t.device = like.device
	return t
}
