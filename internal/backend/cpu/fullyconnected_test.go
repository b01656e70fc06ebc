package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/tensor"
)

func TestFullyConnected_Forward(t *testing.T) {
	backend := New()

	// Two observations of size 1x1x3.
	x := tensor.MustFromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{1, 1, 3, 2})
	// Two outputs: [1 0 -1] and [0.5 0.5 0.5].
	w := tensor.MustFromSlice([]float64{1, 0, -1, 0.5, 0.5, 0.5}, tensor.Shape{1, 1, 3, 2})
	b := tensor.MustFromSlice([]float64{10, 20}, tensor.Shape{1, 1, 2, 1})

	z := backend.FullyConnected(x, w, b)

	require.Equal(t, tensor.Shape{1, 1, 2, 2}, z.Shape())
	assert.InDeltaSlice(t, []float64{8, 23, 8, 27.5}, z.Data(), 1e-12)
}

func TestFullyConnected_Backward(t *testing.T) {
	backend := New()
	x := randTensor(tensor.Shape{2, 3, 2, 4}, 5)
	w := randTensor(tensor.Shape{2, 3, 2, 3}, 6)
	b := randTensor(tensor.Shape{1, 1, 3, 1}, 7)
	r := randTensor(tensor.Shape{1, 1, 3, 4}, 8)

	loss := func() float64 { return dot(backend.FullyConnected(x, w, b), r) }

	checkGrad(t, "dX", x, backend.FullyConnectedBackwardData(x, w, r), loss)
	checkGrad(t, "dW", w, backend.FullyConnectedBackwardWeights(x, w, r), loss)
}

func TestFullyConnected_SizeMismatchPanics(t *testing.T) {
	backend := New()
	x := tensor.Zeros(tensor.Shape{2, 2, 1, 1})
	w := tensor.Zeros(tensor.Shape{1, 1, 4, 2})
	assert.Panics(t, func() { backend.FullyConnected(x, w, nil) })
}
