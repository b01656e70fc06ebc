package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/tensor"
)

func seq(shape tensor.Shape) *tensor.Tensor {
	t := tensor.Zeros(shape)
	for i := range t.Data() {
		t.Data()[i] = float64(i + 1)
	}
	return t
}

// TestMaxPool2D_BasicForward tests max pooling over a 4x4 ramp.
func TestMaxPool2D_BasicForward(t *testing.T) {
	backend := New()

	// [[1,2,3,4],      -> [[6,8],
	//  [5,6,7,8],         [14,16]]
	//  [9,10,11,12],
	//  [13,14,15,16]]
	out := backend.MaxPool2D(seq(tensor.Shape{4, 4, 1, 1}), tensor.Square(2), tensor.Square(2), tensor.Square(0))

	require.Equal(t, tensor.Shape{2, 2, 1, 1}, out.Shape())
	assert.Equal(t, []float64{6, 8, 14, 16}, out.Data())
}

func TestMaxPool2D_PaddingNeverWins(t *testing.T) {
	backend := New()
	x := tensor.Full(tensor.Shape{3, 3, 2, 1}, -5)

	out := backend.MaxPool2D(x, tensor.Square(3), tensor.Square(1), tensor.Square(1))

	require.Equal(t, tensor.Shape{3, 3, 2, 1}, out.Shape())
	for _, v := range out.Data() {
		assert.Equal(t, -5.0, v)
	}
}

func TestMaxPool2DBackward_RoutesToMax(t *testing.T) {
	backend := New()
	x := seq(tensor.Shape{4, 4, 1, 1})
	pool, stride, pad := tensor.Square(2), tensor.Square(2), tensor.Square(0)
	z := backend.MaxPool2D(x, pool, stride, pad)
	dz := tensor.MustFromSlice([]float64{1, 2, 3, 4}, z.Shape())

	dx := backend.MaxPool2DBackward(x, z, dz, pool, stride, pad)

	want := make([]float64, 16)
	want[5], want[7], want[13], want[15] = 1, 2, 3, 4
	assert.Equal(t, want, dx.Data())
}

func TestMaxPool2DBackward_Overlapping(t *testing.T) {
	backend := New()
	pool, stride, pad := tensor.Square(3), tensor.Square(2), tensor.Square(1)
	x := randTensor(tensor.Shape{5, 5, 2, 2}, 9)
	z := backend.MaxPool2D(x, pool, stride, pad)
	r := randTensor(z.Shape(), 10)

	dx := backend.MaxPool2DBackward(x, z, r, pool, stride, pad)
	checkGrad(t, "maxpool", x, dx, func() float64 {
		return dot(backend.MaxPool2D(x, pool, stride, pad), r)
	})
}

func TestAvgPool2D_ConstantInput(t *testing.T) {
	backend := New()
	x := tensor.Full(tensor.Shape{4, 4, 3, 2}, 2.5)

	out := backend.AvgPool2D(x, tensor.Square(2), tensor.Square(2), tensor.Square(0))

	require.Equal(t, tensor.Shape{2, 2, 3, 2}, out.Shape())
	for _, v := range out.Data() {
		assert.InDelta(t, 2.5, v, 1e-12)
	}
}

func TestAvgPool2D_PaddingCountsInArea(t *testing.T) {
	backend := New()
	x := tensor.Full(tensor.Shape{2, 2, 1, 1}, 1)

	out := backend.AvgPool2D(x, tensor.Square(3), tensor.Square(1), tensor.Square(1))

	require.Equal(t, tensor.Shape{2, 2, 1, 1}, out.Shape())
	for _, v := range out.Data() {
		assert.InDelta(t, 4.0/9.0, v, 1e-12)
	}
}

func TestAvgPool2DBackward(t *testing.T) {
	backend := New()
	pool, stride, pad := tensor.Pair{3, 2}, tensor.Pair{1, 2}, tensor.Pair{1, 0}
	x := randTensor(tensor.Shape{4, 5, 2, 2}, 11)
	r := randTensor(backend.AvgPool2D(x, pool, stride, pad).Shape(), 12)

	dx := backend.AvgPool2DBackward(x, r, pool, stride, pad)
	checkGrad(t, "avgpool", x, dx, func() float64 {
		return dot(backend.AvgPool2D(x, pool, stride, pad), r)
	})
}
