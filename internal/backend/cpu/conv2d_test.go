package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/tensor"
)

// naiveConv2D is a direct-loop reference for Conv2D.
func naiveConv2D(x, w, bias *tensor.Tensor, stride, pad tensor.Pair) *tensor.Tensor {
	xs, ws := x.Shape(), w.Shape()
	out := tensor.OutputSpatial(xs.H(), xs.W(), tensor.Pair{ws.H(), ws.W()}, stride, pad)
	z := tensor.Zeros(tensor.Shape{out[0], out[1], ws.N(), xs.N()})
	for n := 0; n < xs.N(); n++ {
		for f := 0; f < ws.N(); f++ {
			for oh := 0; oh < out[0]; oh++ {
				for ow := 0; ow < out[1]; ow++ {
					sum := bias.Data()[f]
					for c := 0; c < xs.C(); c++ {
						for i := 0; i < ws.H(); i++ {
							for j := 0; j < ws.W(); j++ {
								ih := oh*stride[0] - pad[0] + i
								iw := ow*stride[1] - pad[1] + j
								if ih < 0 || ih >= xs.H() || iw < 0 || iw >= xs.W() {
									continue
								}
								sum += x.At(ih, iw, c, n) * w.At(i, j, c, f)
							}
						}
					}
					z.Set(sum, oh, ow, f, n)
				}
			}
		}
	}
	return z
}

// TestConv2D_BasicForward tests a single diagonal 2x2 kernel over a 3x3 image.
func TestConv2D_BasicForward(t *testing.T) {
	backend := New()

	// 1 2 3
	// 4 5 6
	// 7 8 9
	input := tensor.MustFromSlice([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{3, 3, 1, 1})
	// 1 0
	// 0 1
	kernel := tensor.MustFromSlice([]float64{1, 0, 0, 1}, tensor.Shape{2, 2, 1, 1})

	output := backend.Conv2D(input, kernel, nil, tensor.Square(1), tensor.Square(0))

	require.Equal(t, tensor.Shape{2, 2, 1, 1}, output.Shape())
	assert.Equal(t, []float64{6, 8, 12, 14}, output.Data())
}

// TestConv2D_WithPadding tests a 3x3 sum kernel over a padded 3x3 image of ones.
func TestConv2D_WithPadding(t *testing.T) {
	backend := New()

	input := tensor.Full(tensor.Shape{3, 3, 1, 1}, 1)
	kernel := tensor.Full(tensor.Shape{3, 3, 1, 1}, 1)
	bias := tensor.Full(tensor.Shape{1, 1, 1, 1}, 0.5)

	output := backend.Conv2D(input, kernel, bias, tensor.Square(1), tensor.Square(1))

	require.Equal(t, tensor.Shape{3, 3, 1, 1}, output.Shape())
	assert.Equal(t, []float64{4.5, 6.5, 4.5, 6.5, 9.5, 6.5, 4.5, 6.5, 4.5}, output.Data())
}

func TestConv2D_MatchesNaive(t *testing.T) {
	backend := New()
	cases := []struct {
		name    string
		x, w    tensor.Shape
		stride  tensor.Pair
		padding tensor.Pair
	}{
		{"unit", tensor.Shape{5, 5, 2, 3}, tensor.Shape{3, 3, 2, 4}, tensor.Square(1), tensor.Square(0)},
		{"strided", tensor.Shape{7, 6, 3, 2}, tensor.Shape{3, 2, 3, 2}, tensor.Pair{2, 1}, tensor.Pair{1, 0}},
		{"padded", tensor.Shape{4, 4, 1, 1}, tensor.Shape{3, 3, 1, 5}, tensor.Square(2), tensor.Square(2)},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			x := randTensor(tc.x, int64(i))
			w := randTensor(tc.w, int64(100+i))
			bias := randTensor(tensor.Shape{1, 1, tc.w.N(), 1}, int64(200+i))

			got := backend.Conv2D(x, w, bias, tc.stride, tc.padding)
			want := naiveConv2D(x, w, bias, tc.stride, tc.padding)
			require.Equal(t, want.Shape(), got.Shape())
			assert.InDeltaSlice(t, want.Data(), got.Data(), 1e-10)
		})
	}
}

func TestConv2D_Backward(t *testing.T) {
	backend := New()
	stride, pad := tensor.Pair{2, 1}, tensor.Pair{1, 1}
	x := randTensor(tensor.Shape{5, 4, 2, 2}, 1)
	w := randTensor(tensor.Shape{3, 2, 2, 3}, 2)
	bias := randTensor(tensor.Shape{1, 1, 3, 1}, 3)
	r := randTensor(backend.Conv2D(x, w, bias, stride, pad).Shape(), 4)

	loss := func() float64 { return dot(backend.Conv2D(x, w, bias, stride, pad), r) }

	checkGrad(t, "dX", x, backend.Conv2DBackwardData(x, w, r, stride, pad), loss)
	checkGrad(t, "dW", w, backend.Conv2DBackwardFilter(x, w, r, stride, pad), loss)
	checkGrad(t, "dB", bias, backend.Conv2DBackwardBias(r), loss)
}

func TestConv2D_ChannelMismatchPanics(t *testing.T) {
	backend := New()
	x := tensor.Zeros(tensor.Shape{3, 3, 2, 1})
	w := tensor.Zeros(tensor.Shape{2, 2, 3, 1})
	assert.Panics(t, func() { backend.Conv2D(x, w, nil, tensor.Square(1), tensor.Square(0)) })
}

func TestConv2D_PreservesDType(t *testing.T) {
	backend := New()
	x := tensor.Single.Cast(tensor.Full(tensor.Shape{2, 2, 1, 1}, 1))
	w := tensor.Single.Cast(tensor.Full(tensor.Shape{1, 1, 1, 1}, 2))

	out := backend.Conv2D(x, w, nil, tensor.Square(1), tensor.Square(0))
	assert.Equal(t, tensor.Float32, out.DType())
}
