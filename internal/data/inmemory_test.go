package data

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/tensor"
)

// labeled builds n 1x2x1 observations whose pixels are {i, -i} and whose
// response is the one-hot of i%3.
func labeled(t *testing.T, n int) (*tensor.Tensor, *tensor.Tensor) {
	t.Helper()
	x := tensor.Zeros(tensor.Shape{1, 2, 1, n})
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		x.Set(float64(i), 0, 0, 0, i)
		x.Set(-float64(i), 0, 1, 0, i)
		labels[i] = i % 3
	}
	y, err := OneHot(labels, 3)
	require.NoError(t, err)
	return x, y
}

func TestInMemory_Batches(t *testing.T) {
	x, y := labeled(t, 7)
	src, err := NewInMemory(x, y, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, src.NumObservations())
	assert.Equal(t, 3, src.NumBatches())

	var sizes []int
	var seen []float64
	src.Start()
	for !src.IsDone() {
		bx, by := src.Next()
		require.Equal(t, bx.Shape().N(), by.Shape().N())
		sizes = append(sizes, bx.Shape().N())
		for n := 0; n < bx.Shape().N(); n++ {
			seen = append(seen, bx.At(0, 0, 0, n))
		}
	}
	assert.Equal(t, []int{3, 3, 1}, sizes)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6}, seen)

	assert.Panics(t, func() { src.Next() })

	src.Start()
	assert.False(t, src.IsDone())
}

func TestInMemory_ShuffleKeepsPairs(t *testing.T) {
	x, y := labeled(t, 20)
	src, err := NewInMemory(x, y, 4, 7)
	require.NoError(t, err)
	src.Shuffle()

	var order []float64
	src.Start()
	for !src.IsDone() {
		bx, by := src.Next()
		for n := 0; n < bx.Shape().N(); n++ {
			i := bx.At(0, 0, 0, n)
			order = append(order, i)
			assert.Equal(t, -i, bx.At(0, 1, 0, n))
			assert.Equal(t, 1.0, by.At(0, 0, int(i)%3, n))
		}
	}
	require.Len(t, order, 20)
	assert.False(t, slices.IsSorted(order), "order is permuted")
	slices.Sort(order)
	for i, v := range order {
		assert.Equal(t, float64(i), v)
	}
}

func TestNewInMemory_Errors(t *testing.T) {
	x, y := labeled(t, 4)
	_, err := NewInMemory(x, y.SliceObservations(0, 3), 2, 0)
	assert.Error(t, err)
	_, err = NewInMemory(x, y, 0, 0)
	assert.Error(t, err)
}

func TestOneHot(t *testing.T) {
	y, err := OneHot([]int{2, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1, 3, 2}, y.Shape())
	assert.Equal(t, []float64{0, 0, 1, 1, 0, 0}, y.Data())

	_, err = OneHot([]int{3}, 3)
	assert.Error(t, err)
}

func TestSynthetic(t *testing.T) {
	ds := Synthetic(tensor.Size{8, 8, 1}, 4, 10, 0, rand.New(rand.NewSource(1)))
	assert.Equal(t, tensor.Shape{8, 8, 1, 10}, ds.X.Shape())
	assert.Equal(t, tensor.Shape{1, 1, 4, 10}, ds.Y.Shape())
	assert.Equal(t, []int{0, 1, 2, 3, 0, 1, 2, 3, 0, 1}, ds.Labels)
	want, err := OneHot(ds.Labels, 4)
	require.NoError(t, err)
	assert.Equal(t, want.Data(), ds.Y.Data())

	// Without noise class 1 lights rows 2 and 3 only.
	for h := 0; h < 8; h++ {
		want := 0.0
		if h == 2 || h == 3 {
			want = 0.8
		}
		assert.Equal(t, want, ds.X.At(h, 5, 0, 1), "row %d", h)
	}
}
