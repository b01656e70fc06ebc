package tensor

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataTypeSize(t *testing.T) {
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 8, Float64.Size())
	assert.Equal(t, "float32", Float32.String())
}

func TestDataTypeEpsilon(t *testing.T) {
	assert.InDelta(t, 1.1920929e-07, Float32.Epsilon(), 1e-13)
	assert.InDelta(t, 2.220446049250313e-16, Float64.Epsilon(), 1e-30)
}

func TestOffsetLayout(t *testing.T) {
	x := Zeros(Shape{2, 3, 4, 5})
	// One observation is contiguous, channel planes inside it too.
	assert.Equal(t, 0, x.Offset(0, 0, 0, 0))
	assert.Equal(t, 1, x.Offset(0, 1, 0, 0))
	assert.Equal(t, 3, x.Offset(1, 0, 0, 0))
	assert.Equal(t, 6, x.Offset(0, 0, 1, 0))
	assert.Equal(t, 24, x.Offset(0, 0, 0, 1))

	x.Set(7, 1, 2, 3, 4)
	assert.Equal(t, 7.0, x.At(1, 2, 3, 4))
	assert.Panics(t, func() { x.At(2, 0, 0, 0) })
}

func TestFromSlice(t *testing.T) {
	_, err := FromSlice([]float64{1, 2, 3}, Shape{2, 2, 1, 1})
	require.Error(t, err)

	x, err := FromSlice([]float64{1, 2, 3, 4}, Shape{2, 2, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 4.0, x.At(1, 1, 0, 0))
}

func TestPrecisionCast(t *testing.T) {
	x := MustFromSlice([]float64{0.1, 1.0 / 3.0}, Shape{1, 1, 2, 1})

	s := Single.Cast(x)
	assert.Equal(t, Float32, s.DType())
	assert.Equal(t, float64(float32(0.1)), s.Data()[0])
	assert.Equal(t, 0.1, x.Data()[0], "cast must not modify its input")

	d := Double.Cast(x)
	assert.Equal(t, Float64, d.DType())
	assert.Equal(t, 1.0/3.0, d.Data()[1])
	assert.Equal(t, float64(float32(0.9)), Single.CastScalar(0.9))
}

func TestChannelSliceConcatRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := Randn(Shape{3, 2, 5, 4}, 1, rng)

	a := x.SliceChannels(0, 2)
	b := x.SliceChannels(2, 5)
	assert.Equal(t, Shape{3, 2, 2, 4}, a.Shape())
	assert.Equal(t, Shape{3, 2, 3, 4}, b.Shape())
	assert.Equal(t, x.At(2, 1, 3, 2), b.At(2, 1, 1, 2))

	assert.Equal(t, x.Data(), ConcatChannels(a, b).Data())
}

func TestObservationSlice(t *testing.T) {
	x := MustFromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{1, 1, 2, 3})
	y := x.SliceObservations(1, 3)
	assert.Equal(t, []float64{3, 4, 5, 6}, y.Data())
	assert.Equal(t, x.Data(), ConcatObservations(x.SliceObservations(0, 1), y).Data())
}

func TestArgmaxChannels(t *testing.T) {
	x := MustFromSlice([]float64{
		0.1, 0.7, 0.2,
		0.5, 0.4, 0.1,
	}, Shape{1, 1, 3, 2})
	assert.Equal(t, []int{1, 0}, x.ArgmaxChannels())
}

func TestOutputSpatial(t *testing.T) {
	assert.Equal(t, Pair{24, 24}, OutputSpatial(28, 28, Square(5), Square(1), Square(0)))
	assert.Equal(t, Pair{14, 7}, OutputSpatial(28, 14, Square(3), Pair{2, 2}, Square(1)))
}

func TestRandnStatistics(t *testing.T) {
	x := Randn(Shape{100, 100, 1, 1}, 0.01, rand.New(rand.NewSource(42)))
	mean := x.Sum() / float64(x.NumElements())
	var variance float64
	for _, v := range x.Data() {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(x.NumElements())
	assert.InDelta(t, 0, mean, 1e-3)
	assert.InDelta(t, 0.01, math.Sqrt(variance), 1e-3)
}
