package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/tensor"
)

const gradTol = 1e-5

func randTensor(shape tensor.Shape, seed int64) *tensor.Tensor {
	return tensor.Randn(shape, 1, rand.New(rand.NewSource(seed)))
}

func dot(a, b *tensor.Tensor) float64 {
	return a.Mul(b).Sum()
}

func numericGrad(x *tensor.Tensor, i int, loss func() float64) float64 {
	const h = 1e-6
	d := x.Data()
	orig := d[i]
	d[i] = orig + h
	plus := loss()
	d[i] = orig - h
	minus := loss()
	d[i] = orig
	return (plus - minus) / (2 * h)
}

func checkGrad(t *testing.T, name string, x, analytic *tensor.Tensor, loss func() float64) {
	t.Helper()
	require.Equal(t, x.Shape(), analytic.Shape(), "%s: gradient shape", name)
	for i := range x.Data() {
		want := numericGrad(x, i, loss)
		assert.InDelta(t, want, analytic.Data()[i], gradTol*math.Max(1, math.Abs(want)), "%s[%d]", name, i)
	}
}

// randomizeParameters overwrites every parameter value with N(0, 1) draws.
func randomizeParameters(l Layer, seed int64) {
	for i, p := range l.LearnableParameters() {
		v := p.Host()
		copy(v.Data(), randTensor(v.Shape(), seed+int64(i)).Data())
	}
}

// requireViolation runs f and checks it panics with an error wrapping
// sentinel.
func requireViolation(t *testing.T, sentinel error, f func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.ErrorIs(t, err, sentinel)
	}()
	f()
}
