package webgpu

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/backend/cpu"
	"github.com/born-ml/convnet/internal/tensor"
)

var _ tensor.Backend = (*Backend)(nil)

// deviceOrSkip returns the shared backend or skips when no device exists.
func deviceOrSkip(t *testing.T) *Backend {
	t.Helper()
	b, err := Probe()
	if err != nil {
		require.True(t, errors.Is(err, ErrUnavailable), "unexpected probe error: %v", err)
		t.Skipf("WebGPU not available: %v", err)
	}
	return b
}

func TestProbeIsStable(t *testing.T) {
	b1, err1 := Probe()
	b2, err2 := Probe()
	assert.Same(t, b1, b2)
	assert.Equal(t, err1, err2)
}

func TestBackendIdentity(t *testing.T) {
	b := deviceOrSkip(t)
	assert.Equal(t, "WebGPU", b.Name())
	assert.Equal(t, tensor.WebGPU, b.Device())

	x := tensor.Full(tensor.Shape{1, 2, 1, 1}, 1)
	assert.Equal(t, tensor.WebGPU, b.ToDevice(x).Device())
	assert.Equal(t, tensor.CPU, b.ToHost(b.ToDevice(x)).Device())
}

func TestKernelsMatchHost(t *testing.T) {
	b := deviceOrSkip(t)
	host := cpu.New()
	rng := rand.New(rand.NewSource(1))
	const tol = 1e-4

	x := tensor.Single.Cast(tensor.Randn(tensor.Shape{6, 5, 3, 2}, 1, rng))
	w := tensor.Single.Cast(tensor.Randn(tensor.Shape{3, 2, 3, 4}, 1, rng))
	bias := tensor.Single.Cast(tensor.Randn(tensor.Shape{1, 1, 4, 1}, 1, rng))
	stride, pad := tensor.Pair{2, 1}, tensor.Pair{1, 1}

	got := b.Conv2D(x, w, bias, stride, pad)
	assert.Equal(t, tensor.WebGPU, got.Device())
	assert.InDeltaSlice(t, host.Conv2D(x, w, bias, stride, pad).Data(), got.Data(), tol)

	fw := tensor.Single.Cast(tensor.Randn(tensor.Shape{6, 5, 3, 7}, 1, rng))
	assert.InDeltaSlice(t, host.FullyConnected(x, fw, nil).Data(), b.FullyConnected(x, fw, nil).Data(), tol)

	pool := tensor.Square(3)
	assert.InDeltaSlice(t,
		host.MaxPool2D(x, pool, stride, pad).Data(),
		b.MaxPool2D(x, pool, stride, pad).Data(), tol)
	assert.InDeltaSlice(t,
		host.AvgPool2D(x, pool, stride, pad).Data(),
		b.AvgPool2D(x, pool, stride, pad).Data(), tol)

	assert.InDeltaSlice(t, host.ReLU(x).Data(), b.ReLU(x).Data(), tol)
	dz := tensor.Single.Cast(tensor.Randn(x.Shape(), 1, rng))
	assert.InDeltaSlice(t, host.ReLUBackward(x, dz).Data(), b.ReLUBackward(x, dz).Data(), tol)

	z := host.Softmax(x)
	assert.InDeltaSlice(t, z.Data(), b.Softmax(x).Data(), tol)
	assert.InDeltaSlice(t, host.SoftmaxBackward(z, dz).Data(), b.SoftmaxBackward(z, dz).Data(), tol)
}
