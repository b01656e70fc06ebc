package nn

import (
	"math/rand"
	"sync"
	"time"

	"github.com/born-ml/convnet/internal/tensor"
)

// weightSigma is the standard deviation of freshly drawn weights.
const weightSigma = 0.01

var (
	initMu   sync.Mutex
	initRand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // weight initialization is not security-critical
)

// SeedInitializer reseeds the random source used to draw initial weights.
func SeedInitializer(seed int64) {
	initMu.Lock()
	defer initMu.Unlock()
	initRand = rand.New(rand.NewSource(seed)) //nolint:gosec // weight initialization is not security-critical
}

// Gaussian creates a tensor drawn from N(0, sigma^2) with the initializer's
// random source.
func Gaussian(shape tensor.Shape, sigma float64) *tensor.Tensor {
	initMu.Lock()
	defer initMu.Unlock()
	return tensor.Randn(shape, sigma, initRand)
}

// initWeights returns p with a fresh N(0, 0.01^2) value when empty, and
// p cast to precision otherwise.
func initWeights(p Parameter, shape tensor.Shape, precision tensor.Precision) Parameter {
	if p.IsEmpty() {
		return p.WithValue(precision.Cast(Gaussian(shape, weightSigma)))
	}
	return p.cast(precision)
}

// initBias returns p zero-filled when empty, and p cast to precision
// otherwise.
func initBias(p Parameter, shape tensor.Shape, precision tensor.Precision) Parameter {
	if p.IsEmpty() {
		return p.WithValue(precision.Cast(tensor.Zeros(shape)))
	}
	return p.cast(precision)
}
