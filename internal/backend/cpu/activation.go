package cpu

import (
	"math"

	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

// Softmax normalizes across channels at every (h, w, n) position.
// Softmax(x_i) = exp(x_i - max) / sum(exp(x_j - max)).
func (cpu *CPUBackend) Softmax(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	out := cpu.result(shape, x)

	xd, od := x.Data(), out.Data()
	plane := shape.H() * shape.W()
	channels := shape.C()
	parallel.ForObservations(shape.N(), func(n int) {
		for pos := 0; pos < plane; pos++ {
			base := n*channels*plane + pos
			maxVal := math.Inf(-1)
			for c := 0; c < channels; c++ {
				maxVal = math.Max(maxVal, xd[base+c*plane])
			}
			var sum float64
			for c := 0; c < channels; c++ {
				e := math.Exp(xd[base+c*plane] - maxVal)
				od[base+c*plane] = e
				sum += e
			}
			for c := 0; c < channels; c++ {
				od[base+c*plane] /= sum
			}
		}
	})

	return out
}

// SoftmaxBackward computes dx = z * (dz - sum_c(z_c * dz_c)).
func (cpu *CPUBackend) SoftmaxBackward(z, dz *tensor.Tensor) *tensor.Tensor {
	shape := z.Shape()
	dx := cpu.result(shape, z)

	zd, dzd, dxd := z.Data(), dz.Data(), dx.Data()
	plane := shape.H() * shape.W()
	channels := shape.C()
	parallel.ForObservations(shape.N(), func(n int) {
		for pos := 0; pos < plane; pos++ {
			base := n*channels*plane + pos
			var dot float64
			for c := 0; c < channels; c++ {
				dot += zd[base+c*plane] * dzd[base+c*plane]
			}
			for c := 0; c < channels; c++ {
				o := base + c*plane
				dxd[o] = zd[o] * (dzd[o] - dot)
			}
		}
	})

	return dx
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.Tensor) *tensor.Tensor {
	out := cpu.result(x.Shape(), x)
	od := out.Data()
	for i, v := range x.Data() {
		if v > 0 {
			od[i] = v
		}
	}
	return out
}

// ReLUBackward passes dz where x > 0 and zero elsewhere.
func (cpu *CPUBackend) ReLUBackward(x, dz *tensor.Tensor) *tensor.Tensor {
	dx := cpu.result(x.Shape(), x)
	dxd, dzd := dx.Data(), dz.Data()
	for i, v := range x.Data() {
		if v > 0 {
			dxd[i] = dzd[i]
		}
	}
	return dx
}
