package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

// lrnWindow returns the channel range [lo, hi] normalizing channel c.
// Even window sizes extend one channel further forward than backward.
func lrnWindow(c, channels, size int) (int, int) {
	lo := max(c-(size-1)/2, 0)
	hi := min(c+size/2, channels-1)
	return lo, hi
}

func checkLRN(op string, p tensor.LRNParams) {
	if p.WindowSize <= 0 {
		panic(fmt.Sprintf("%s: invalid window size %d", op, p.WindowSize))
	}
}

// lrnScale fills s with K + Alpha/WindowSize * sum of squares over each
// channel's window at one (h, w) position. Channels are plane elements apart.
func lrnScale(s, xd []float64, base, plane int, p tensor.LRNParams) {
	channels := len(s)
	for c := 0; c < channels; c++ {
		lo, hi := lrnWindow(c, channels, p.WindowSize)
		var sq float64
		for k := lo; k <= hi; k++ {
			v := xd[base+k*plane]
			sq += v * v
		}
		s[c] = p.K + p.Alpha/float64(p.WindowSize)*sq
	}
}

// LRN applies cross-channel local response normalization.
func (cpu *CPUBackend) LRN(x *tensor.Tensor, p tensor.LRNParams) *tensor.Tensor {
	checkLRN("lrn", p)
	shape := x.Shape()
	out := cpu.result(shape, x)

	xd, od := x.Data(), out.Data()
	plane := shape.H() * shape.W()
	parallel.ForObservations(shape.N(), func(n int) {
		s := make([]float64, shape.C())
		for pos := 0; pos < plane; pos++ {
			base := n*shape.C()*plane + pos
			lrnScale(s, xd, base, plane, p)
			for c := range s {
				od[base+c*plane] = xd[base+c*plane] * math.Pow(s[c], -p.Beta)
			}
		}
	})

	return out
}

// LRNBackward computes the input gradient of LRN:
//
//	dx_j = dz_j s_j^-b - 2ab/n x_j sum_{c : j in window(c)} dz_c x_c s_c^(-b-1)
func (cpu *CPUBackend) LRNBackward(x, _, dz *tensor.Tensor, p tensor.LRNParams) *tensor.Tensor {
	checkLRN("lrn backward", p)
	shape := x.Shape()
	dx := cpu.result(shape, x)

	xd, dzd, dxd := x.Data(), dz.Data(), dx.Data()
	plane := shape.H() * shape.W()
	coef := 2 * p.Alpha * p.Beta / float64(p.WindowSize)
	parallel.ForObservations(shape.N(), func(n int) {
		s := make([]float64, shape.C())
		acc := make([]float64, shape.C())
		for pos := 0; pos < plane; pos++ {
			base := n*shape.C()*plane + pos
			lrnScale(s, xd, base, plane, p)
			for c := range acc {
				acc[c] = 0
			}
			for c := range s {
				t := dzd[base+c*plane] * xd[base+c*plane] * math.Pow(s[c], -p.Beta-1)
				lo, hi := lrnWindow(c, len(s), p.WindowSize)
				for j := lo; j <= hi; j++ {
					acc[j] += t
				}
			}
			for j := range s {
				o := base + j*plane
				dxd[o] = dzd[o]*math.Pow(s[j], -p.Beta) - coef*xd[o]*acc[j]
			}
		}
	})

	return dx
}
