package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

// poolGeometry captures the sizes shared by the pooling kernels.
type poolGeometry struct {
	n, c, h, w  int
	pool        tensor.Pair
	stride, pad tensor.Pair
	hOut, wOut  int
}

func newPoolGeometry(op string, x tensor.Shape, pool, stride, padding tensor.Pair) poolGeometry {
	if pool[0] <= 0 || pool[1] <= 0 {
		panic(fmt.Sprintf("%s: invalid pool size %v", op, pool))
	}
	if stride[0] <= 0 || stride[1] <= 0 {
		panic(fmt.Sprintf("%s: invalid stride %v", op, stride))
	}
	if padding[0] < 0 || padding[1] < 0 {
		panic(fmt.Sprintf("%s: invalid padding %v", op, padding))
	}
	out := tensor.OutputSpatial(x.H(), x.W(), pool, stride, padding)
	if out[0] <= 0 || out[1] <= 0 {
		panic(fmt.Sprintf("%s: pool size %v too large for input %dx%d", op, pool, x.H(), x.W()))
	}
	return poolGeometry{
		n: x.N(), c: x.C(), h: x.H(), w: x.W(),
		pool: pool, stride: stride, pad: padding,
		hOut: out[0], wOut: out[1],
	}
}

// window calls f(offset) for every in-bounds input position of the window
// producing output (oh, ow) in the plane starting at base.
func (g poolGeometry) window(base, oh, ow int, f func(offset int)) {
	hStart := oh*g.stride[0] - g.pad[0]
	wStart := ow*g.stride[1] - g.pad[1]
	for i := 0; i < g.pool[0]; i++ {
		ih := hStart + i
		if ih < 0 || ih >= g.h {
			continue
		}
		for j := 0; j < g.pool[1]; j++ {
			iw := wStart + j
			if iw < 0 || iw >= g.w {
				continue
			}
			f(base + ih*g.w + iw)
		}
	}
}

// MaxPool2D takes the maximum of every pooling window.
//
// Input shape:  [H, W, C, N]
// Output shape: [HOut, WOut, C, N]
//
// Padding positions hold the most negative representable value, so they
// are never selected over a real input.
//
// Example (2x2 pool, stride=2):
//
//	Input: [[1,2,3,4],    Output: [[6,8],
//	        [5,6,7,8],             [14,16]]
//	        [9,10,11,12],
//	        [13,14,15,16]]
func (cpu *CPUBackend) MaxPool2D(x *tensor.Tensor, pool, stride, padding tensor.Pair) *tensor.Tensor {
	g := newPoolGeometry("maxpool2d", x.Shape(), pool, stride, padding)
	out := cpu.result(tensor.Shape{g.hOut, g.wOut, g.c, g.n}, x)

	xd, od := x.Data(), out.Data()
	parallel.ForBatch(g.n, g.c, func(n, c int) {
		base := (n*g.c + c) * g.h * g.w
		outBase := (n*g.c + c) * g.hOut * g.wOut
		for oh := 0; oh < g.hOut; oh++ {
			for ow := 0; ow < g.wOut; ow++ {
				best := -math.MaxFloat64
				g.window(base, oh, ow, func(off int) {
					if xd[off] > best {
						best = xd[off]
					}
				})
				od[outBase+oh*g.wOut+ow] = best
			}
		}
	})

	return out
}

// MaxPool2DBackward routes every output gradient to the input position that
// produced the window maximum (the first one in scan order on ties).
func (cpu *CPUBackend) MaxPool2DBackward(x, z, dz *tensor.Tensor, pool, stride, padding tensor.Pair) *tensor.Tensor {
	g := newPoolGeometry("maxpool2d backward", x.Shape(), pool, stride, padding)
	dx := cpu.result(x.Shape(), x)

	xd, zd, dzd, dxd := x.Data(), z.Data(), dz.Data(), dx.Data()
	parallel.ForBatch(g.n, g.c, func(n, c int) {
		base := (n*g.c + c) * g.h * g.w
		outBase := (n*g.c + c) * g.hOut * g.wOut
		for oh := 0; oh < g.hOut; oh++ {
			for ow := 0; ow < g.wOut; ow++ {
				o := outBase + oh*g.wOut + ow
				selected := -1
				g.window(base, oh, ow, func(off int) {
					if selected < 0 && xd[off] == zd[o] {
						selected = off
					}
				})
				if selected >= 0 {
					dxd[selected] += dzd[o]
				}
			}
		}
	})

	return dx
}

// AvgPool2D averages every pooling window. Padding counts as zero and the
// sum is always divided by the full window area.
func (cpu *CPUBackend) AvgPool2D(x *tensor.Tensor, pool, stride, padding tensor.Pair) *tensor.Tensor {
	g := newPoolGeometry("avgpool2d", x.Shape(), pool, stride, padding)
	out := cpu.result(tensor.Shape{g.hOut, g.wOut, g.c, g.n}, x)

	area := float64(pool.Area())
	xd, od := x.Data(), out.Data()
	parallel.ForBatch(g.n, g.c, func(n, c int) {
		base := (n*g.c + c) * g.h * g.w
		outBase := (n*g.c + c) * g.hOut * g.wOut
		for oh := 0; oh < g.hOut; oh++ {
			for ow := 0; ow < g.wOut; ow++ {
				var sum float64
				g.window(base, oh, ow, func(off int) {
					sum += xd[off]
				})
				od[outBase+oh*g.wOut+ow] = sum / area
			}
		}
	})

	return out
}

// AvgPool2DBackward spreads every output gradient evenly over its window.
func (cpu *CPUBackend) AvgPool2DBackward(x, dz *tensor.Tensor, pool, stride, padding tensor.Pair) *tensor.Tensor {
	g := newPoolGeometry("avgpool2d backward", x.Shape(), pool, stride, padding)
	dx := cpu.result(x.Shape(), x)

	area := float64(pool.Area())
	dzd, dxd := dz.Data(), dx.Data()
	parallel.ForBatch(g.n, g.c, func(n, c int) {
		base := (n*g.c + c) * g.h * g.w
		outBase := (n*g.c + c) * g.hOut * g.wOut
		for oh := 0; oh < g.hOut; oh++ {
			for ow := 0; ow < g.wOut; ow++ {
				share := dzd[outBase+oh*g.wOut+ow] / area
				g.window(base, oh, ow, func(off int) {
					dxd[off] += share
				})
			}
		}
	})

	return dx
}
