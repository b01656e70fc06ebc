package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

// convGeometry captures the sizes shared by the forward and backward
// convolution kernels.
type convGeometry struct {
	n, c, h, w    int
	fh, fw, f     int
	stride, pad   tensor.Pair
	hOut, wOut    int
	k, spatial    int // im2col width (C*FH*FW) and height (HOut*WOut)
	inObs, outObs int
}

func newConvGeometry(op string, x, weights tensor.Shape, stride, padding tensor.Pair) convGeometry {
	if x.C() != weights.C() {
		panic(fmt.Sprintf("%s: input channels %d != filter channels %d", op, x.C(), weights.C()))
	}
	if stride[0] <= 0 || stride[1] <= 0 {
		panic(fmt.Sprintf("%s: invalid stride %v", op, stride))
	}
	if padding[0] < 0 || padding[1] < 0 {
		panic(fmt.Sprintf("%s: invalid padding %v", op, padding))
	}
	out := tensor.OutputSpatial(x.H(), x.W(), tensor.Pair{weights.H(), weights.W()}, stride, padding)
	if out[0] <= 0 || out[1] <= 0 {
		panic(fmt.Sprintf("%s: invalid output dimensions %v (check stride/padding)", op, out))
	}
	g := convGeometry{
		n: x.N(), c: x.C(), h: x.H(), w: x.W(),
		fh: weights.H(), fw: weights.W(), f: weights.N(),
		stride: stride, pad: padding,
		hOut: out[0], wOut: out[1],
	}
	g.k = g.c * g.fh * g.fw
	g.spatial = g.hOut * g.wOut
	g.inObs = g.c * g.h * g.w
	g.outObs = g.f * g.spatial
	return g
}

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape:  [H, W, C, N]
// Filter shape: [FH, FW, C, F]
// Bias shape:   [1, 1, F, 1] (may be nil)
// Output shape: [HOut, WOut, F, N]
//
// Per observation:
//  1. Im2col: input -> [HOut*WOut, C*FH*FW]
//  2. The filters are already a row-major [F, C*FH*FW] matrix
//  3. GEMM: [F, C*FH*FW] x col^T -> [F, HOut*WOut], which is exactly the
//     observation's output block
//
// Reference: "High Performance Convolutional Neural Networks for Document Processing"
// (Chellapilla et al., 2006).
func (cpu *CPUBackend) Conv2D(x, weights, bias *tensor.Tensor, stride, padding tensor.Pair) *tensor.Tensor {
	g := newConvGeometry("conv2d", x.Shape(), weights.Shape(), stride, padding)
	out := cpu.result(tensor.Shape{g.hOut, g.wOut, g.f, g.n}, x)

	xd, od := x.Data(), out.Data()
	wm := blas64.General{Rows: g.f, Cols: g.k, Stride: g.k, Data: weights.Data()}

	parallel.ForObservations(g.n, func(n int) {
		col := g.im2col(xd[n*g.inObs : (n+1)*g.inObs])
		z := blas64.General{Rows: g.f, Cols: g.spatial, Stride: g.spatial, Data: od[n*g.outObs : (n+1)*g.outObs]}
		blas64.Gemm(blas.NoTrans, blas.Trans, 1, wm, col, 0, z)
		if bias != nil {
			bd := bias.Data()
			for f := 0; f < g.f; f++ {
				row := z.Data[f*g.spatial : (f+1)*g.spatial]
				for i := range row {
					row[i] += bd[f]
				}
			}
		}
	})

	return out
}

// im2col transforms one observation into its column matrix.
//
// Each row corresponds to one output position, each column to one filter
// weight. Positions falling into the padding read zero.
func (g convGeometry) im2col(src []float64) blas64.General {
	col := blas64.General{Rows: g.spatial, Cols: g.k, Stride: g.k, Data: make([]float64, g.spatial*g.k)}

	row := 0
	for oh := 0; oh < g.hOut; oh++ {
		for ow := 0; ow < g.wOut; ow++ {
			hStart := oh*g.stride[0] - g.pad[0]
			wStart := ow*g.stride[1] - g.pad[1]
			buf := col.Data[row*g.k : (row+1)*g.k]
			idx := 0
			for c := 0; c < g.c; c++ {
				for i := 0; i < g.fh; i++ {
					ih := hStart + i
					for j := 0; j < g.fw; j++ {
						iw := wStart + j
						if ih >= 0 && ih < g.h && iw >= 0 && iw < g.w {
							buf[idx] = src[(c*g.h+ih)*g.w+iw]
						}
						idx++
					}
				}
			}
			row++
		}
	}

	return col
}

// col2im scatters a column matrix back onto one observation, summing
// overlapping windows. Padding positions are dropped.
func (g convGeometry) col2im(col blas64.General, dst []float64) {
	row := 0
	for oh := 0; oh < g.hOut; oh++ {
		for ow := 0; ow < g.wOut; ow++ {
			hStart := oh*g.stride[0] - g.pad[0]
			wStart := ow*g.stride[1] - g.pad[1]
			buf := col.Data[row*g.k : (row+1)*g.k]
			idx := 0
			for c := 0; c < g.c; c++ {
				for i := 0; i < g.fh; i++ {
					ih := hStart + i
					for j := 0; j < g.fw; j++ {
						iw := wStart + j
						if ih >= 0 && ih < g.h && iw >= 0 && iw < g.w {
							dst[(c*g.h+ih)*g.w+iw] += buf[idx]
						}
						idx++
					}
				}
			}
			row++
		}
	}
}
