package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

func checkGradShape(op string, g convGeometry, dz *tensor.Tensor) {
	want := tensor.Shape{g.hOut, g.wOut, g.f, g.n}
	if dz.Shape() != want {
		panic(fmt.Sprintf("%s: gradient shape %v, expected %v", op, dz.Shape(), want))
	}
}

// Conv2DBackwardData computes the gradient with respect to the input.
//
// Per observation the column gradient is dz^T x filters, then col2im folds
// it back onto the input positions that produced each window.
func (cpu *CPUBackend) Conv2DBackwardData(x, weights, dz *tensor.Tensor, stride, padding tensor.Pair) *tensor.Tensor {
	g := newConvGeometry("conv2d backward data", x.Shape(), weights.Shape(), stride, padding)
	checkGradShape("conv2d backward data", g, dz)
	dx := cpu.result(x.Shape(), x)

	dxd, dzd := dx.Data(), dz.Data()
	wm := blas64.General{Rows: g.f, Cols: g.k, Stride: g.k, Data: weights.Data()}

	parallel.ForObservations(g.n, func(n int) {
		dzm := blas64.General{Rows: g.f, Cols: g.spatial, Stride: g.spatial, Data: dzd[n*g.outObs : (n+1)*g.outObs]}
		col := blas64.General{Rows: g.spatial, Cols: g.k, Stride: g.k, Data: make([]float64, g.spatial*g.k)}
		blas64.Gemm(blas.Trans, blas.NoTrans, 1, dzm, wm, 0, col)
		g.col2im(col, dxd[n*g.inObs:(n+1)*g.inObs])
	})

	return dx
}

// Conv2DBackwardFilter computes the gradient with respect to the filters,
// summed over the observations of the batch.
func (cpu *CPUBackend) Conv2DBackwardFilter(x, weights, dz *tensor.Tensor, stride, padding tensor.Pair) *tensor.Tensor {
	g := newConvGeometry("conv2d backward filter", x.Shape(), weights.Shape(), stride, padding)
	checkGradShape("conv2d backward filter", g, dz)
	dw := cpu.result(weights.Shape(), x)

	xd, dzd := x.Data(), dz.Data()
	dwm := blas64.General{Rows: g.f, Cols: g.k, Stride: g.k, Data: dw.Data()}

	for n := 0; n < g.n; n++ {
		col := g.im2col(xd[n*g.inObs : (n+1)*g.inObs])
		dzm := blas64.General{Rows: g.f, Cols: g.spatial, Stride: g.spatial, Data: dzd[n*g.outObs : (n+1)*g.outObs]}
		blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, dzm, col, 1, dwm)
	}

	return dw
}

// Conv2DBackwardBias sums dz over height, width and observations.
// Output shape: [1, 1, C, 1].
func (cpu *CPUBackend) Conv2DBackwardBias(dz *tensor.Tensor) *tensor.Tensor {
	s := dz.Shape()
	db := cpu.result(tensor.Shape{1, 1, s.C(), 1}, dz)

	dzd, dbd := dz.Data(), db.Data()
	plane := s.H() * s.W()
	for n := 0; n < s.N(); n++ {
		for c := 0; c < s.C(); c++ {
			base := (n*s.C() + c) * plane
			var sum float64
			for _, v := range dzd[base : base+plane] {
				sum += v
			}
			dbd[c] += sum
		}
	}

	return db
}
