package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/convnet/internal/tensor"
)

// fcMatrices views x as [N, H*W*C] and weights as [O, H*W*C]. Both layouts
// order an observation's elements identically, so no copy is needed.
func fcMatrices(op string, x, weights *tensor.Tensor) (blas64.General, blas64.General) {
	if x.Size() != weights.Size() {
		panic(fmt.Sprintf("%s: input size %v does not match weights size %v", op, x.Size(), weights.Size()))
	}
	k := x.Size().NumElements()
	xm := blas64.General{Rows: x.Shape().N(), Cols: k, Stride: k, Data: x.Data()}
	wm := blas64.General{Rows: weights.Shape().N(), Cols: k, Stride: k, Data: weights.Data()}
	return xm, wm
}

// FullyConnected computes z = W x + b for every observation.
//
// Input shape:   [H, W, C, N]
// Weights shape: [H, W, C, O]
// Output shape:  [1, 1, O, N]
func (cpu *CPUBackend) FullyConnected(x, weights, bias *tensor.Tensor) *tensor.Tensor {
	xm, wm := fcMatrices("fully connected", x, weights)
	out := cpu.result(tensor.Shape{1, 1, wm.Rows, xm.Rows}, x)

	zm := blas64.General{Rows: xm.Rows, Cols: wm.Rows, Stride: wm.Rows, Data: out.Data()}
	blas64.Gemm(blas.NoTrans, blas.Trans, 1, xm, wm, 0, zm)

	if bias != nil {
		bd := bias.Data()
		for n := 0; n < zm.Rows; n++ {
			row := zm.Data[n*zm.Stride : (n+1)*zm.Stride]
			for o := range row {
				row[o] += bd[o]
			}
		}
	}

	return out
}

// FullyConnectedBackwardData computes dX = dZ W.
func (cpu *CPUBackend) FullyConnectedBackwardData(x, weights, dz *tensor.Tensor) *tensor.Tensor {
	xm, wm := fcMatrices("fully connected backward data", x, weights)
	dx := cpu.result(x.Shape(), x)

	dzm := blas64.General{Rows: xm.Rows, Cols: wm.Rows, Stride: wm.Rows, Data: dz.Data()}
	dxm := blas64.General{Rows: xm.Rows, Cols: xm.Cols, Stride: xm.Stride, Data: dx.Data()}
	blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, dzm, wm, 0, dxm)

	return dx
}

// FullyConnectedBackwardWeights computes dW = dZ^T X, summed over observations.
func (cpu *CPUBackend) FullyConnectedBackwardWeights(x, weights, dz *tensor.Tensor) *tensor.Tensor {
	xm, wm := fcMatrices("fully connected backward weights", x, weights)
	dw := cpu.result(weights.Shape(), x)

	dzm := blas64.General{Rows: xm.Rows, Cols: wm.Rows, Stride: wm.Rows, Data: dz.Data()}
	dwm := blas64.General{Rows: wm.Rows, Cols: wm.Cols, Stride: wm.Stride, Data: dw.Data()}
	blas64.Gemm(blas.Trans, blas.NoTrans, 1, dzm, xm, 0, dwm)

	return dw
}
