package serialization

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// SafeTensors dtype names.
const (
	DTypeF32 = "F32"
	DTypeF64 = "F64"
)

// Reserved header keys.
const (
	metadataKey = "__metadata__"
	checksumKey = "sha256"
)

// TensorHeader describes one tensor in the SafeTensors header.
type TensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// toSafeTensors returns the SafeTensors dtype of dt.
func toSafeTensors(dt tensor.DataType) string {
	if dt == tensor.Float32 {
		return DTypeF32
	}
	return DTypeF64
}

// fromSafeTensors returns the data type named s.
func fromSafeTensors(s string) (tensor.DataType, error) {
	switch s {
	case DTypeF32:
		return tensor.Float32, nil
	case DTypeF64:
		return tensor.Float64, nil
	default:
		return 0, fmt.Errorf("unsupported dtype %q", s)
	}
}

// fileShape lists the dimensions of s outermost first.
func fileShape(s tensor.Shape) []int64 {
	return []int64{int64(s.N()), int64(s.C()), int64(s.H()), int64(s.W())}
}

// tensorShape converts a stored shape back. Shapes of fewer than four
// dimensions are padded with leading ones.
func tensorShape(dims []int64) (tensor.Shape, error) {
	if len(dims) > 4 {
		return tensor.Shape{}, fmt.Errorf("%d dimensions, at most 4 supported", len(dims))
	}
	full := [4]int64{1, 1, 1, 1}
	copy(full[4-len(dims):], dims)
	s := tensor.Shape{int(full[2]), int(full[3]), int(full[1]), int(full[0])}
	if err := s.Validate(); err != nil {
		return tensor.Shape{}, err
	}
	return s, nil
}
