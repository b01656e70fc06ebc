// Package tensor provides the 4-D tensor type, shapes, precision policies and
// the kernel contract shared by the host and device backends.
package tensor

import "math"

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float64 DataType = iota
	Float32
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// Epsilon returns the machine epsilon of the data type.
func (dt DataType) Epsilon() float64 {
	if dt == Float32 {
		return float64(math.Nextafter32(1, 2) - 1)
	}
	return math.Nextafter(1, 2) - 1
}

// Round rounds v to the nearest value representable in the data type.
func (dt DataType) Round(v float64) float64 {
	if dt == Float32 {
		return float64(float32(v))
	}
	return v
}
