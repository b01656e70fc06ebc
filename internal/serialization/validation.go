package serialization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/convnet/internal/tensor"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

// ValidateTensorName rejects names that could escape a directory when used
// as a file name, or that hide content behind a null byte.
func ValidateTensorName(name string) error {
	switch {
	case name == "":
		return &ValidationError{Type: "invalid_name", Details: "empty tensor name"}
	case len(name) > MaxTensorNameLen:
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	case strings.Contains(name, ".."):
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains '..'"}
	case strings.ContainsAny(name, "/\\"):
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains path separator (/ or \\)"}
	case strings.Contains(name, "\x00"):
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains null byte"}
	case name == metadataKey:
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "reserved name"}
	}
	return nil
}

// ValidateHeader checks every entry's name, dtype and shape, and that the
// entries tile the data section of dataSize bytes without gaps or overlaps.
func ValidateHeader(entries map[string]TensorHeader, dataSize int64) error {
	if len(entries) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(entries), MaxTensorCount),
		}
	}

	names := make([]string, 0, len(entries))
	for name, e := range entries {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		if err := validateEntry(name, e); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return entries[names[i]].DataOffsets[0] < entries[names[j]].DataOffsets[0]
	})

	var end int64
	for i, name := range names {
		off := entries[name].DataOffsets
		if off[0] < end {
			return &ValidationError{
				Type:    "offset_overlap",
				Tensor:  names[i-1],
				Tensor2: name,
				Details: fmt.Sprintf("region [%d-%d] starts before %d", off[0], off[1], end),
			}
		}
		if off[0] > end {
			return &ValidationError{
				Type:    "gap",
				Tensor:  name,
				Details: fmt.Sprintf("data section bytes [%d-%d] unused", end, off[0]),
			}
		}
		end = off[1]
	}
	if end != dataSize {
		return &ValidationError{
			Type:    "out_of_bounds",
			Details: fmt.Sprintf("tensors cover %d bytes, data section has %d", end, dataSize),
		}
	}
	return nil
}

func validateEntry(name string, e TensorHeader) error {
	dtype, err := fromSafeTensors(e.DType)
	if err != nil {
		return &ValidationError{Type: "invalid_dtype", Tensor: name, Details: err.Error()}
	}
	shape, err := tensorShape(e.Shape)
	if err != nil {
		return &ValidationError{Type: "invalid_shape", Tensor: name, Details: err.Error()}
	}
	off := e.DataOffsets
	if off[0] < 0 || off[1] < off[0] {
		return &ValidationError{
			Type:    "negative_offset",
			Tensor:  name,
			Details: fmt.Sprintf("data offsets [%d, %d]", off[0], off[1]),
		}
	}
	if want := int64(shape.NumElements() * dtype.Size()); off[1]-off[0] != want {
		return &ValidationError{
			Type:    "size_mismatch",
			Tensor:  name,
			Details: fmt.Sprintf("%d bytes for %s %v, expected %d", off[1]-off[0], e.DType, shape, want),
		}
	}
	return nil
}

// checkedTensor is a header entry resolved to a tensor shape and type.
type checkedTensor struct {
	name  string
	dtype tensor.DataType
	shape tensor.Shape
	off   [2]int64
}

func resolve(name string, e TensorHeader) checkedTensor {
	dtype, _ := fromSafeTensors(e.DType)
	shape, _ := tensorShape(e.Shape)
	return checkedTensor{name: name, dtype: dtype, shape: shape, off: e.DataOffsets}
}
