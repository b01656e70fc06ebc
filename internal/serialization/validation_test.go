package serialization

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateTensorName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "conv_1.Weights", false},
		{"empty", "", true},
		{"traversal", "a..b", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"null byte", "a\x00b", true},
		{"reserved", metadataKey, true},
		{"too long", strings.Repeat("a", MaxTensorNameLen+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTensorName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func entry(dtype string, shape []int64, begin, end int64) TensorHeader {
	return TensorHeader{DType: dtype, Shape: shape, DataOffsets: [2]int64{begin, end}}
}

func TestValidateHeader(t *testing.T) {
	tests := []struct {
		name     string
		entries  map[string]TensorHeader
		dataSize int64
		wantType string
	}{
		{
			name: "valid",
			entries: map[string]TensorHeader{
				"a": entry(DTypeF32, []int64{2}, 0, 8),
				"b": entry(DTypeF64, []int64{1, 1, 2, 1}, 8, 24),
			},
			dataSize: 24,
		},
		{
			name: "overlap",
			entries: map[string]TensorHeader{
				"a": entry(DTypeF32, []int64{2}, 0, 8),
				"b": entry(DTypeF32, []int64{2}, 4, 12),
			},
			dataSize: 12,
			wantType: "offset_overlap",
		},
		{
			name: "gap",
			entries: map[string]TensorHeader{
				"a": entry(DTypeF32, []int64{2}, 0, 8),
				"b": entry(DTypeF32, []int64{2}, 12, 20),
			},
			dataSize: 20,
			wantType: "gap",
		},
		{
			name:     "out of bounds",
			entries:  map[string]TensorHeader{"a": entry(DTypeF32, []int64{2}, 0, 8)},
			dataSize: 4,
			wantType: "out_of_bounds",
		},
		{
			name:     "size mismatch",
			entries:  map[string]TensorHeader{"a": entry(DTypeF64, []int64{2}, 0, 8)},
			dataSize: 8,
			wantType: "size_mismatch",
		},
		{
			name:     "unknown dtype",
			entries:  map[string]TensorHeader{"a": entry("BF16", []int64{2}, 0, 4)},
			dataSize: 4,
			wantType: "invalid_dtype",
		},
		{
			name:     "negative offset",
			entries:  map[string]TensorHeader{"a": entry(DTypeF32, []int64{2}, 8, 0)},
			dataSize: 8,
			wantType: "negative_offset",
		},
		{
			name:     "zero dimension",
			entries:  map[string]TensorHeader{"a": entry(DTypeF32, []int64{0}, 0, 0)},
			dataSize: 0,
			wantType: "invalid_shape",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHeader(tt.entries, tt.dataSize)
			if tt.wantType == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Type != tt.wantType {
				t.Errorf("error type = %q, want %q", verr.Type, tt.wantType)
			}
		})
	}
}
