package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/born-ml/convnet/internal/tensor"
)

func sampleTensors() map[string]*tensor.Tensor {
	w := tensor.Zeros(tensor.Shape{2, 3, 1, 4})
	for i := range w.Data() {
		w.Data()[i] = float64(i)*0.25 - 1
	}
	b := tensor.MustFromSlice([]float64{0.1, 0.2, 0.3, 0.4}, tensor.Shape{1, 1, 4, 1})
	return map[string]*tensor.Tensor{
		"fc_2.Weights": w,
		"fc_2.Bias":    tensor.Single.Cast(b),
	}
}

func TestSafeTensorsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	want := sampleTensors()

	if err := WriteSafeTensors(path, want, map[string]string{"note": "test"}); err != nil {
		t.Fatalf("WriteSafeTensors failed: %v", err)
	}
	got, meta, err := ReadSafeTensors(path)
	if err != nil {
		t.Fatalf("ReadSafeTensors failed: %v", err)
	}

	if meta["note"] != "test" {
		t.Errorf("metadata note = %q, want %q", meta["note"], "test")
	}
	if _, ok := meta[checksumKey]; ok {
		t.Errorf("checksum should not be returned as metadata")
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tensors, want %d", len(got), len(want))
	}
	for name, w := range want {
		g, ok := got[name]
		if !ok {
			t.Fatalf("tensor %q missing", name)
		}
		if g.Shape() != w.Shape() {
			t.Errorf("%s: shape %v, want %v", name, g.Shape(), w.Shape())
		}
		if g.DType() != w.DType() {
			t.Errorf("%s: dtype %v, want %v", name, g.DType(), w.DType())
		}
		for i, v := range w.Data() {
			if g.Data()[i] != v {
				t.Errorf("%s[%d] = %v, want %v", name, i, g.Data()[i], v)
			}
		}
	}
}

func TestEncode_HeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleTensors(), nil); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	raw := buf.Bytes()
	size := binary.LittleEndian.Uint64(raw[:8])

	var header map[string]json.RawMessage
	if err := json.Unmarshal(raw[8:8+size], &header); err != nil {
		t.Fatalf("header is not JSON: %v", err)
	}
	var bias, weights TensorHeader
	if err := json.Unmarshal(header["fc_2.Bias"], &bias); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(header["fc_2.Weights"], &weights); err != nil {
		t.Fatal(err)
	}

	// Name order: Bias (4 x F32) first, then Weights (24 x F64).
	if bias.DType != DTypeF32 || bias.DataOffsets != [2]int64{0, 16} {
		t.Errorf("bias header = %+v", bias)
	}
	if weights.DType != DTypeF64 || weights.DataOffsets != [2]int64{16, 16 + 24*8} {
		t.Errorf("weights header = %+v", weights)
	}
	wantShape := []int64{4, 1, 2, 3}
	for i, d := range wantShape {
		if weights.Shape[i] != d {
			t.Fatalf("weights shape = %v, want %v", weights.Shape, wantShape)
		}
	}
	if uint64(len(raw)) != 8+size+16+24*8 {
		t.Errorf("file length %d does not match header", len(raw))
	}
}

func TestDecode_ChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleTensors(), nil); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xFF

	_, _, err := Decode(bytes.NewReader(raw))
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestDecode_HeaderTooLarge(t *testing.T) {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint64(MaxHeaderSize+1))

	_, _, err := Decode(&buf)
	if !errors.Is(err, ErrHeaderTooLarge) {
		t.Errorf("expected ErrHeaderTooLarge, got %v", err)
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	var buf bytes.Buffer
	header := []byte("{not json")
	_ = binary.Write(&buf, binary.LittleEndian, uint64(len(header)))
	buf.Write(header)

	_, _, err := Decode(&buf)
	if !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestDecode_Truncated(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleTensors(), nil); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	raw := buf.Bytes()

	_, _, err := Decode(bytes.NewReader(raw[:len(raw)-8]))
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Type != "out_of_bounds" {
		t.Errorf("expected out_of_bounds validation error, got %v", err)
	}
}

func TestEncode_RejectsInvalidName(t *testing.T) {
	var buf bytes.Buffer
	tensors := map[string]*tensor.Tensor{"../escape": tensor.Zeros(tensor.Shape{1, 1, 1, 1})}
	if err := Encode(&buf, tensors, nil); err == nil {
		t.Error("expected an error for a path traversal name")
	}
}

func TestTensorShape_PadsLeadingOnes(t *testing.T) {
	s, err := tensorShape([]int64{3, 5})
	if err != nil {
		t.Fatal(err)
	}
	if want := (tensor.Shape{3, 5, 1, 1}); s != want {
		t.Errorf("tensorShape([3 5]) = %v, want %v", s, want)
	}
	if _, err := tensorShape([]int64{1, 2, 3, 4, 5}); err == nil {
		t.Error("expected an error for five dimensions")
	}
}
