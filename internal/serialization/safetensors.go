package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"

	"github.com/born-ml/convnet/internal/tensor"
)

// SafeTensorsWriter writes tensors to a SafeTensors file.
type SafeTensorsWriter struct {
	file   *os.File
	closed bool
}

// NewSafeTensorsWriter creates a new SafeTensors file writer.
func NewSafeTensorsWriter(path string) (*SafeTensorsWriter, error) {
	//nolint:gosec // G304: the checkpoint path is chosen by the user
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &SafeTensorsWriter{file: file}, nil
}

// WriteSafeTensors writes tensors and metadata to path.
func WriteSafeTensors(path string, tensors map[string]*tensor.Tensor, metadata map[string]string) error {
	w, err := NewSafeTensorsWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteStateDict(tensors, metadata); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// WriteStateDict writes a state dictionary to the file.
func (w *SafeTensorsWriter) WriteStateDict(tensors map[string]*tensor.Tensor, metadata map[string]string) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	return Encode(w.file, tensors, metadata)
}

// Close closes the writer and the underlying file.
func (w *SafeTensorsWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// Encode writes tensors and metadata to out in SafeTensors format. Tensors
// are laid out in name order; the data checksum is added to the metadata.
func Encode(out io.Writer, tensors map[string]*tensor.Tensor, metadata map[string]string) error {
	names := slices.Sorted(maps.Keys(tensors))

	header := make(map[string]any, len(names)+1)
	var data bytes.Buffer
	for _, name := range names {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		t := tensors[name]
		begin := int64(data.Len())
		encodeData(&data, t)
		header[name] = TensorHeader{
			DType:       toSafeTensors(t.DType()),
			Shape:       fileShape(t.Shape()),
			DataOffsets: [2]int64{begin, int64(data.Len())},
		}
	}

	meta := make(map[string]string, len(metadata)+1)
	maps.Copy(meta, metadata)
	meta[checksumKey] = checksumHex(data.Bytes())
	header[metadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if err := binary.Write(out, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := out.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := out.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

func encodeData(buf *bytes.Buffer, t *tensor.Tensor) {
	var b [8]byte
	for _, v := range t.Data() {
		if t.DType() == tensor.Float32 {
			binary.LittleEndian.PutUint32(b[:4], math.Float32bits(float32(v)))
			buf.Write(b[:4])
		} else {
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
			buf.Write(b[:])
		}
	}
}

// ReadSafeTensors reads every tensor and the metadata of a SafeTensors
// file.
func ReadSafeTensors(path string) (map[string]*tensor.Tensor, map[string]string, error) {
	//nolint:gosec // G304: the checkpoint path is chosen by the user
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return Decode(file)
}

// Decode reads a SafeTensors stream. The header is validated before any
// tensor is built, and the checksum is verified when present.
func Decode(in io.Reader) (map[string]*tensor.Tensor, map[string]string, error) {
	var headerSize uint64
	if err := binary.Read(in, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, nil, ErrHeaderTooLarge
	}
	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(in, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	var metadata map[string]string
	entries := make(map[string]TensorHeader, len(raw))
	for name, msg := range raw {
		if name == metadataKey {
			if err := json.Unmarshal(msg, &metadata); err != nil {
				return nil, nil, fmt.Errorf("%w: metadata: %w", ErrInvalidHeader, err)
			}
			continue
		}
		var e TensorHeader
		if err := json.Unmarshal(msg, &e); err != nil {
			return nil, nil, fmt.Errorf("%w: tensor %q: %w", ErrInvalidHeader, name, err)
		}
		entries[name] = e
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if err := ValidateHeader(entries, int64(len(data))); err != nil {
		return nil, nil, fmt.Errorf("validation failed: %w", err)
	}
	if sum, ok := metadata[checksumKey]; ok {
		if err := ValidateChecksum(data, sum); err != nil {
			return nil, nil, err
		}
	}

	tensors := make(map[string]*tensor.Tensor, len(entries))
	for name, e := range entries {
		tensors[name] = decodeTensor(resolve(name, e), data)
	}
	delete(metadata, checksumKey)
	return tensors, metadata, nil
}

func decodeTensor(c checkedTensor, data []byte) *tensor.Tensor {
	src := data[c.off[0]:c.off[1]]
	values := make([]float64, c.shape.NumElements())
	for i := range values {
		if c.dtype == tensor.Float32 {
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(src[4*i:])))
		} else {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(src[8*i:]))
		}
	}
	t := tensor.MustFromSlice(values, c.shape)
	if c.dtype == tensor.Float32 {
		t = tensor.Single.Cast(t)
	}
	return t
}
