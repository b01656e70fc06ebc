package data

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/convnet/internal/tensor"
)

// IDX magic numbers.
const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049
)

// Header limits, checked before anything is allocated.
const (
	maxIDXCount = 1 << 24
	maxIDXSide  = 1 << 12
)

func checkIDXDim(name string, v, limit int) error {
	if v <= 0 || v > limit {
		return fmt.Errorf("invalid %s %d: must be in [1, %d]", name, v, limit)
	}
	return nil
}

// Dataset is a set of observations with one-hot responses.
type Dataset struct {
	X      *tensor.Tensor // [H W 1 N], pixels scaled to [0, 1]
	Y      *tensor.Tensor // [1 1 K N]
	Labels []int
}

// LoadIDX loads an image file and a label file in IDX format, the format
// of the MNIST distribution, keeping at most maxSamples observations
// (0 keeps all).
func LoadIDX(imagesPath, labelsPath string, classes, maxSamples int) (*Dataset, error) {
	imagesFile, err := os.Open(imagesPath)
	if err != nil {
		return nil, err
	}
	defer imagesFile.Close()

	labelsFile, err := os.Open(labelsPath)
	if err != nil {
		return nil, err
	}
	defer labelsFile.Close()

	x, err := ReadIDXImages(imagesFile, maxSamples)
	if err != nil {
		return nil, fmt.Errorf("load images %s: %w", imagesPath, err)
	}
	labels, err := ReadIDXLabels(labelsFile, maxSamples)
	if err != nil {
		return nil, fmt.Errorf("load labels %s: %w", labelsPath, err)
	}
	if len(labels) != x.Shape().N() {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", x.Shape().N(), len(labels))
	}
	y, err := OneHot(labels, classes)
	if err != nil {
		return nil, err
	}
	return &Dataset{X: x, Y: y, Labels: labels}, nil
}

// ReadIDXImages reads IDX images as a [rows cols 1 N] tensor.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255), row-major
func ReadIDXImages(r io.Reader, maxSamples int) (*tensor.Tensor, error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header[0] != idxImagesMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", header[0], idxImagesMagic)
	}
	n, rows, cols := int(header[1]), int(header[2]), int(header[3])
	if err := checkIDXDim("image count", n, maxIDXCount); err != nil {
		return nil, err
	}
	if err := checkIDXDim("row count", rows, maxIDXSide); err != nil {
		return nil, err
	}
	if err := checkIDXDim("column count", cols, maxIDXSide); err != nil {
		return nil, err
	}
	if maxSamples > 0 && n > maxSamples {
		n = maxSamples
	}

	x := tensor.Zeros(tensor.Shape{rows, cols, 1, n})
	xd := x.Data()
	pixels := make([]byte, rows*cols)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, pixels); err != nil {
			return nil, fmt.Errorf("failed to read image %d: %w", i, err)
		}
		for j, p := range pixels {
			xd[i*len(pixels)+j] = float64(p) / 255
		}
	}
	return x, nil
}

// ReadIDXLabels reads IDX labels.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes
func ReadIDXLabels(r io.Reader, maxSamples int) ([]int, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header[0] != idxLabelsMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", header[0], idxLabelsMagic)
	}
	n := int(header[1])
	if err := checkIDXDim("label count", n, maxIDXCount); err != nil {
		return nil, err
	}
	if maxSamples > 0 && n > maxSamples {
		n = maxSamples
	}

	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	labels := make([]int, n)
	for i, b := range raw {
		labels[i] = int(b)
	}
	return labels, nil
}

// Split returns the first n observations and the remaining ones.
func (d *Dataset) Split(n int) (*Dataset, *Dataset, error) {
	total := len(d.Labels)
	if n <= 0 || n >= total {
		return nil, nil, fmt.Errorf("split at %d: need 0 < n < %d", n, total)
	}
	head := &Dataset{
		X:      d.X.SliceObservations(0, n),
		Y:      d.Y.SliceObservations(0, n),
		Labels: d.Labels[:n:n],
	}
	tail := &Dataset{
		X:      d.X.SliceObservations(n, total),
		Y:      d.Y.SliceObservations(n, total),
		Labels: d.Labels[n:],
	}
	return head, tail, nil
}
