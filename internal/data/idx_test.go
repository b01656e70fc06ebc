package data

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/tensor"
)

func idxImages(t *testing.T, n, rows, cols int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{idxImagesMagic, uint32(n), uint32(rows), uint32(cols)}))
	for i := 0; i < n*rows*cols; i++ {
		buf.WriteByte(byte(i % 256))
	}
	return buf.Bytes()
}

func idxLabels(t *testing.T, labels ...byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{idxLabelsMagic, uint32(len(labels))}))
	buf.Write(labels)
	return buf.Bytes()
}

func TestReadIDXImages(t *testing.T) {
	x, err := ReadIDXImages(bytes.NewReader(idxImages(t, 3, 2, 2)), 0)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2, 1, 3}, x.Shape())
	assert.InDelta(t, 9.0/255, x.At(0, 1, 0, 2), 1e-12)

	x, err = ReadIDXImages(bytes.NewReader(idxImages(t, 3, 2, 2)), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, x.Shape().N())

	_, err = ReadIDXImages(bytes.NewReader(idxLabels(t, 1, 2)), 0)
	assert.ErrorContains(t, err, "magic")

	truncated := idxImages(t, 3, 2, 2)
	_, err = ReadIDXImages(bytes.NewReader(truncated[:len(truncated)-1]), 0)
	assert.Error(t, err)
}

func TestReadIDXImages_InvalidHeader(t *testing.T) {
	tests := []struct {
		name             string
		n, rows, cols    uint32
		wantErrSubstring string
	}{
		{"no images", 0, 28, 28, "image count"},
		{"no rows", 1, 0, 28, "row count"},
		{"no columns", 1, 28, 0, "column count"},
		{"too many images", maxIDXCount + 1, 28, 28, "image count"},
		{"huge rows", 1, maxIDXSide + 1, 28, "row count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{idxImagesMagic, tt.n, tt.rows, tt.cols}))
			_, err := ReadIDXImages(&buf, 0)
			assert.ErrorContains(t, err, tt.wantErrSubstring)
		})
	}
}

func TestReadIDXLabels_InvalidCount(t *testing.T) {
	for _, n := range []uint32{0, maxIDXCount + 1, 1<<32 - 1} {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{idxLabelsMagic, n}))
		_, err := ReadIDXLabels(&buf, 0)
		assert.ErrorContains(t, err, "label count", "count %d", n)
	}
}

func TestReadIDXLabels(t *testing.T) {
	labels, err := ReadIDXLabels(bytes.NewReader(idxLabels(t, 3, 1, 4)), 0)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 4}, labels)

	_, err = ReadIDXLabels(bytes.NewReader(idxImages(t, 1, 1, 1)), 0)
	assert.ErrorContains(t, err, "magic")
}

func TestLoadIDX(t *testing.T) {
	dir := t.TempDir()
	images, labels := filepath.Join(dir, "images"), filepath.Join(dir, "labels")
	require.NoError(t, os.WriteFile(images, idxImages(t, 2, 3, 3), 0o600))
	require.NoError(t, os.WriteFile(labels, idxLabels(t, 1, 0), 0o600))

	ds, err := LoadIDX(images, labels, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 3, 1, 2}, ds.X.Shape())
	assert.Equal(t, []int{1, 0}, ds.Labels)
	assert.Equal(t, []float64{0, 1, 1, 0}, ds.Y.Data())

	_, err = LoadIDX(images, labels, 1, 0)
	assert.Error(t, err, "label 1 is out of range for one class")

	_, err = LoadIDX(filepath.Join(dir, "missing"), labels, 2, 0)
	assert.Error(t, err)
}

func TestDatasetSplit(t *testing.T) {
	d := Synthetic(tensor.Size{4, 4, 1}, 2, 5, 0, rand.New(rand.NewSource(1)))

	head, tail, err := d.Split(3)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 4, 1, 3}, head.X.Shape())
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, tail.Y.Shape())
	assert.Equal(t, d.Labels[:3], head.Labels)
	assert.Equal(t, d.Labels[3:], tail.Labels)
	assert.Equal(t, d.X.At(1, 2, 0, 3), tail.X.At(1, 2, 0, 0))

	_, _, err = d.Split(0)
	assert.Error(t, err)
	_, _, err = d.Split(5)
	assert.Error(t, err)
}
