package tensor

import "fmt"

// Tensor is a dense height x width x channel x observation array.
//
// Elements are stored observation-major, then channel, row and column, so
// one observation (and, within it, one channel plane) is contiguous:
//
//	offset(h, w, c, n) = ((n*C + c)*H + h)*W + w
//
// The device tag records where the value is resident. Host memory always
// mirrors the data so kernels without a device implementation can run.
type Tensor struct {
	shape  Shape
	data   []float64
	dtype  DataType
	device Device
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Size returns the per-observation size.
func (t *Tensor) Size() Size {
	return t.shape.Size()
}

// DType returns the tensor's data type.
func (t *Tensor) DType() DataType {
	return t.dtype
}

// Device returns the device the tensor is resident on.
func (t *Tensor) Device() Device {
	return t.device
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// Data returns the backing slice.
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Tensor) Data() []float64 {
	return t.data
}

// Offset returns the flat index of element (h, w, c, n).
func (t *Tensor) Offset(h, w, c, n int) int {
	s := t.shape
	return ((n*s[2]+c)*s[0]+h)*s[1] + w
}

// At returns the element at (h, w, c, n).
// Panics if indices are out of bounds.
func (t *Tensor) At(h, w, c, n int) float64 {
	t.checkIndex(h, w, c, n)
	return t.data[t.Offset(h, w, c, n)]
}

// Set sets the element at (h, w, c, n).
// Panics if indices are out of bounds.
func (t *Tensor) Set(value float64, h, w, c, n int) {
	t.checkIndex(h, w, c, n)
	t.data[t.Offset(h, w, c, n)] = value
}

func (t *Tensor) checkIndex(idx ...int) {
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", v, i, t.shape[i]))
		}
	}
}

// Clone creates a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: t.shape, data: data, dtype: t.dtype, device: t.device}
}

// OnDevice returns a deep copy of the tensor resident on device d.
func (t *Tensor) OnDevice(d Device) *Tensor {
	out := t.Clone()
	out.device = d
	return out
}

// ZerosLike returns a zero tensor with t's shape, data type and device.
func (t *Tensor) ZerosLike() *Tensor {
	out := Zeros(t.shape)
	out.dtype = t.dtype
	out.device = t.device
	return out
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.dtype, t.shape, t.device)
}
