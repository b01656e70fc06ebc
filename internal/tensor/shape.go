package tensor

import "fmt"

// Shape holds the four tensor dimensions: height, width, channels and
// observations.
type Shape [4]int

// NewShape builds a shape from a per-observation size and a batch count.
func NewShape(size Size, observations int) Shape {
	return Shape{size[0], size[1], size[2], observations}
}

// H returns the height.
func (s Shape) H() int { return s[0] }

// W returns the width.
func (s Shape) W() int { return s[1] }

// C returns the channel count.
func (s Shape) C() int { return s[2] }

// N returns the observation count.
func (s Shape) N() int { return s[3] }

// Size returns the per-observation size.
func (s Shape) Size() Size {
	return Size{s[0], s[1], s[2]}
}

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	return s[0] * s[1] * s[2] * s[3]
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// String formats the shape as HxWxCxN.
func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%dx%d", s[0], s[1], s[2], s[3])
}

// Size is the shape of one observation: height, width, channels.
type Size [3]int

// H returns the height.
func (s Size) H() int { return s[0] }

// W returns the width.
func (s Size) W() int { return s[1] }

// C returns the channel count.
func (s Size) C() int { return s[2] }

// NumElements returns height*width*channels.
func (s Size) NumElements() int {
	return s[0] * s[1] * s[2]
}

// String formats the size as HxWxC.
func (s Size) String() string {
	return fmt.Sprintf("%dx%dx%d", s[0], s[1], s[2])
}

// Pair is a [vertical horizontal] hyperparameter such as a filter size,
// stride or padding.
type Pair [2]int

// Square returns the pair {v, v}.
func Square(v int) Pair {
	return Pair{v, v}
}

// Area returns the product of both components.
func (p Pair) Area() int {
	return p[0] * p[1]
}

// OutputSpatial computes the spatial output size of a sliding window of the
// given size, stride and symmetric padding over an input of height h and
// width w:
//
//	out = (in + 2*padding - window) / stride + 1
func OutputSpatial(h, w int, window, stride, padding Pair) Pair {
	return Pair{
		(h+2*padding[0]-window[0])/stride[0] + 1,
		(w+2*padding[1]-window[1])/stride[1] + 1,
	}
}
