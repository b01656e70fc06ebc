package tensor

import "fmt"

func mustSameShape(op string, a, b *Tensor) {
	if a.shape != b.shape {
		panic(fmt.Sprintf("%s: shape mismatch: %v vs %v", op, a.shape, b.shape))
	}
}

// Element-wise operations keep t's data type and device and round every
// result to the data type.

// Add returns the element-wise sum t + other.
func (t *Tensor) Add(other *Tensor) *Tensor {
	mustSameShape("add", t, other)
	out := t.Clone()
	for i, v := range other.data {
		out.data[i] = out.dtype.Round(out.data[i] + v)
	}
	return out
}

// Sub returns the element-wise difference t - other.
func (t *Tensor) Sub(other *Tensor) *Tensor {
	mustSameShape("sub", t, other)
	out := t.Clone()
	for i, v := range other.data {
		out.data[i] = out.dtype.Round(out.data[i] - v)
	}
	return out
}

// Mul returns the element-wise product t * other.
func (t *Tensor) Mul(other *Tensor) *Tensor {
	mustSameShape("mul", t, other)
	out := t.Clone()
	for i, v := range other.data {
		out.data[i] = out.dtype.Round(out.data[i] * v)
	}
	return out
}

// Scale returns t multiplied by a scalar.
func (t *Tensor) Scale(s float64) *Tensor {
	out := t.Clone()
	for i := range out.data {
		out.data[i] = out.dtype.Round(out.data[i] * s)
	}
	return out
}

// AddInPlace adds other into t element-wise.
func (t *Tensor) AddInPlace(other *Tensor) {
	mustSameShape("add", t, other)
	for i, v := range other.data {
		t.data[i] = t.dtype.Round(t.data[i] + v)
	}
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float64 {
	var s float64
	for _, v := range t.data {
		s += v
	}
	return s
}

// SliceChannels returns a copy of channels [from, to).
func (t *Tensor) SliceChannels(from, to int) *Tensor {
	s := t.shape
	if from < 0 || to > s[2] || from >= to {
		panic(fmt.Sprintf("slice channels: invalid range [%d, %d) for %d channels", from, to, s[2]))
	}
	out := Zeros(Shape{s[0], s[1], to - from, s[3]})
	out.dtype, out.device = t.dtype, t.device
	plane := s[0] * s[1]
	for n := 0; n < s[3]; n++ {
		src := t.data[(n*s[2]+from)*plane : (n*s[2]+to)*plane]
		copy(out.data[n*(to-from)*plane:], src)
	}
	return out
}

// SliceObservations returns a copy of observations [from, to).
func (t *Tensor) SliceObservations(from, to int) *Tensor {
	s := t.shape
	if from < 0 || to > s[3] || from >= to {
		panic(fmt.Sprintf("slice observations: invalid range [%d, %d) for %d observations", from, to, s[3]))
	}
	obs := s.Size().NumElements()
	out := Zeros(Shape{s[0], s[1], s[2], to - from})
	out.dtype, out.device = t.dtype, t.device
	copy(out.data, t.data[from*obs:to*obs])
	return out
}

// ConcatChannels concatenates a and b along the channel axis.
func ConcatChannels(a, b *Tensor) *Tensor {
	sa, sb := a.shape, b.shape
	if sa[0] != sb[0] || sa[1] != sb[1] || sa[3] != sb[3] {
		panic(fmt.Sprintf("concat channels: incompatible shapes %v and %v", sa, sb))
	}
	out := Zeros(Shape{sa[0], sa[1], sa[2] + sb[2], sa[3]})
	out.dtype, out.device = a.dtype, a.device
	plane := sa[0] * sa[1]
	na, nb := sa[2]*plane, sb[2]*plane
	for n := 0; n < sa[3]; n++ {
		dst := out.data[n*(na+nb):]
		copy(dst, a.data[n*na:(n+1)*na])
		copy(dst[na:], b.data[n*nb:(n+1)*nb])
	}
	return out
}

// ConcatObservations concatenates a and b along the observation axis.
func ConcatObservations(a, b *Tensor) *Tensor {
	if a.shape.Size() != b.shape.Size() {
		panic(fmt.Sprintf("concat observations: incompatible shapes %v and %v", a.shape, b.shape))
	}
	out := Zeros(Shape{a.shape[0], a.shape[1], a.shape[2], a.shape[3] + b.shape[3]})
	out.dtype, out.device = a.dtype, a.device
	copy(out.data, a.data)
	copy(out.data[len(a.data):], b.data)
	return out
}

// ArgmaxChannels returns, for every (h, w, n) position, the index of the
// largest channel. The result is ordered by n, then h, then w.
func (t *Tensor) ArgmaxChannels() []int {
	s := t.shape
	out := make([]int, 0, s[0]*s[1]*s[3])
	for n := 0; n < s[3]; n++ {
		for h := 0; h < s[0]; h++ {
			for w := 0; w < s[1]; w++ {
				best, bestC := t.data[t.Offset(h, w, 0, n)], 0
				for c := 1; c < s[2]; c++ {
					if v := t.data[t.Offset(h, w, c, n)]; v > best {
						best, bestC = v, c
					}
				}
				out = append(out, bestC)
			}
		}
	}
	return out
}
