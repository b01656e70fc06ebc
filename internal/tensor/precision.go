package tensor

// Precision is the numeric precision policy applied to initial weights and
// to training hyperparameters before any arithmetic touches them.
type Precision struct {
	dtype DataType
}

// Precision policies.
var (
	Single = Precision{dtype: Float32}
	Double = Precision{dtype: Float64}
)

// DType returns the data type the policy casts to.
func (p Precision) DType() DataType {
	return p.dtype
}

// Cast returns a copy of t tagged with the policy's data type, every element
// rounded to it.
func (p Precision) Cast(t *Tensor) *Tensor {
	out := t.Clone()
	out.dtype = p.dtype
	if p.dtype == Float32 {
		for i, v := range out.data {
			out.data[i] = float64(float32(v))
		}
	}
	return out
}

// CastScalar rounds v to the policy's data type.
func (p Precision) CastScalar(v float64) float64 {
	return p.dtype.Round(v)
}

// String returns "single" or "double".
func (p Precision) String() string {
	if p.dtype == Float32 {
		return "single"
	}
	return "double"
}
