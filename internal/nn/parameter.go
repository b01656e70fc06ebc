package nn

import (
	"sync"

	"github.com/born-ml/convnet/internal/tensor"
)

// Representation selects how a Parameter stores its value.
type Representation int

const (
	// Training stores the value directly; it is updated in place every
	// iteration.
	Training Representation = iota
	// Prediction caches a device copy of the value on first read.
	Prediction
)

// String returns the representation name.
func (r Representation) String() string {
	if r == Prediction {
		return "prediction"
	}
	return "training"
}

// deviceCache holds the lazily populated device copy of a prediction value.
type deviceCache struct {
	mu sync.Mutex
	t  *tensor.Tensor
}

func (c *deviceCache) get(value *tensor.Tensor, device tensor.Backend) *tensor.Tensor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.t == nil {
		c.t = device.ToDevice(value)
	}
	return c.t
}

func (c *deviceCache) invalidate() {
	c.mu.Lock()
	c.t = nil
	c.mu.Unlock()
}

// Parameter is a learnable parameter: a value plus its learning-rate and L2
// multipliers.
//
// A parameter is either host only or device resident. Device resident
// prediction parameters hand kernels a device copy, created on first read
// and dropped whenever the value changes. Training parameters always hand
// out the value itself, which the trainer updates in place.
//
// Parameter values are immutable from the layer's point of view: every
// transformation returns a new Parameter.
type Parameter struct {
	value           *tensor.Tensor
	learnRateFactor float64
	l2Factor        float64
	repr            Representation
	device          tensor.Backend // nil when host only
	cache           *deviceCache
}

// NewParameter creates a training parameter. value may be nil until the
// layer initializes it.
func NewParameter(value *tensor.Tensor, learnRateFactor, l2Factor float64) Parameter {
	return Parameter{
		value:           value,
		learnRateFactor: learnRateFactor,
		l2Factor:        l2Factor,
		cache:           &deviceCache{},
	}
}

// IsEmpty reports whether the parameter has no value yet.
func (p Parameter) IsEmpty() bool {
	return p.value == nil
}

// Host returns the host value.
//
// WARNING: the trainer mutates this tensor in place during training.
func (p Parameter) Host() *tensor.Tensor {
	return p.value
}

// Value returns the value kernels should consume: the cached device copy
// for a device resident prediction parameter, the host value otherwise.
func (p Parameter) Value() *tensor.Tensor {
	if p.value == nil || p.repr != Prediction || p.device == nil {
		return p.value
	}
	return p.cache.get(p.value, p.device)
}

// LearnRateFactor returns the learning-rate multiplier.
func (p Parameter) LearnRateFactor() float64 {
	return p.learnRateFactor
}

// L2Factor returns the L2 regularization multiplier.
func (p Parameter) L2Factor() float64 {
	return p.l2Factor
}

// Representation returns the current representation.
func (p Parameter) Representation() Representation {
	return p.repr
}

// IsDeviceResident reports whether the parameter lives on a device.
func (p Parameter) IsDeviceResident() bool {
	return p.device != nil
}

// WithValue returns the parameter holding value, with any device copy
// invalidated.
func (p Parameter) WithValue(value *tensor.Tensor) Parameter {
	p.value = value
	p.cache = &deviceCache{}
	return p
}

// WithFactors returns the parameter with new multipliers.
func (p Parameter) WithFactors(learnRateFactor, l2Factor float64) Parameter {
	p.learnRateFactor = learnRateFactor
	p.l2Factor = l2Factor
	return p
}

// ForTraining returns the training representation. The value is copied to
// the host.
func (p Parameter) ForTraining() Parameter {
	return p.convert(Training)
}

// ForPrediction returns the prediction representation.
func (p Parameter) ForPrediction() Parameter {
	return p.convert(Prediction)
}

func (p Parameter) convert(r Representation) Parameter {
	out := p.WithValue(nil)
	out.repr = r
	if p.value != nil {
		out.value = p.value.OnDevice(tensor.CPU)
	}
	return out
}

// OnDevice returns a copy of the parameter resident on device.
func (p Parameter) OnDevice(device tensor.Backend) Parameter {
	out := p.WithValue(p.cloneValue())
	out.device = device
	return out
}

// OnHost returns a copy of the parameter with device use disabled.
func (p Parameter) OnHost() Parameter {
	out := p.WithValue(p.cloneValue())
	out.device = nil
	return out
}

// cloneValue copies the value so a placed parameter never shares the
// tensor that add mutates.
func (p Parameter) cloneValue() *tensor.Tensor {
	if p.value == nil {
		return nil
	}
	return p.value.Clone()
}

// cast returns the parameter with its value converted to precision.
func (p Parameter) cast(precision tensor.Precision) Parameter {
	return p.WithValue(precision.Cast(p.value))
}

// add adds delta to the value in place.
func (p Parameter) add(delta *tensor.Tensor) {
	p.value.AddInPlace(delta)
	p.cache.invalidate()
}

// checkValue panics with ErrParameterSize unless value has shape want.
func checkValue(layer, param string, value *tensor.Tensor, want tensor.Shape) {
	if value != nil && value.Shape() != want {
		violation(ErrParameterSize, "%s: %s shape %v, expected %v", layer, param, value.Shape(), want)
	}
}
