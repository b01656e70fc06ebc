package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// parameterNames are the state dict suffixes of a layer's parameters, in
// LearnableParameters order.
var parameterNames = []string{"Weights", "Bias"}

func stateKey(layer string, param int) string {
	return layer + "." + parameterNames[param]
}

// StateDict returns the host value of every initialized learnable
// parameter keyed by "<layer>.Weights" and "<layer>.Bias".
//
// The tensors are shared with the network; clone them before mutating.
func (net *SeriesNetwork) StateDict() map[string]*tensor.Tensor {
	dict := make(map[string]*tensor.Tensor)
	for _, l := range net.layers {
		for i, p := range l.LearnableParameters() {
			if !p.IsEmpty() {
				dict[stateKey(l.Name(), i)] = p.Host()
			}
		}
	}
	return dict
}

// StateKeys returns the state dict keys of every learnable parameter, in
// LearnableParameters order.
func (net *SeriesNetwork) StateKeys() []string {
	var keys []string
	for _, l := range net.layers {
		for i := range l.LearnableParameters() {
			keys = append(keys, stateKey(l.Name(), i))
		}
	}
	return keys
}

// LoadStateDict returns a network whose parameters hold copies of the
// dict values. Every learnable parameter must have an entry of the right
// shape; extra entries are an error too.
func (net *SeriesNetwork) LoadStateDict(dict map[string]*tensor.Tensor) (*SeriesNetwork, error) {
	used := 0
	out := make([]Layer, len(net.layers))
	for li, l := range net.layers {
		params := l.LearnableParameters()
		if len(params) == 0 {
			out[li] = l
			continue
		}
		loaded := make([]Parameter, len(params))
		for i, p := range params {
			key := stateKey(l.Name(), i)
			value, ok := dict[key]
			if !ok {
				return nil, fmt.Errorf("load state dict: missing %q", key)
			}
			loaded[i] = p.WithValue(value.Clone())
			used++
		}
		replaced, err := replaceParameters(l, loaded)
		if err != nil {
			return nil, fmt.Errorf("load state dict: %w", err)
		}
		out[li] = replaced
	}
	if used != len(dict) {
		return nil, fmt.Errorf("load state dict: %d entries, network has %d parameters", len(dict), used)
	}
	return &SeriesNetwork{layers: out}, nil
}

// replaceParameters turns a parameter shape violation into an error.
func replaceParameters(l Layer, params []Parameter) (out Layer, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && errors.Is(e, ErrParameterSize) {
				err = e
				return
			}
			panic(r)
		}
	}()
	return l.withLearnableParameters(params), nil
}
