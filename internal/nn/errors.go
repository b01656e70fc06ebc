package nn

import (
	"errors"
	"fmt"
)

// Sentinel errors. Contract violations panic with an error wrapping one of
// these, so callers recovering the panic can match it with errors.Is.
var (
	// ErrInvalidOperation is raised by Backward or Gradients on a layer
	// that has nothing upstream (input) or computes a loss (output).
	ErrInvalidOperation = errors.New("nn: invalid operation")

	// ErrSizeNotDetermined is raised when a size-dependent operation runs
	// before InferSize resolved the layer's input size.
	ErrSizeNotDetermined = errors.New("nn: size not determined")

	// ErrParameterSize is raised when a parameter is assigned a value of
	// the wrong shape.
	ErrParameterSize = errors.New("nn: parameter size mismatch")

	// ErrDeltaCount is raised when a network update receives a number of
	// deltas different from its learnable parameter count.
	ErrDeltaCount = errors.New("nn: delta count mismatch")

	// ErrInvalidNetwork is returned when layers cannot form a series network.
	ErrInvalidNetwork = errors.New("nn: invalid network")
)

func violation(sentinel error, format string, args ...any) {
	panic(fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)))
}
