package nn

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/born-ml/convnet/internal/tensor"
)

// Normalizations applied by ImageInput.
const (
	NormalizationZeroCenter = "zerocenter"
	NormalizationNone       = "none"
)

// Training-time augmentations applied by ImageInput.
const (
	AugmentationFlipLR = "randfliplr"
	AugmentationCrop   = "randcrop"
)

// ImageInput is the first layer of every network. It declares the input
// size and owns the data transforms: augmentations at training time, center
// cropping at prediction time and normalization in both.
//
// The layer itself is the identity; the network applies its transforms
// before the first layer runs.
type ImageInput struct {
	stateless
	inputSize     tensor.Size
	normalization string
	augmentations []string
	averageImage  *tensor.Tensor
	rng           *rand.Rand
}

// NewImageInput creates an input layer for observations of the given size,
// zero-center normalized and without augmentations.
func NewImageInput(size tensor.Size) ImageInput {
	for i, d := range size {
		if d <= 0 {
			panic(fmt.Sprintf("image input: invalid dimension %d at index %d", d, i))
		}
	}
	return ImageInput{
		stateless:     newStateless(),
		inputSize:     size,
		normalization: NormalizationZeroCenter,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // augmentation is not security-critical
	}
}

// WithName returns the layer with a name.
func (l ImageInput) WithName(name string) ImageInput {
	l.name = name
	return l
}

// WithNormalization returns the layer with a normalization,
// NormalizationZeroCenter or NormalizationNone.
func (l ImageInput) WithNormalization(normalization string) ImageInput {
	switch normalization {
	case NormalizationZeroCenter, NormalizationNone:
	default:
		panic(fmt.Sprintf("image input: unknown normalization %q", normalization))
	}
	l.normalization = normalization
	return l
}

// WithAugmentations returns the layer with training-time augmentations,
// any of AugmentationFlipLR and AugmentationCrop.
func (l ImageInput) WithAugmentations(augmentations ...string) ImageInput {
	for _, a := range augmentations {
		if a != AugmentationFlipLR && a != AugmentationCrop {
			panic(fmt.Sprintf("image input: unknown augmentation %q", a))
		}
	}
	l.augmentations = slices.Clone(augmentations)
	return l
}

// WithAverageImage returns the layer with the image subtracted by
// zero-center normalization. avg must be [H W C 1] matching the input size.
func (l ImageInput) WithAverageImage(avg *tensor.Tensor) ImageInput {
	checkValue("image input", "AverageImage", avg, tensor.NewShape(l.inputSize, 1))
	l.averageImage = avg
	return l
}

// WithRand returns the layer drawing augmentations from r.
func (l ImageInput) WithRand(r *rand.Rand) ImageInput {
	l.rng = r
	return l
}

// InputSize returns the declared observation size.
func (l ImageInput) InputSize() tensor.Size { return l.inputSize }

// Normalization returns the normalization name.
func (l ImageInput) Normalization() string { return l.normalization }

// Augmentations returns the training-time augmentations.
func (l ImageInput) Augmentations() []string { return slices.Clone(l.augmentations) }

// AverageImage returns the zero-center image, nil if not yet computed.
func (l ImageInput) AverageImage() *tensor.Tensor { return l.averageImage }

// NeedsAverageImage reports whether normalization requires an average
// image that is not set yet.
func (l ImageInput) NeedsAverageImage() bool {
	return l.normalization == NormalizationZeroCenter && l.averageImage == nil
}

// Kind returns "imageinput".
func (l ImageInput) Kind() string { return "imageinput" }

// Forward returns x unchanged.
func (l ImageInput) Forward(x *tensor.Tensor) (*tensor.Tensor, any) { return x, nil }

// Predict returns x unchanged.
func (l ImageInput) Predict(x *tensor.Tensor) *tensor.Tensor { return x }

// Backward panics: nothing is upstream of the input layer.
func (l ImageInput) Backward(_, _, _ *tensor.Tensor, _ any) *tensor.Tensor {
	violation(ErrInvalidOperation, "%s: backward on an input layer", l.name)
	return nil
}

// Gradients panics: nothing is upstream of the input layer.
func (l ImageInput) Gradients(_, _ *tensor.Tensor) []*tensor.Tensor {
	violation(ErrInvalidOperation, "%s: gradients on an input layer", l.name)
	return nil
}

// ForwardPropagateSize returns the declared input size.
func (l ImageInput) ForwardPropagateSize(tensor.Size) tensor.Size { return l.inputSize }

// InferSize returns the layer unchanged.
func (l ImageInput) InferSize(tensor.Size) Layer { return l }

// IsValidInputSize reports whether in is the declared input size.
func (l ImageInput) IsValidInputSize(in tensor.Size) bool { return in == l.inputSize }

// InitializeLearnableParameters returns the layer unchanged.
func (l ImageInput) InitializeLearnableParameters(tensor.Precision) Layer { return l }

// PrepareForTraining returns the layer unchanged.
func (l ImageInput) PrepareForTraining() Layer { return l }

// PrepareForPrediction returns the layer unchanged.
func (l ImageInput) PrepareForPrediction() Layer { return l }

// SetupForHostPrediction returns the layer on the host backend.
func (l ImageInput) SetupForHostPrediction() Layer {
	l.stateless = l.onHost()
	return l
}

// SetupForGPUPrediction returns the layer on device.
func (l ImageInput) SetupForGPUPrediction(device tensor.Backend) Layer {
	l.stateless = l.onDevice(device)
	return l
}

func (l ImageInput) String() string {
	return fmt.Sprintf("%s images with '%s' normalization", l.inputSize, l.normalization)
}

func (l ImageInput) withName(name string) Layer { return l.WithName(name) }

func (l ImageInput) withLearnableParameters(params []Parameter) Layer {
	checkNoParameters(l.name, params)
	return l
}

// PredictionTransform center-crops x to the input size and normalizes it.
func (l ImageInput) PredictionTransform(x *tensor.Tensor) *tensor.Tensor {
	return l.normalize(l.CenterCrop(x))
}

// TrainingTransform applies the augmentations to x and normalizes it. Data
// larger than the input size is randomly cropped with AugmentationCrop and
// center-cropped otherwise.
func (l ImageInput) TrainingTransform(x *tensor.Tensor) *tensor.Tensor {
	if slices.Contains(l.augmentations, AugmentationCrop) {
		x = l.randomCrop(x)
	} else {
		x = l.CenterCrop(x)
	}
	if slices.Contains(l.augmentations, AugmentationFlipLR) {
		x = l.randomFlip(x)
	}
	return l.normalize(x)
}

// CenterCrop crops every observation of x to the input size around its
// center. Data already of the input size is returned as is.
func (l ImageInput) CenterCrop(x *tensor.Tensor) *tensor.Tensor {
	dh, dw := l.cropMargins(x)
	if dh == 0 && dw == 0 {
		return x
	}
	return l.crop(x, func(int) (int, int) { return dh / 2, dw / 2 })
}

func (l ImageInput) randomCrop(x *tensor.Tensor) *tensor.Tensor {
	dh, dw := l.cropMargins(x)
	if dh == 0 && dw == 0 {
		return x
	}
	return l.crop(x, func(int) (int, int) { return l.rng.Intn(dh + 1), l.rng.Intn(dw + 1) })
}

// cropMargins returns how many rows and columns x exceeds the input size by.
func (l ImageInput) cropMargins(x *tensor.Tensor) (int, int) {
	s := x.Shape()
	dh, dw := s.H()-l.inputSize.H(), s.W()-l.inputSize.W()
	if dh < 0 || dw < 0 || s.C() != l.inputSize.C() {
		violation(ErrInvalidOperation, "%s: data of size %v does not fit input size %v", l.name, s.Size(), l.inputSize)
	}
	return dh, dw
}

// crop copies an input-size window out of every observation; origin gives
// the window's top-left corner per observation.
func (l ImageInput) crop(x *tensor.Tensor, origin func(n int) (int, int)) *tensor.Tensor {
	s := x.Shape()
	out := tensor.ZerosAs(tensor.NewShape(l.inputSize, s.N()), x)
	od, xd := out.Data(), x.Data()
	h, w := l.inputSize.H(), l.inputSize.W()
	for n := 0; n < s.N(); n++ {
		top, left := origin(n)
		for c := 0; c < s.C(); c++ {
			for i := 0; i < h; i++ {
				src := x.Offset(top+i, left, c, n)
				copy(od[out.Offset(i, 0, c, n):out.Offset(i, 0, c, n)+w], xd[src:src+w])
			}
		}
	}
	return out
}

// randomFlip mirrors every observation horizontally with probability 0.5.
func (l ImageInput) randomFlip(x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	s := x.Shape()
	od := out.Data()
	for n := 0; n < s.N(); n++ {
		if l.rng.Float64() >= 0.5 {
			continue
		}
		for c := 0; c < s.C(); c++ {
			for h := 0; h < s.H(); h++ {
				row := od[out.Offset(h, 0, c, n) : out.Offset(h, 0, c, n)+s.W()]
				slices.Reverse(row)
			}
		}
	}
	return out
}

func (l ImageInput) normalize(x *tensor.Tensor) *tensor.Tensor {
	if l.normalization != NormalizationZeroCenter || l.averageImage == nil {
		return x
	}
	out := x.Clone()
	od, avg := out.Data(), l.averageImage.Data()
	obs := len(avg)
	for i := range od {
		od[i] = x.DType().Round(od[i] - avg[i%obs])
	}
	return out
}
