// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/tensor"
)

// Layer is the capability set shared by every layer kind.
type Layer = nn.Layer

// OutputLayer is a layer that computes the loss.
type OutputLayer = nn.OutputLayer

// SeriesNetwork is a linear chain of layers.
type SeriesNetwork = nn.SeriesNetwork

// Parameter is a learnable parameter of a layer.
type Parameter = nn.Parameter

// Representation selects how a parameter stores its value.
type Representation = nn.Representation

// Parameter representations.
const (
	Training   = nn.Training
	Prediction = nn.Prediction
)

// NewSeriesNetwork builds a network from layers, inferring unset sizes.
func NewSeriesNetwork(layers ...Layer) (*SeriesNetwork, error) {
	return nn.NewSeriesNetwork(layers...)
}

// Accuracy returns the percentage of positions whose predicted class
// matches the target class.
func Accuracy(y, t *tensor.Tensor) float64 {
	return nn.Accuracy(y, t)
}

// SeedInitializer reseeds the random source used to draw initial weights.
func SeedInitializer(seed int64) {
	nn.SeedInitializer(seed)
}

// Sentinel errors.
var (
	ErrInvalidOperation  = nn.ErrInvalidOperation
	ErrSizeNotDetermined = nn.ErrSizeNotDetermined
	ErrParameterSize     = nn.ErrParameterSize
	ErrDeltaCount        = nn.ErrDeltaCount
	ErrInvalidNetwork    = nn.ErrInvalidNetwork
)

// Input

// ImageInput is the first layer of every network.
type ImageInput = nn.ImageInput

// Input normalizations and augmentations.
const (
	NormalizationZeroCenter = nn.NormalizationZeroCenter
	NormalizationNone       = nn.NormalizationNone
	AugmentationFlipLR      = nn.AugmentationFlipLR
	AugmentationCrop        = nn.AugmentationCrop
)

// NewImageInput creates an input layer for observations of the given size.
func NewImageInput(size tensor.Size) ImageInput {
	return nn.NewImageInput(size)
}

// Layers

// Convolution2D is a 2-D convolution with optional filter groups.
type Convolution2D = nn.Convolution2D

// NewConvolution2D creates a convolution. Passing two filter counts
// enables two filter groups.
func NewConvolution2D(filterSize tensor.Pair, numFilters ...int) Convolution2D {
	return nn.NewConvolution2D(filterSize, numFilters...)
}

// FullyConnected connects every input value to every output channel.
type FullyConnected = nn.FullyConnected

// NewFullyConnected creates a fully-connected layer with outputSize
// output channels.
func NewFullyConnected(outputSize int) FullyConnected {
	return nn.NewFullyConnected(outputSize)
}

// Pooling2D is a max or average pooling layer.
type Pooling2D = nn.Pooling2D

// PoolingMode selects max or average pooling.
type PoolingMode = nn.PoolingMode

// Pooling modes.
const (
	MaxPooling     = nn.MaxPooling
	AveragePooling = nn.AveragePooling
)

// NewMaxPooling2D creates a max pooling layer.
func NewMaxPooling2D(poolSize tensor.Pair) Pooling2D {
	return nn.NewMaxPooling2D(poolSize)
}

// NewAveragePooling2D creates an average pooling layer.
func NewAveragePooling2D(poolSize tensor.Pair) Pooling2D {
	return nn.NewAveragePooling2D(poolSize)
}

// CrossChannelNormalization is local response normalization across
// channels.
type CrossChannelNormalization = nn.CrossChannelNormalization

// NewCrossChannelNormalization creates a normalization layer over windows
// of windowSize channels.
func NewCrossChannelNormalization(windowSize int) CrossChannelNormalization {
	return nn.NewCrossChannelNormalization(windowSize)
}

// Dropout zeroes values with a given probability during training.
type Dropout = nn.Dropout

// NewDropout creates a dropout layer.
func NewDropout(p float64) Dropout {
	return nn.NewDropout(p)
}

// Activations

// ReLU is the rectified linear activation.
type ReLU = nn.ReLU

// NewReLU creates a ReLU layer.
func NewReLU() ReLU { return nn.NewReLU() }

// Softmax normalizes channels into probabilities.
type Softmax = nn.Softmax

// NewSoftmax creates a softmax layer.
func NewSoftmax() Softmax { return nn.NewSoftmax() }

// Identity passes data through.
type Identity = nn.Identity

// NewIdentity creates an identity layer.
func NewIdentity() Identity { return nn.NewIdentity() }

// Output

// CrossEntropy is the classification output layer.
type CrossEntropy = nn.CrossEntropy

// NewCrossEntropy creates a cross-entropy output layer.
func NewCrossEntropy() CrossEntropy { return nn.NewCrossEntropy() }
