// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers and the series network of the convnet
// engine.
//
// # Overview
//
// This package contains:
//   - Input: ImageInput (normalization, augmentations, center cropping)
//   - Layers: Convolution2D (with filter groups), FullyConnected, Pooling2D
//     (max and average), CrossChannelNormalization, Dropout
//   - Activations: ReLU, Softmax, Identity
//   - Output: CrossEntropy
//   - SeriesNetwork: a strictly linear chain of layers with gradients,
//     parameter updates and state dict export
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/convnet/nn"
//	    "github.com/born-ml/convnet/tensor"
//	)
//
//	func main() {
//	    net, err := nn.NewSeriesNetwork(
//	        nn.NewImageInput(tensor.Size{28, 28, 1}),
//	        nn.NewConvolution2D(tensor.Square(5), 20),
//	        nn.NewReLU(),
//	        nn.NewMaxPooling2D(tensor.Square(2)).WithStride(tensor.Square(2)),
//	        nn.NewFullyConnected(10),
//	        nn.NewSoftmax(),
//	        nn.NewCrossEntropy(),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Print(net.Summary())
//	}
//
// Sizes left unset (a convolution's channel count, a fully-connected
// layer's input size) are inferred when the network is built.
//
// # Errors
//
// Construction problems are returned as errors wrapping ErrInvalidNetwork.
// Contract violations, such as calling Backward on the input layer or
// assigning weights of the wrong shape, panic with an error wrapping one of
// the package sentinels.
package nn
