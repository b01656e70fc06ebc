// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the 4-D tensors of the convnet engine.
//
// # Overview
//
// A Tensor holds H×W×C×N values: height, width and channels of N
// observations. Each observation is one contiguous block, so slicing by
// observation never copies more than it returns. Values are carried as
// float64 and tagged with a DataType; a Precision policy rounds them to
// float32 when single precision is requested.
//
// # Basic Usage
//
//	import "github.com/born-ml/convnet/tensor"
//
//	func main() {
//	    x := tensor.Zeros(tensor.Shape{28, 28, 1, 64})
//	    x.Set(1, 0, 0, 0, 3)
//
//	    single := tensor.Single.Cast(x)
//	    fmt.Println(single.DType(), single.Shape())
//	}
//
// # Backends
//
// Layers delegate arithmetic to a Backend, the Numeric Kernels contract.
// See the backend/cpu and backend/webgpu packages.
package tensor
