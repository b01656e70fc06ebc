// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the host backend: pure Go kernels over host memory,
// with convolution and fully-connected products on gonum BLAS.
//
// Every layer starts on this backend; it is also the fallback of the
// WebGPU backend for kernels without a shader.
package cpu

import (
	internalcpu "github.com/born-ml/convnet/internal/backend/cpu"
	"github.com/born-ml/convnet/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
func New() *Backend {
	return internalcpu.New()
}
