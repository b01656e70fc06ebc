// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the accelerated device backend on WebGPU.
//
// The device exists only on Windows builds with the native WebGPU library
// installed; elsewhere Probe returns an error wrapping ErrUnavailable.
//
//	gpu, err := webgpu.Probe()
//	if err != nil {
//	    // fall back to host prediction
//	}
//	net = net.SetupNetworkForGPUPrediction(gpu)
package webgpu

import (
	internalwebgpu "github.com/born-ml/convnet/internal/backend/webgpu"
	"github.com/born-ml/convnet/tensor"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// ErrUnavailable is returned when no usable WebGPU device exists.
var ErrUnavailable = internalwebgpu.ErrUnavailable

// Probe returns the process-wide device backend, creating it on first use.
func Probe() (*Backend, error) {
	return internalwebgpu.Probe()
}
