// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/born-ml/convnet/backend/cpu"
	"github.com/born-ml/convnet/tensor"
)

// TestBackendInterface verifies that the CPU backend implements tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = cpu.New()
}

func TestPublicAPI(t *testing.T) {
	x := tensor.Zeros(tensor.NewShape(tensor.Size{2, 3, 1}, 2))
	if got := x.Shape(); got != (tensor.Shape{2, 3, 1, 2}) {
		t.Errorf("Shape() = %v, want [2 3 1 2]", got)
	}
	if x.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want CPU", x.Device())
	}

	x.Set(0.1, 1, 2, 0, 1)
	single := tensor.Single.Cast(x)
	if single.DType() != tensor.Float32 {
		t.Errorf("DType() = %v, want Float32", single.DType())
	}
	if got := single.At(1, 2, 0, 1); got != float64(float32(0.1)) {
		t.Errorf("At() = %v, want %v", got, float64(float32(0.1)))
	}
	if x.At(1, 2, 0, 1) != 0.1 {
		t.Error("Cast modified its argument")
	}
}
