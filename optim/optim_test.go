// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim_test

import (
	"errors"
	"testing"

	"github.com/born-ml/convnet/optim"
)

func TestParseTrainingOptions(t *testing.T) {
	opts, err := optim.ParseTrainingOptions([]byte("max_epochs: 3\nlearn_rate_schedule: piecewise\n"))
	if err != nil {
		t.Fatalf("ParseTrainingOptions failed: %v", err)
	}
	if opts.MaxEpochs != 3 || opts.LearnRateSchedule != optim.SchedulePiecewise {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.MiniBatchSize != optim.DefaultTrainingOptions().MiniBatchSize {
		t.Errorf("defaults not kept: %+v", opts)
	}
}

func TestNewTrainer_GPUNeedsDevice(t *testing.T) {
	opts := optim.DefaultTrainingOptions()
	opts.ExecutionEnvironment = optim.EnvironmentGPU
	_, err := optim.NewTrainer(optim.TrainerConfig{Options: opts})
	if !errors.Is(err, optim.ErrDeviceRequired) {
		t.Errorf("expected ErrDeviceRequired, got %v", err)
	}
}
