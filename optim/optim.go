// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/convnet/internal/optim"
	"github.com/born-ml/convnet/nn"
	"github.com/born-ml/convnet/tensor"
)

// TrainingOptions configures a Trainer.
type TrainingOptions = optim.TrainingOptions

// Option values.
const (
	ShuffleOnce       = optim.ShuffleOnce
	ShuffleNever      = optim.ShuffleNever
	ScheduleNone      = optim.ScheduleNone
	SchedulePiecewise = optim.SchedulePiecewise
	EnvironmentCPU    = optim.EnvironmentCPU
	EnvironmentGPU    = optim.EnvironmentGPU
)

// Errors.
var (
	ErrInvalidOptions = optim.ErrInvalidOptions
	ErrDeviceRequired = optim.ErrDeviceRequired
)

// DefaultTrainingOptions returns the default training options.
func DefaultTrainingOptions() TrainingOptions {
	return optim.DefaultTrainingOptions()
}

// LoadTrainingOptions reads YAML training options from path on top of the
// defaults.
func LoadTrainingOptions(path string) (TrainingOptions, error) {
	return optim.LoadTrainingOptions(path)
}

// ParseTrainingOptions parses YAML training options on top of the defaults.
func ParseTrainingOptions(data []byte) (TrainingOptions, error) {
	return optim.ParseTrainingOptions(data)
}

// Trainer trains series networks.
type Trainer = optim.Trainer

// TrainerConfig configures a Trainer.
type TrainerConfig = optim.TrainerConfig

// NewTrainer validates cfg and creates a Trainer.
func NewTrainer(cfg TrainerConfig) (*Trainer, error) {
	return optim.NewTrainer(cfg)
}

// DataSource serves mini-batches to a Trainer.
type DataSource = optim.DataSource

// Reporter observes training.
type Reporter = optim.Reporter

// Reporters fans out to several reporters.
type Reporters = optim.Reporters

// Iteration is the progress of one training iteration.
type Iteration = optim.Iteration

// Schedule updates the learning rate at the end of every epoch.
type Schedule = optim.Schedule

// Constant keeps the learning rate unchanged.
type Constant = optim.Constant

// Piecewise multiplies the learning rate by DropFactor every DropPeriod
// epochs.
type Piecewise = optim.Piecewise

// AverageImage returns the mean center-cropped observation of src.
func AverageImage(src DataSource, input nn.ImageInput) (*tensor.Tensor, error) {
	return optim.AverageImage(src, input)
}
