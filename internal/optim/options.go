package optim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Shuffle modes.
const (
	ShuffleOnce  = "once"
	ShuffleNever = "never"
)

// Learning-rate schedule names.
const (
	ScheduleNone      = "none"
	SchedulePiecewise = "piecewise"
)

// Execution environments.
const (
	EnvironmentCPU = "cpu"
	EnvironmentGPU = "gpu"
)

// ErrInvalidOptions is returned for training options that fail validation.
var ErrInvalidOptions = errors.New("optim: invalid training options")

// TrainingOptions configures a Trainer.
//
// Example YAML:
//
//	momentum: 0.9
//	initial_learn_rate: 0.01
//	l2_regularization: 0.0001
//	max_epochs: 30
//	mini_batch_size: 128
//	shuffle: once
//	learn_rate_schedule: piecewise
//	learn_rate_drop_factor: 0.1
//	learn_rate_drop_period: 10
type TrainingOptions struct {
	Momentum         float64 `yaml:"momentum"`
	InitialLearnRate float64 `yaml:"initial_learn_rate"`
	L2Regularization float64 `yaml:"l2_regularization"`
	MaxEpochs        int     `yaml:"max_epochs"`
	MiniBatchSize    int     `yaml:"mini_batch_size"`
	Shuffle          string  `yaml:"shuffle"`

	LearnRateSchedule   string  `yaml:"learn_rate_schedule"`
	LearnRateDropFactor float64 `yaml:"learn_rate_drop_factor"`
	LearnRateDropPeriod int     `yaml:"learn_rate_drop_period"`

	Verbose              bool   `yaml:"verbose"`
	VerboseFrequency     int    `yaml:"verbose_frequency"`
	ExecutionEnvironment string `yaml:"execution_environment"`
	CheckpointPath       string `yaml:"checkpoint_path"`
}

// DefaultTrainingOptions returns the default options.
func DefaultTrainingOptions() TrainingOptions {
	return TrainingOptions{
		Momentum:             0.9,
		InitialLearnRate:     0.01,
		L2Regularization:     1e-4,
		MaxEpochs:            30,
		MiniBatchSize:        128,
		Shuffle:              ShuffleOnce,
		LearnRateSchedule:    ScheduleNone,
		LearnRateDropFactor:  0.1,
		LearnRateDropPeriod:  10,
		Verbose:              true,
		VerboseFrequency:     50,
		ExecutionEnvironment: EnvironmentCPU,
	}
}

// LoadTrainingOptions reads a YAML file over the defaults and validates the
// result. Unknown keys are an error.
func LoadTrainingOptions(path string) (TrainingOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TrainingOptions{}, fmt.Errorf("read training options: %w", err)
	}
	return ParseTrainingOptions(data)
}

// ParseTrainingOptions decodes YAML over the defaults and validates the
// result.
func ParseTrainingOptions(data []byte) (TrainingOptions, error) {
	opts := DefaultTrainingOptions()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return TrainingOptions{}, fmt.Errorf("decode training options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return TrainingOptions{}, err
	}
	return opts, nil
}

// Validate checks every option.
func (o TrainingOptions) Validate() error {
	switch {
	case o.Momentum < 0 || o.Momentum >= 1:
		return fmt.Errorf("%w: momentum %g not in [0, 1)", ErrInvalidOptions, o.Momentum)
	case o.InitialLearnRate < 0:
		return fmt.Errorf("%w: negative learn rate %g", ErrInvalidOptions, o.InitialLearnRate)
	case o.L2Regularization < 0:
		return fmt.Errorf("%w: negative L2 regularization %g", ErrInvalidOptions, o.L2Regularization)
	case o.MaxEpochs <= 0:
		return fmt.Errorf("%w: max epochs %d", ErrInvalidOptions, o.MaxEpochs)
	case o.MiniBatchSize <= 0:
		return fmt.Errorf("%w: mini-batch size %d", ErrInvalidOptions, o.MiniBatchSize)
	case o.Shuffle != ShuffleOnce && o.Shuffle != ShuffleNever:
		return fmt.Errorf("%w: unknown shuffle mode %q", ErrInvalidOptions, o.Shuffle)
	case o.LearnRateSchedule != ScheduleNone && o.LearnRateSchedule != SchedulePiecewise:
		return fmt.Errorf("%w: unknown learn rate schedule %q", ErrInvalidOptions, o.LearnRateSchedule)
	case o.LearnRateDropFactor < 0 || o.LearnRateDropFactor > 1:
		return fmt.Errorf("%w: drop factor %g not in [0, 1]", ErrInvalidOptions, o.LearnRateDropFactor)
	case o.LearnRateDropPeriod <= 0:
		return fmt.Errorf("%w: drop period %d", ErrInvalidOptions, o.LearnRateDropPeriod)
	case o.VerboseFrequency <= 0:
		return fmt.Errorf("%w: verbose frequency %d", ErrInvalidOptions, o.VerboseFrequency)
	case o.ExecutionEnvironment != EnvironmentCPU && o.ExecutionEnvironment != EnvironmentGPU:
		return fmt.Errorf("%w: unknown execution environment %q", ErrInvalidOptions, o.ExecutionEnvironment)
	}
	return nil
}
