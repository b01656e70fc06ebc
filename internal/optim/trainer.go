// Package optim trains series networks with mini-batch stochastic gradient
// descent with momentum.
//
// This package provides:
//   - TrainingOptions: hyperparameters, loadable from YAML
//   - Schedule: learning-rate schedules (constant, piecewise)
//   - DataSource: the mini-batch contract
//   - Reporter: progress observers
//   - Trainer: the optimization loop
//
// Example usage:
//
//	opts, err := optim.LoadTrainingOptions("train.yaml")
//	trainer, err := optim.NewTrainer(optim.TrainerConfig{
//	    Options:   opts,
//	    Precision: tensor.Single,
//	    Reporters: optim.Reporters{report.NewText(os.Stdout, opts.VerboseFrequency)},
//	})
//	trained, err := trainer.Train(net, data.NewInMemory(x, y, opts.MiniBatchSize, seed))
package optim

import (
	"errors"
	"fmt"
	"time"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// ErrDeviceRequired is returned when training on the GPU without a device.
var ErrDeviceRequired = errors.New("optim: gpu execution environment needs a device")

// TrainerConfig configures a Trainer.
type TrainerConfig struct {
	Options   TrainingOptions
	Precision tensor.Precision
	Reporters Reporters

	// Device runs the layers when Options.ExecutionEnvironment is "gpu".
	Device tensor.Backend
}

// Trainer runs SGD with momentum and L2 regularization:
//
//	v' = momentum*v - lr*lrFactor * l2*l2Factor * p - lr*lrFactor * g/N
//	p' = p + v'
//
// where g is the batch-summed gradient of parameter p and N the mini-batch
// observation count.
type Trainer struct {
	opts      TrainingOptions
	precision tensor.Precision
	reporters Reporters
	device    tensor.Backend
	schedule  Schedule
}

// NewTrainer validates cfg and creates a trainer.
func NewTrainer(cfg TrainerConfig) (*Trainer, error) {
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	if cfg.Options.ExecutionEnvironment == EnvironmentGPU && cfg.Device == nil {
		return nil, ErrDeviceRequired
	}
	schedule, err := NewSchedule(cfg.Options)
	if err != nil {
		return nil, err
	}
	return &Trainer{
		opts:      cfg.Options,
		precision: cfg.Precision,
		reporters: cfg.Reporters,
		device:    cfg.Device,
		schedule:  schedule,
	}, nil
}

// Options returns the training options.
func (t *Trainer) Options() TrainingOptions { return t.opts }

// Train trains net on src and returns the trained network.
//
// Before the first epoch the average image is computed when the input
// layer needs one, parameters are initialized, and the data is shuffled
// once if configured. net itself is left untouched.
func (t *Trainer) Train(net *nn.SeriesNetwork, src DataSource) (*nn.SeriesNetwork, error) {
	input := net.Input()
	if input.NeedsAverageImage() {
		avg, err := AverageImage(src, input)
		if err != nil {
			return nil, err
		}
		net, err = net.WithInput(input.WithAverageImage(t.precision.Cast(avg)))
		if err != nil {
			return nil, err
		}
		input = net.Input()
	}

	net = net.InitializeLearnableParameters(t.precision).PrepareNetworkForTraining()
	if t.opts.ExecutionEnvironment == EnvironmentGPU {
		net = net.SetupNetworkForGPUPrediction(t.device)
	} else {
		net = net.SetupNetworkForHostPrediction()
	}

	params := net.LearnableParameters()
	velocities := make([]*tensor.Tensor, len(params))
	for i, p := range params {
		velocities[i] = tensor.ZerosAs(p.Host().Shape(), p.Host())
	}

	momentum := t.precision.CastScalar(t.opts.Momentum)
	l2 := t.precision.CastScalar(t.opts.L2Regularization)
	rate := t.precision.CastScalar(t.opts.InitialLearnRate)

	if t.opts.Shuffle == ShuffleOnce {
		src.Shuffle()
	}
	if err := t.reporters.Start(); err != nil {
		return nil, fmt.Errorf("start reporters: %w", err)
	}

	start := time.Now()
	iteration := 0
	for epoch := 1; epoch <= t.opts.MaxEpochs; epoch++ {
		src.Start()
		for !src.IsDone() {
			x, y := src.Next()
			if x.Shape().N() != y.Shape().N() {
				return nil, fmt.Errorf("mini-batch %d: %d observations but %d responses",
					iteration+1, x.Shape().N(), y.Shape().N())
			}
			x = input.TrainingTransform(t.precision.Cast(x))

			grads, loss, accuracy := net.Gradients(x, y)
			scale := 1 / float64(x.Shape().N())
			for i, p := range params {
				lr := t.precision.CastScalar(rate * p.LearnRateFactor())
				decay := t.precision.CastScalar(lr * l2 * p.L2Factor())
				g := grads[i].OnDevice(tensor.CPU).Scale(scale)
				velocities[i] = velocities[i].Scale(momentum).
					Sub(p.Host().Scale(decay)).
					Sub(g.Scale(lr))
			}
			net.UpdateLearnableParameters(velocities)
			iteration++

			err := t.reporters.ReportIteration(Iteration{
				Epoch:     epoch,
				Iteration: iteration,
				Elapsed:   time.Since(start),
				Loss:      loss,
				Accuracy:  accuracy,
				LearnRate: rate,
			})
			if err != nil {
				return nil, fmt.Errorf("report iteration %d: %w", iteration, err)
			}
		}

		rate = t.precision.CastScalar(t.schedule.Update(rate, epoch))
		if err := t.reporters.ReportEpoch(epoch, iteration, net); err != nil {
			return nil, fmt.Errorf("report epoch %d: %w", epoch, err)
		}
	}

	if err := t.reporters.Finish(); err != nil {
		return nil, fmt.Errorf("finish reporters: %w", err)
	}
	return net, nil
}

// AverageImage returns the mean observation of src, center-cropped to the
// input size, as a [H W C 1] tensor. src is rewound before and after.
func AverageImage(src DataSource, input nn.ImageInput) (*tensor.Tensor, error) {
	sum := tensor.Zeros(tensor.NewShape(input.InputSize(), 1))
	sd := sum.Data()
	count := 0

	src.Start()
	for !src.IsDone() {
		x, _ := src.Next()
		xd := input.CenterCrop(x).Data()
		for i, v := range xd {
			sd[i%len(sd)] += v
		}
		count += x.Shape().N()
	}
	src.Start()

	if count == 0 {
		return nil, errors.New("average image: empty data source")
	}
	return sum.Scale(1 / float64(count)), nil
}
