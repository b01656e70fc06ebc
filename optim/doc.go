// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the training loop of the convnet engine.
//
// # Overview
//
// This package contains:
//   - TrainingOptions: momentum, learning rate, L2 regularization, epochs,
//     mini-batch size, shuffling and the learning rate schedule
//   - Trainer: stochastic gradient descent with momentum and weight decay
//   - Schedule: constant or piecewise learning rates
//   - DataSource and Reporter: the collaborators a Trainer drives
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/convnet/optim"
//	    "github.com/born-ml/convnet/tensor"
//	)
//
//	func main() {
//	    opts, err := optim.LoadTrainingOptions("options.yaml")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    trainer, err := optim.NewTrainer(optim.TrainerConfig{
//	        Options:   opts,
//	        Precision: tensor.Single,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    trained, err := trainer.Train(net, source)
//	}
//
// # Update Rule
//
// Every iteration, each parameter p with velocity v is updated as
//
//	v = momentum*v - lr*lrFactor*l2*l2Factor*p - lr*lrFactor*g/N
//	p = p + v
//
// where g is the gradient summed over the N observations of the batch.
package optim
