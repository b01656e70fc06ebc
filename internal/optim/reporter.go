package optim

import (
	"time"

	"github.com/born-ml/convnet/internal/nn"
)

// Iteration is the progress of one training iteration.
type Iteration struct {
	Epoch     int
	Iteration int
	Elapsed   time.Duration
	Loss      float64
	Accuracy  float64 // percent
	LearnRate float64
}

// Reporter observes training. Reporters must not modify the network.
type Reporter interface {
	Start() error
	ReportIteration(it Iteration) error
	ReportEpoch(epoch, iteration int, net *nn.SeriesNetwork) error
	Finish() error
}

// Reporters notifies every reporter in order and stops at the first error.
type Reporters []Reporter

// Start starts every reporter.
func (rs Reporters) Start() error {
	return rs.each(func(r Reporter) error { return r.Start() })
}

// ReportIteration reports it to every reporter.
func (rs Reporters) ReportIteration(it Iteration) error {
	return rs.each(func(r Reporter) error { return r.ReportIteration(it) })
}

// ReportEpoch reports the end of an epoch to every reporter.
func (rs Reporters) ReportEpoch(epoch, iteration int, net *nn.SeriesNetwork) error {
	return rs.each(func(r Reporter) error { return r.ReportEpoch(epoch, iteration, net) })
}

// Finish finishes every reporter.
func (rs Reporters) Finish() error {
	return rs.each(func(r Reporter) error { return r.Finish() })
}

func (rs Reporters) each(f func(Reporter) error) error {
	for _, r := range rs {
		if err := f(r); err != nil {
			return err
		}
	}
	return nil
}
