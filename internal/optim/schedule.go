package optim

import "fmt"

// Schedule updates the learning rate at the end of every epoch.
type Schedule interface {
	// Update returns the learning rate for the epoch after epoch.
	Update(rate float64, epoch int) float64
}

// Constant keeps the learning rate unchanged.
type Constant struct{}

// Update returns rate.
func (Constant) Update(rate float64, _ int) float64 { return rate }

// Piecewise multiplies the learning rate by DropFactor every DropPeriod
// epochs.
type Piecewise struct {
	DropFactor float64
	DropPeriod int
}

// Update returns rate*DropFactor when epoch is a multiple of DropPeriod,
// rate otherwise.
func (p Piecewise) Update(rate float64, epoch int) float64 {
	if epoch%p.DropPeriod == 0 {
		return rate * p.DropFactor
	}
	return rate
}

// NewSchedule builds the schedule named by the options.
func NewSchedule(opts TrainingOptions) (Schedule, error) {
	switch opts.LearnRateSchedule {
	case ScheduleNone:
		return Constant{}, nil
	case SchedulePiecewise:
		if opts.LearnRateDropPeriod <= 0 {
			return nil, fmt.Errorf("%w: drop period %d", ErrInvalidOptions, opts.LearnRateDropPeriod)
		}
		return Piecewise{DropFactor: opts.LearnRateDropFactor, DropPeriod: opts.LearnRateDropPeriod}, nil
	default:
		return nil, fmt.Errorf("%w: unknown learn rate schedule %q", ErrInvalidOptions, opts.LearnRateSchedule)
	}
}
