package report

import (
	"context"
	"fmt"

	"github.com/born-ml/convnet/internal/history"
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/optim"
)

// History records training progress into a history store. Epoch records
// carry the figures of the epoch's last iteration.
type History struct {
	ctx   context.Context
	store history.Store
	run   history.Run
	last  optim.Iteration
}

// NewHistory returns a reporter recording run into store. store must be
// initialized.
func NewHistory(ctx context.Context, store history.Store, run history.Run) *History {
	return &History{ctx: ctx, store: store, run: run}
}

// Start saves the run.
func (r *History) Start() error {
	if err := r.store.SaveRun(r.ctx, r.run); err != nil {
		return fmt.Errorf("history: save run %s: %w", r.run.ID, err)
	}
	return nil
}

// ReportIteration appends an iteration record.
func (r *History) ReportIteration(it optim.Iteration) error {
	r.last = it
	return r.append(history.KindIteration, it)
}

// ReportEpoch appends an epoch record.
func (r *History) ReportEpoch(epoch, iteration int, _ *nn.SeriesNetwork) error {
	it := r.last
	it.Epoch, it.Iteration = epoch, iteration
	return r.append(history.KindEpoch, it)
}

// Finish does nothing; records are stored as they arrive.
func (r *History) Finish() error { return nil }

func (r *History) append(kind string, it optim.Iteration) error {
	rec := history.Record{
		RunID:     r.run.ID,
		Kind:      kind,
		Epoch:     it.Epoch,
		Iteration: it.Iteration,
		Elapsed:   it.Elapsed,
		Loss:      it.Loss,
		Accuracy:  it.Accuracy,
		LearnRate: it.LearnRate,
	}
	if err := r.store.AppendRecord(r.ctx, rec); err != nil {
		return fmt.Errorf("history: append %s record: %w", kind, err)
	}
	return nil
}
