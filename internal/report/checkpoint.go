package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/optim"
	"github.com/born-ml/convnet/internal/serialization"
)

// checkpointTimeLayout is the timestamp format of checkpoint file names.
const checkpointTimeLayout = "2006_01_02__15_04_05"

// Checkpoint saves the network to a directory at the end of every epoch.
type Checkpoint struct {
	dir   string
	runID string
	now   func() time.Time
	last  optim.Iteration
	saved []string
}

// NewCheckpoint returns a reporter writing
// convnet_checkpoint__<iteration>__<timestamp>.safetensors files to dir.
func NewCheckpoint(dir, runID string) *Checkpoint {
	return &Checkpoint{dir: dir, runID: runID, now: time.Now}
}

// Saved returns the paths written so far.
func (r *Checkpoint) Saved() []string {
	return append([]string(nil), r.saved...)
}

// Start creates the checkpoint directory.
func (r *Checkpoint) Start() error {
	if err := os.MkdirAll(r.dir, 0o750); err != nil {
		return fmt.Errorf("checkpoint directory: %w", err)
	}
	return nil
}

// ReportIteration remembers the loss stored with the next checkpoint.
func (r *Checkpoint) ReportIteration(it optim.Iteration) error {
	r.last = it
	return nil
}

// ReportEpoch writes a checkpoint of net.
func (r *Checkpoint) ReportEpoch(epoch, iteration int, net *nn.SeriesNetwork) error {
	now := r.now()
	name := fmt.Sprintf("convnet_checkpoint__%d__%s.safetensors", iteration, now.Format(checkpointTimeLayout))
	path := filepath.Join(r.dir, name)
	meta := serialization.CheckpointMeta{
		RunID:     r.runID,
		Epoch:     epoch,
		Iteration: iteration,
		Loss:      r.last.Loss,
		CreatedAt: now,
	}
	if err := serialization.SaveCheckpoint(path, net, meta); err != nil {
		return err
	}
	r.saved = append(r.saved, path)
	return nil
}

// Finish does nothing; every checkpoint is complete when written.
func (r *Checkpoint) Finish() error { return nil }
