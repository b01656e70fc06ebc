package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/history"
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/optim"
	"github.com/born-ml/convnet/internal/serialization"
	"github.com/born-ml/convnet/internal/tensor"
)

func testNetwork(t *testing.T) *nn.SeriesNetwork {
	t.Helper()
	net, err := nn.NewSeriesNetwork(
		nn.NewImageInput(tensor.Size{3, 3, 1}).WithNormalization(nn.NormalizationNone),
		nn.NewFullyConnected(2),
		nn.NewSoftmax(),
		nn.NewCrossEntropy(),
	)
	require.NoError(t, err)
	return net.InitializeLearnableParameters(tensor.Double)
}

func iteration(epoch, i int) optim.Iteration {
	return optim.Iteration{
		Epoch:     epoch,
		Iteration: i,
		Elapsed:   time.Duration(i) * 1500 * time.Millisecond,
		Loss:      1 / float64(i),
		Accuracy:  12.5 * float64(i),
		LearnRate: 0.01,
	}
}

func TestText_PrintsSelectedRows(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf, 2)

	require.NoError(t, r.Start())
	for i := 1; i <= 3; i++ {
		require.NoError(t, r.ReportIteration(iteration(1, i)))
	}
	require.NoError(t, r.ReportEpoch(1, 3, nil))
	require.NoError(t, r.ReportIteration(iteration(2, 4)))
	require.NoError(t, r.ReportEpoch(2, 4, nil))
	require.NoError(t, r.Finish())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	var rows []string
	for _, l := range lines {
		if strings.HasPrefix(l, "|") && !strings.Contains(l, "=") && strings.Contains(l, "%") {
			rows = append(rows, l)
		}
	}
	// Iteration 1 (first), 2 (frequency), 3 (epoch end), 4 (frequency).
	require.Len(t, rows, 4)
	assert.Contains(t, rows[0], "1.0000")
	assert.Contains(t, rows[0], "12.50%")
	assert.Contains(t, rows[2], "37.50%")
	assert.Contains(t, rows[2], "4.5")
	assert.Contains(t, buf.String(), "Time Elapsed")
	assert.Contains(t, lines[len(lines)-1], "4 iterations")

	width := len(lines[0])
	for _, l := range lines[:len(lines)-1] {
		assert.Len(t, l, width, "line %q", l)
	}
}

func TestText_EpochEndDoesNotRepeatRow(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf, 2)
	require.NoError(t, r.ReportIteration(iteration(1, 2)))
	require.NoError(t, r.ReportEpoch(1, 2, nil))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestCheckpoint_WritesLoadableFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	net := testNetwork(t)
	r := NewCheckpoint(dir, "run-42")
	r.now = func() time.Time { return time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC) }

	require.NoError(t, r.Start())
	require.NoError(t, r.ReportIteration(iteration(1, 5)))
	require.NoError(t, r.ReportEpoch(1, 5, net))
	require.NoError(t, r.Finish())

	saved := r.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, "convnet_checkpoint__5__2025_06_07__08_09_10.safetensors", filepath.Base(saved[0]))
	_, err := os.Stat(saved[0])
	require.NoError(t, err)

	loaded, meta, err := serialization.LoadCheckpoint(saved[0], testNetwork(t))
	require.NoError(t, err)
	assert.Equal(t, "run-42", meta.RunID)
	assert.Equal(t, 1, meta.Epoch)
	assert.Equal(t, 5, meta.Iteration)
	assert.InDelta(t, 0.2, meta.Loss, 1e-12)
	for key, want := range net.StateDict() {
		assert.Equal(t, want.Data(), loaded.StateDict()[key].Data(), key)
	}
}

func TestHistory_RecordsIterationsAndEpochs(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	require.NoError(t, store.Init(ctx))
	run := history.Run{ID: history.NewRunID(), StartedAt: time.Now(), Precision: "double"}

	r := NewHistory(ctx, store, run)
	require.NoError(t, r.Start())
	require.NoError(t, r.ReportIteration(iteration(1, 1)))
	require.NoError(t, r.ReportIteration(iteration(1, 2)))
	require.NoError(t, r.ReportEpoch(1, 2, nil))
	require.NoError(t, r.Finish())

	_, ok, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	recs, err := store.Records(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, history.KindIteration, recs[0].Kind)
	assert.Equal(t, history.KindEpoch, recs[2].Kind)
	assert.Equal(t, 2, recs[2].Iteration)
	assert.InDelta(t, 0.5, recs[2].Loss, 1e-12)
}

func TestHistory_StoreErrorsStopReporting(t *testing.T) {
	store := history.NewMemoryStore() // not initialized
	r := NewHistory(context.Background(), store, history.Run{ID: "x"})
	assert.Error(t, r.Start())
	assert.Error(t, r.ReportIteration(iteration(1, 1)))
}
