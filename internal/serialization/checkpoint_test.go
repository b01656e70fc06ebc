package serialization

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

func checkpointNetwork(t *testing.T, outputs int) *nn.SeriesNetwork {
	t.Helper()
	net, err := nn.NewSeriesNetwork(
		nn.NewImageInput(tensor.Size{4, 4, 1}),
		nn.NewConvolution2D(tensor.Square(3), 2),
		nn.NewReLU(),
		nn.NewFullyConnected(outputs),
		nn.NewSoftmax(),
		nn.NewCrossEntropy(),
	)
	if err != nil {
		t.Fatalf("NewSeriesNetwork failed: %v", err)
	}
	return net.InitializeLearnableParameters(tensor.Double)
}

func TestCheckpointRoundTrip(t *testing.T) {
	nn.SeedInitializer(1)
	saved := checkpointNetwork(t, 3)
	avg := tensor.Full(tensor.Shape{4, 4, 1, 1}, 0.5)
	saved, err := saved.WithInput(saved.Input().WithAverageImage(avg))
	if err != nil {
		t.Fatal(err)
	}
	meta := CheckpointMeta{
		RunID:     "run-1",
		Epoch:     2,
		Iteration: 40,
		Loss:      0.125,
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	path := filepath.Join(t.TempDir(), "ckpt.safetensors")
	if err := SaveCheckpoint(path, saved, meta); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	nn.SeedInitializer(2)
	fresh := checkpointNetwork(t, 3)
	loaded, gotMeta, err := LoadCheckpoint(path, fresh)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}

	if gotMeta.RunID != meta.RunID || gotMeta.Epoch != meta.Epoch ||
		gotMeta.Iteration != meta.Iteration || gotMeta.Loss != meta.Loss ||
		!gotMeta.CreatedAt.Equal(meta.CreatedAt) {
		t.Errorf("meta = %+v, want %+v", gotMeta, meta)
	}

	want := saved.StateDict()
	got := loaded.StateDict()
	if len(got) != len(want) {
		t.Fatalf("got %d parameters, want %d", len(got), len(want))
	}
	for key, w := range want {
		g := got[key]
		if g == nil {
			t.Fatalf("parameter %q missing", key)
		}
		for i, v := range w.Data() {
			if g.Data()[i] != v {
				t.Fatalf("%s[%d] = %v, want %v", key, i, g.Data()[i], v)
			}
		}
	}

	restored := loaded.Input().AverageImage()
	if restored == nil {
		t.Fatal("average image not restored")
	}
	for i, v := range restored.Data() {
		if v != 0.5 {
			t.Fatalf("average image[%d] = %v, want 0.5", i, v)
		}
	}
	if fresh.Input().AverageImage() != nil {
		t.Error("LoadCheckpoint modified its argument")
	}
}

func TestLoadCheckpoint_ArchitectureMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckpt.safetensors")
	if err := SaveCheckpoint(path, checkpointNetwork(t, 3), CheckpointMeta{}); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}
	if _, _, err := LoadCheckpoint(path, checkpointNetwork(t, 5)); err == nil {
		t.Error("expected an error loading into a different architecture")
	}
}

func TestLoadCheckpoint_NotACheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.safetensors")
	if err := WriteSafeTensors(path, sampleTensors(), nil); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadCheckpoint(path, checkpointNetwork(t, 3)); err == nil {
		t.Error("expected an error for a file without checkpoint metadata")
	}
}
