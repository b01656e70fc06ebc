// Command convnet trains a small convolutional network on MNIST IDX files
// or on a synthetic pattern data set.
//
// Usage:
//
//	go run ./cmd/convnet -synthetic
//	go run ./cmd/convnet -data ./data -options options.yaml -precision single
//	go run ./cmd/convnet -synthetic -history sqlite -history-db runs.db
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/convnet/backend/webgpu"
	"github.com/born-ml/convnet/internal/data"
	"github.com/born-ml/convnet/internal/history"
	"github.com/born-ml/convnet/internal/report"
	"github.com/born-ml/convnet/internal/serialization"
	"github.com/born-ml/convnet/nn"
	"github.com/born-ml/convnet/optim"
	"github.com/born-ml/convnet/tensor"
)

func main() {
	optionsPath := flag.String("options", "", "YAML training options file")
	dataDir := flag.String("data", "", "directory holding the MNIST IDX files")
	synthetic := flag.Bool("synthetic", false, "train on synthetic patterns instead of MNIST")
	samples := flag.Int("samples", 0, "maximum number of observations to load (0 = all)")
	precision := flag.String("precision", "double", "numeric precision: single or double")
	seed := flag.Int64("seed", 1, "random seed for weights, shuffling and synthetic data")
	checkpointDir := flag.String("checkpoint", "", "directory for epoch checkpoints (overrides options)")
	resume := flag.String("resume", "", "checkpoint file to start from")
	historyKind := flag.String("history", "memory", "history store: memory or sqlite")
	historyDB := flag.String("history-db", "convnet_history.db", "sqlite history database path")
	flag.Parse()

	opts := optim.DefaultTrainingOptions()
	if *optionsPath != "" {
		var err error
		if opts, err = optim.LoadTrainingOptions(*optionsPath); err != nil {
			log.Fatalf("Failed to load options: %v", err)
		}
	}
	if *checkpointDir != "" {
		opts.CheckpointPath = *checkpointDir
	}
	prec, err := parsePrecision(*precision)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("convnet - series CNN training")
	train, test, err := loadData(*dataDir, *synthetic, *samples, *seed)
	if err != nil {
		log.Fatalf("Failed to load data: %v", err)
	}
	fmt.Printf("Train: %d observations, Test: %d observations\n", len(train.Labels), len(test.Labels))

	nn.SeedInitializer(*seed)
	net, err := buildNetwork(train.X.Size(), train.Y.Size().C(), *seed)
	if err != nil {
		log.Fatalf("Failed to build network: %v", err)
	}
	if *resume != "" {
		var meta serialization.CheckpointMeta
		if net, meta, err = serialization.LoadCheckpoint(*resume, net); err != nil {
			log.Fatalf("Failed to resume: %v", err)
		}
		fmt.Printf("Resumed from run %s, epoch %d, iteration %d\n", meta.RunID, meta.Epoch, meta.Iteration)
	}
	fmt.Print(net.Summary())

	var device tensor.Backend
	if opts.ExecutionEnvironment == optim.EnvironmentGPU {
		gpu, err := webgpu.Probe()
		if err != nil {
			log.Fatalf("GPU execution requested: %v", err)
		}
		defer gpu.Release()
		device = gpu
	}

	ctx := context.Background()
	store, err := history.NewStore(*historyKind, *historyDB)
	if err != nil {
		log.Fatal(err)
	}
	if err := store.Init(ctx); err != nil {
		log.Fatalf("Failed to open history: %v", err)
	}
	defer store.Close()

	optionsYAML, err := yaml.Marshal(opts)
	if err != nil {
		log.Fatal(err)
	}
	run := history.Run{
		ID:        history.NewRunID(),
		StartedAt: time.Now(),
		Precision: prec.String(),
		Options:   string(optionsYAML),
	}
	fmt.Printf("Run %s\n", run.ID)

	reporters := optim.Reporters{report.NewHistory(ctx, store, run)}
	if opts.Verbose {
		reporters = append(reporters, report.NewText(os.Stdout, opts.VerboseFrequency))
	}
	if opts.CheckpointPath != "" {
		reporters = append(reporters, report.NewCheckpoint(opts.CheckpointPath, run.ID))
	}

	trainer, err := optim.NewTrainer(optim.TrainerConfig{
		Options:   opts,
		Precision: prec,
		Reporters: reporters,
		Device:    device,
	})
	if err != nil {
		log.Fatalf("Invalid training configuration: %v", err)
	}
	src, err := data.NewInMemory(train.X, train.Y, opts.MiniBatchSize, *seed)
	if err != nil {
		log.Fatal(err)
	}

	start := time.Now()
	trained, err := trainer.Train(net, src)
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}
	fmt.Printf("Trained in %s\n", time.Since(start).Round(time.Millisecond))

	if device != nil {
		trained = trained.SetupNetworkForGPUPrediction(device)
	}
	trained = trained.PrepareNetworkForPrediction()
	fmt.Printf("Train accuracy: %.2f%%\n", evaluate(trained, train, prec))
	fmt.Printf("Test accuracy:  %.2f%%\n", evaluate(trained, test, prec))

	if opts.CheckpointPath != "" {
		path := filepath.Join(opts.CheckpointPath, "convnet_final.safetensors")
		meta := serialization.CheckpointMeta{RunID: run.ID, Epoch: opts.MaxEpochs, CreatedAt: time.Now()}
		if err := serialization.SaveCheckpoint(path, trained.SetupNetworkForHostPrediction(), meta); err != nil {
			log.Fatalf("Failed to save final network: %v", err)
		}
		fmt.Printf("Saved %s\n", path)
	}
}

func parsePrecision(name string) (tensor.Precision, error) {
	switch name {
	case "single":
		return tensor.Single, nil
	case "double":
		return tensor.Double, nil
	default:
		return tensor.Precision{}, fmt.Errorf("unknown precision %q", name)
	}
}

// loadData returns a train and a test split. MNIST files come from dir
// unless synthetic is set.
func loadData(dir string, synthetic bool, samples int, seed int64) (*data.Dataset, *data.Dataset, error) {
	if synthetic || dir == "" {
		n := samples
		if n <= 0 {
			n = 1200
		}
		rng := rand.New(rand.NewSource(seed)) //nolint:gosec // demo data
		all := data.Synthetic(tensor.Size{12, 12, 1}, 4, n, 0.2, rng)
		return all.Split(n * 5 / 6)
	}

	train, err := data.LoadIDX(
		filepath.Join(dir, "train-images-idx3-ubyte"),
		filepath.Join(dir, "train-labels-idx1-ubyte"),
		10, samples)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w (download MNIST into %s or pass -synthetic)", err, dir)
		}
		return nil, nil, err
	}
	test, err := data.LoadIDX(
		filepath.Join(dir, "t10k-images-idx3-ubyte"),
		filepath.Join(dir, "t10k-labels-idx1-ubyte"),
		10, samples)
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

func buildNetwork(size tensor.Size, classes int, seed int64) (*nn.SeriesNetwork, error) {
	return nn.NewSeriesNetwork(
		nn.NewImageInput(size).WithAugmentations(nn.AugmentationFlipLR).
			WithRand(rand.New(rand.NewSource(seed))), //nolint:gosec // augmentation only
		nn.NewConvolution2D(tensor.Square(3), 8).WithPadding(tensor.Square(1)),
		nn.NewReLU(),
		nn.NewCrossChannelNormalization(5),
		nn.NewMaxPooling2D(tensor.Square(2)).WithStride(tensor.Square(2)),
		nn.NewFullyConnected(32),
		nn.NewReLU(),
		nn.NewDropout(0.2),
		nn.NewFullyConnected(classes),
		nn.NewSoftmax(),
		nn.NewCrossEntropy(),
	)
}

// evaluate returns the classification accuracy of net on d in percent.
func evaluate(net *nn.SeriesNetwork, d *data.Dataset, prec tensor.Precision) float64 {
	const chunk = 256
	total := len(d.Labels)
	correct := 0
	for from := 0; from < total; from += chunk {
		to := min(from+chunk, total)
		classes := net.Classify(prec.Cast(d.X.SliceObservations(from, to)))
		for i, c := range classes {
			if c == d.Labels[from+i] {
				correct++
			}
		}
	}
	return 100 * float64(correct) / float64(total)
}
