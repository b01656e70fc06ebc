package serialization

import (
	"fmt"
	"maps"
	"strconv"
	"time"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// Checkpoint metadata keys.
const (
	metaFormat    = "format"
	metaRunID     = "run_id"
	metaEpoch     = "epoch"
	metaIteration = "iteration"
	metaLoss      = "loss"
	metaCreatedAt = "created_at"

	formatName         = "convnet"
	averageImageSuffix = ".AverageImage"
)

// CheckpointMeta identifies the point of a training run a checkpoint was
// taken at.
type CheckpointMeta struct {
	RunID     string
	Epoch     int
	Iteration int
	Loss      float64
	CreatedAt time.Time
}

func (m CheckpointMeta) encode() map[string]string {
	meta := map[string]string{
		metaFormat:    formatName,
		metaEpoch:     strconv.Itoa(m.Epoch),
		metaIteration: strconv.Itoa(m.Iteration),
		metaLoss:      strconv.FormatFloat(m.Loss, 'g', -1, 64),
	}
	if m.RunID != "" {
		meta[metaRunID] = m.RunID
	}
	if !m.CreatedAt.IsZero() {
		meta[metaCreatedAt] = m.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return meta
}

func decodeMeta(meta map[string]string) (CheckpointMeta, error) {
	var m CheckpointMeta
	if meta[metaFormat] != formatName {
		return m, fmt.Errorf("%w: not a %s checkpoint", ErrInvalidHeader, formatName)
	}
	m.RunID = meta[metaRunID]
	var err error
	if m.Epoch, err = strconv.Atoi(meta[metaEpoch]); err != nil {
		return m, fmt.Errorf("%w: epoch: %w", ErrInvalidHeader, err)
	}
	if m.Iteration, err = strconv.Atoi(meta[metaIteration]); err != nil {
		return m, fmt.Errorf("%w: iteration: %w", ErrInvalidHeader, err)
	}
	if m.Loss, err = strconv.ParseFloat(meta[metaLoss], 64); err != nil {
		return m, fmt.Errorf("%w: loss: %w", ErrInvalidHeader, err)
	}
	if s, ok := meta[metaCreatedAt]; ok {
		if m.CreatedAt, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return m, fmt.Errorf("%w: created_at: %w", ErrInvalidHeader, err)
		}
	}
	return m, nil
}

// SaveCheckpoint writes the learnable parameters of net, and the average
// image of its input layer when set, to path.
func SaveCheckpoint(path string, net *nn.SeriesNetwork, meta CheckpointMeta) error {
	tensors := net.StateDict()
	if avg := net.Input().AverageImage(); avg != nil {
		tensors[net.Input().Name()+averageImageSuffix] = avg
	}
	if err := WriteSafeTensors(path, tensors, meta.encode()); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint written by SaveCheckpoint into a copy
// of net. net must have the architecture the checkpoint was taken from.
func LoadCheckpoint(path string, net *nn.SeriesNetwork) (*nn.SeriesNetwork, CheckpointMeta, error) {
	tensors, metadata, err := ReadSafeTensors(path)
	if err != nil {
		return nil, CheckpointMeta{}, fmt.Errorf("load checkpoint: %w", err)
	}
	meta, err := decodeMeta(metadata)
	if err != nil {
		return nil, CheckpointMeta{}, fmt.Errorf("load checkpoint: %w", err)
	}

	tensors = maps.Clone(tensors)
	input := net.Input()
	key := input.Name() + averageImageSuffix
	if avg, ok := tensors[key]; ok {
		delete(tensors, key)
		if want := tensor.NewShape(input.InputSize(), 1); avg.Shape() != want {
			return nil, CheckpointMeta{}, fmt.Errorf("load checkpoint: average image is %v, want %v", avg.Shape(), want)
		}
		if net, err = net.WithInput(input.WithAverageImage(avg)); err != nil {
			return nil, CheckpointMeta{}, fmt.Errorf("load checkpoint: %w", err)
		}
	}

	loaded, err := net.LoadStateDict(tensors)
	if err != nil {
		return nil, CheckpointMeta{}, fmt.Errorf("load checkpoint: %w", err)
	}
	return loaded, meta, nil
}
