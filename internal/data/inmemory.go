// Package data provides training data for the convnet trainer: an
// in-memory mini-batch dispatcher, an IDX (MNIST format) loader and a
// synthetic pattern generator.
package data

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/convnet/internal/tensor"
)

// InMemory serves mini-batches of an in-memory data set. The last batch
// holds the remaining observations when the batch size does not divide
// the observation count.
type InMemory struct {
	x, y      *tensor.Tensor
	batchSize int
	order     []int
	pos       int
	rng       *rand.Rand
}

// NewInMemory creates a source over x [H W C N] and responses y [1 1 K N].
// seed drives Shuffle.
func NewInMemory(x, y *tensor.Tensor, batchSize int, seed int64) (*InMemory, error) {
	if x.Shape().N() != y.Shape().N() {
		return nil, fmt.Errorf("in-memory data: %d observations but %d responses", x.Shape().N(), y.Shape().N())
	}
	if x.Shape().N() == 0 {
		return nil, fmt.Errorf("in-memory data: no observations")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("in-memory data: invalid batch size %d", batchSize)
	}
	order := make([]int, x.Shape().N())
	for i := range order {
		order[i] = i
	}
	return &InMemory{
		x:         x,
		y:         y,
		batchSize: batchSize,
		order:     order,
		rng:       rand.New(rand.NewSource(seed)), //nolint:gosec // shuffling is not security-critical
	}, nil
}

// NumObservations returns the data set size.
func (s *InMemory) NumObservations() int { return len(s.order) }

// NumBatches returns the number of mini-batches per epoch.
func (s *InMemory) NumBatches() int {
	return (len(s.order) + s.batchSize - 1) / s.batchSize
}

// Start rewinds to the first mini-batch.
func (s *InMemory) Start() { s.pos = 0 }

// Shuffle permutes the observation order.
func (s *InMemory) Shuffle() {
	s.rng.Shuffle(len(s.order), func(i, j int) {
		s.order[i], s.order[j] = s.order[j], s.order[i]
	})
}

// IsDone reports whether the epoch is exhausted.
func (s *InMemory) IsDone() bool { return s.pos >= len(s.order) }

// Next returns the next mini-batch. Panics when the epoch is exhausted.
func (s *InMemory) Next() (*tensor.Tensor, *tensor.Tensor) {
	if s.IsDone() {
		panic("in-memory data: next after the last mini-batch")
	}
	end := min(s.pos+s.batchSize, len(s.order))
	idx := s.order[s.pos:end]
	s.pos = end
	return gather(s.x, idx), gather(s.y, idx)
}

// gather copies the observations idx of t into a new tensor.
func gather(t *tensor.Tensor, idx []int) *tensor.Tensor {
	s := t.Shape()
	out := tensor.ZerosAs(tensor.NewShape(s.Size(), len(idx)), t)
	obs := s.Size().NumElements()
	od, td := out.Data(), t.Data()
	for i, n := range idx {
		copy(od[i*obs:(i+1)*obs], td[n*obs:(n+1)*obs])
	}
	return out
}

// OneHot encodes labels as a [1 1 classes N] response.
func OneHot(labels []int, classes int) (*tensor.Tensor, error) {
	y := tensor.Zeros(tensor.Shape{1, 1, classes, len(labels)})
	for n, label := range labels {
		if label < 0 || label >= classes {
			return nil, fmt.Errorf("one-hot: label %d of observation %d not in [0, %d)", label, n, classes)
		}
		y.Set(1, 0, 0, label, n)
	}
	return y, nil
}
