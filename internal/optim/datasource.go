package optim

import "github.com/born-ml/convnet/internal/tensor"

// DataSource serves mini-batches of training data.
//
// X is [H W C N] and Y is the [1 1 K N] one-hot or probability response;
// both carry the same N.
type DataSource interface {
	// Start rewinds to the first mini-batch.
	Start()

	// Shuffle randomizes the observation order.
	Shuffle()

	// IsDone reports whether every mini-batch has been served since Start.
	IsDone() bool

	// Next returns the next mini-batch.
	Next() (x, y *tensor.Tensor)
}
