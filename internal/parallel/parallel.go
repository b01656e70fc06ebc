// Package parallel splits independent per-observation kernel work across
// goroutines. Callers only use it for loops whose iterations write disjoint
// output regions.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns defaults for fine-grained loops (elements, rows).
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// ObservationConfig returns defaults for coarse loops where every item is a
// whole observation of a mini-batch.
func ObservationConfig() Config {
	cfg := DefaultConfig()
	cfg.MinChunkSize = 1
	return cfg
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < 2*cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForObservations runs f once per observation of a batch of size n.
func ForObservations(n int, f func(obs int)) {
	For(n, f, ObservationConfig())
}

// ForBatch iterates the observations x channels grid, the usual pattern of
// pooling and normalization kernels.
func ForBatch(batch, channels int, f func(obs, c int)) {
	For(batch*channels, func(k int) {
		f(k/channels, k%channels)
	}, ObservationConfig())
}
