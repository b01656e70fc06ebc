package history

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]Run
	records     map[string][]Record
}

// NewMemoryStore returns an empty, uninitialized memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Init resets the store.
func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]Run)
	s.records = make(map[string][]Record)
	return nil
}

// SaveRun stores run, replacing a run with the same ID.
func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.runs[run.ID] = run
	return nil
}

// GetRun returns the run with the given ID.
func (s *MemoryStore) GetRun(_ context.Context, id string) (Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

// AppendRecord appends rec to its run.
func (s *MemoryStore) AppendRecord(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.records[rec.RunID] = append(s.records[rec.RunID], rec)
	return nil
}

// Records returns a copy of the records of a run.
func (s *MemoryStore) Records(_ context.Context, runID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.records[runID]), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
