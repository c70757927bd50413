// Package memory keeps run status snapshots in process memory.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/store"
)

// StatusStore is a map-backed store.StatusStore.
type StatusStore struct {
	mu   sync.RWMutex
	runs map[string]store.RunStatus
}

// NewStatusStore returns an empty store.
func NewStatusStore() *StatusStore {
	return &StatusStore{runs: make(map[string]store.RunStatus)}
}

// Put stores a copy of status.
func (s *StatusStore) Put(_ context.Context, status store.RunStatus) error {
	if status.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[status.RunID] = clone(status)
	return nil
}

// Get returns a copy of the stored status.
func (s *StatusStore) Get(_ context.Context, runID string) (store.RunStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.runs[runID]
	if !ok {
		return store.RunStatus{}, store.ErrNotFound
	}
	return clone(status), nil
}

// Close implements store.StatusStore.
func (s *StatusStore) Close() error {
	return nil
}

func clone(status store.RunStatus) store.RunStatus {
	status.Discarded = maps.Clone(status.Discarded)
	if status.FinishedAt != nil {
		finished := *status.FinishedAt
		status.FinishedAt = &finished
	}
	return status
}
