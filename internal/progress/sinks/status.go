package sinks

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/progress"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/store"
)

// StatusSink folds events into per-run status snapshots and writes each
// touched snapshot to a store.StatusStore once per batch.
type StatusSink struct {
	store  store.StatusStore
	logger *zap.Logger

	mu   sync.Mutex
	runs map[string]*store.RunStatus
}

// NewStatusSink constructs a StatusSink for the provided store.
func NewStatusSink(s store.StatusStore, logger *zap.Logger) *StatusSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusSink{store: s, logger: logger, runs: make(map[string]*store.RunStatus)}
}

// Consume applies the batch and persists the affected runs.
func (s *StatusSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.store == nil {
		return nil
	}
	s.mu.Lock()
	touched := make(map[string]store.RunStatus)
	for _, evt := range batch {
		status := s.runs[evt.RunID]
		if status == nil {
			status = &store.RunStatus{RunID: evt.RunID}
			s.runs[evt.RunID] = status
		}
		status.Apply(evt)
		snapshot := *status
		snapshot.Discarded = maps.Clone(status.Discarded)
		touched[evt.RunID] = snapshot
	}
	s.mu.Unlock()

	for runID, status := range touched {
		if err := s.store.Put(ctx, status); err != nil {
			return fmt.Errorf("put run status %s: %w", runID, err)
		}
	}
	return nil
}

// Close implements the Sink interface; the store is owned by the caller.
func (s *StatusSink) Close(context.Context) error {
	return nil
}
