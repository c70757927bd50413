package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

// RecordStore implements crawler.RecordStore in memory. Like the SQL stores,
// it keeps the first record written for an id.
type RecordStore struct {
	mu    sync.RWMutex
	jobs  map[string]crawler.JobRecord
	links map[string]crawler.LinkRecord
	order []string
}

// NewRecordStore constructs an empty RecordStore.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		jobs:  make(map[string]crawler.JobRecord),
		links: make(map[string]crawler.LinkRecord),
	}
}

// SaveJob stores rec unless its id is already present.
func (s *RecordStore) SaveJob(_ context.Context, rec crawler.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[rec.ID]; ok {
		return nil
	}
	s.jobs[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return nil
}

// SaveLink stores rec unless its id is already present.
func (s *RecordStore) SaveLink(_ context.Context, rec crawler.LinkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[rec.ID]; ok {
		return nil
	}
	s.links[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return nil
}

// Jobs returns stored job records in insertion order.
func (s *RecordStore) Jobs() []crawler.JobRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]crawler.JobRecord, 0, len(s.jobs))
	for _, id := range s.order {
		if rec, ok := s.jobs[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Links returns stored link records in insertion order.
func (s *RecordStore) Links() []crawler.LinkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]crawler.LinkRecord, 0, len(s.links))
	for _, id := range s.order {
		if rec, ok := s.links[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Close is a no-op.
func (s *RecordStore) Close() error { return nil }
