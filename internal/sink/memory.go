package sink

import (
	"context"
	"sync"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

// Memory captures records in order. Useful in tests and dry runs.
type Memory struct {
	mu      sync.Mutex
	records []crawler.Record
	closed  bool
}

// NewMemory returns an empty Memory sink.
func NewMemory() *Memory { return &Memory{} }

// Write implements crawler.Sink.
func (m *Memory) Write(_ context.Context, rec crawler.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Close implements crawler.Sink.
func (m *Memory) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Records returns a copy of the captured records.
func (m *Memory) Records() []crawler.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]crawler.Record(nil), m.records...)
}

// Jobs returns the captured job records.
func (m *Memory) Jobs() []crawler.JobRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []crawler.JobRecord
	for _, r := range m.records {
		if job, ok := r.(crawler.JobRecord); ok {
			out = append(out, job)
		}
	}
	return out
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
