package sink

import (
	"context"
	"fmt"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

// Store writes records to a crawler.RecordStore.
type Store struct {
	store crawler.RecordStore
}

// NewStore wraps store; Close closes it.
func NewStore(store crawler.RecordStore) (*Store, error) {
	if store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	return &Store{store: store}, nil
}

// Write implements crawler.Sink.
func (s *Store) Write(ctx context.Context, rec crawler.Record) error {
	switch r := rec.(type) {
	case crawler.JobRecord:
		return s.store.SaveJob(ctx, r)
	case *crawler.JobRecord:
		return s.store.SaveJob(ctx, *r)
	case crawler.LinkRecord:
		return s.store.SaveLink(ctx, r)
	case *crawler.LinkRecord:
		return s.store.SaveLink(ctx, *r)
	default:
		return fmt.Errorf("unsupported record kind %q", rec.RecordKind())
	}
}

// Close implements crawler.Sink.
func (s *Store) Close(context.Context) error {
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close record store: %w", err)
	}
	return nil
}
