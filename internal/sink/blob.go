package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

// Blob stores each record as its own JSON object at <prefix>/<run_id>/<id>.json.
type Blob struct {
	store  crawler.BlobStore
	prefix string
	runID  string
}

// NewBlob wraps store. An empty prefix stores objects under the run id.
func NewBlob(store crawler.BlobStore, prefix, runID string) (*Blob, error) {
	if store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if runID == "" {
		return nil, fmt.Errorf("run id is required")
	}
	return &Blob{store: store, prefix: prefix, runID: runID}, nil
}

// ObjectPath returns where rec is stored.
func (s *Blob) ObjectPath(rec crawler.Record) string {
	return path.Join(s.prefix, s.runID, rec.RecordID()+".json")
}

// Write implements crawler.Sink.
func (s *Blob) Write(ctx context.Context, rec crawler.Record) error {
	if rec.RecordID() == "" {
		return fmt.Errorf("%s record has no id", rec.RecordKind())
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", rec.RecordKind(), err)
	}
	if _, err := s.store.PutObject(ctx, s.ObjectPath(rec), "application/json", bytes.NewReader(data)); err != nil {
		return fmt.Errorf("put %s: %w", s.ObjectPath(rec), err)
	}
	return nil
}

// Close implements crawler.Sink. The store's lifecycle belongs to its owner.
func (s *Blob) Close(context.Context) error { return nil }
