package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

// Topics routes records by kind. An empty Links topic sends link stubs to Jobs.
type Topics struct {
	Jobs  string
	Links string
}

// Publish sends every record to a crawler.Publisher.
type Publish struct {
	publisher crawler.Publisher
	topics    Topics
}

// NewPublish wraps publisher. If publisher is an io.Closer, Close closes it.
func NewPublish(publisher crawler.Publisher, topics Topics) (*Publish, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if topics.Jobs == "" {
		return nil, fmt.Errorf("jobs topic is required")
	}
	if topics.Links == "" {
		topics.Links = topics.Jobs
	}
	return &Publish{publisher: publisher, topics: topics}, nil
}

// Write implements crawler.Sink.
func (s *Publish) Write(ctx context.Context, rec crawler.Record) error {
	topic := s.topics.Jobs
	if rec.RecordKind() == "link" {
		topic = s.topics.Links
	}
	if _, err := s.publisher.Publish(ctx, topic, rec); err != nil {
		return fmt.Errorf("publish %s %s: %w", rec.RecordKind(), rec.RecordID(), err)
	}
	return nil
}

// Close implements crawler.Sink.
func (s *Publish) Close(context.Context) error {
	closer, ok := s.publisher.(io.Closer)
	if !ok {
		return nil
	}
	if err := closer.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}
	return nil
}
