package crawler

import (
	"context"
	"io"
	"time"
)

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// HeadlessDetector decides whether a static fetch should be redone in a browser.
type HeadlessDetector interface {
	ShouldPromote(request FetchRequest, probe FetchResponse) bool
}

// RequestQueue holds pending crawl requests. Dequeue returns ErrQueueDrained
// once nothing is pending and nothing is in flight; Done marks a dequeued
// request as finished.
type RequestQueue interface {
	Enqueue(ctx context.Context, req CrawlRequest) error
	Dequeue(ctx context.Context) (CrawlRequest, error)
	Done()
}

// Sink appends records. Writers treat it as fire-and-forget.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close(ctx context.Context) error
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes record payloads to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// RecordStore persists records in a queryable store.
type RecordStore interface {
	SaveJob(ctx context.Context, rec JobRecord) error
	SaveLink(ctx context.Context, rec LinkRecord) error
	Close() error
}

// LinkSet is what link discovery found on one listing page. Raw counts every
// job anchor on the page; Fresh holds normalized URLs not yet visited.
type LinkSet struct {
	Raw   int
	Fresh []string
}

// LinkFinder discovers job links and the next listing page.
type LinkFinder interface {
	FindJobLinks(page *Page, seen func(string) bool) LinkSet
	NextPageURL(page *Page, pageNumber int) (string, bool)
}

// Extractor reads a detail page into an unvalidated extraction. It performs no I/O.
type Extractor interface {
	Extract(page *Page) Extraction
}

// Assembler validates an extraction and turns it into a record.
type Assembler interface {
	Assemble(ext Extraction, sourceURL string) (JobRecord, error)
}

// Hasher computes digests for record identity.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
