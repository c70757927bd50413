package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

// JSONL appends one JSON object per line to a file. Each write is flushed
// so a crashed run keeps every record written before the crash.
type JSONL struct {
	mu   sync.Mutex
	path string
	file *os.File
	buf  *bufio.Writer
}

// NewJSONL opens path for appending, creating parent directories.
func NewJSONL(path string) (*JSONL, error) {
	if path == "" {
		return nil, fmt.Errorf("jsonl path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create dataset dir for %s: %w", path, err)
	}
	// #nosec G304 -- dataset path comes from operator configuration.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	return &JSONL{path: path, file: f, buf: bufio.NewWriter(f)}, nil
}

// Write implements crawler.Sink.
func (s *JSONL) Write(ctx context.Context, rec crawler.Record) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", rec.RecordKind(), err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return fmt.Errorf("dataset %s is closed", s.path)
	}
	if _, err := s.buf.Write(line); err != nil {
		return fmt.Errorf("write dataset %s: %w", s.path, err)
	}
	if err := s.buf.Flush(); err != nil {
		return fmt.Errorf("flush dataset %s: %w", s.path, err)
	}
	return nil
}

// Close flushes and closes the file. Closing twice is a no-op.
func (s *JSONL) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	flushErr := s.buf.Flush()
	closeErr := s.file.Close()
	s.file = nil
	if flushErr != nil {
		return fmt.Errorf("flush dataset %s: %w", s.path, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close dataset %s: %w", s.path, closeErr)
	}
	return nil
}
