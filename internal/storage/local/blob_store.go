// Package local writes record blobs under a directory on the local filesystem.
package local

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Config captures the parameters for the local filesystem blob store.
type Config struct {
	// BaseDir is the root directory records are written under.
	BaseDir string `mapstructure:"base_dir"`
}

// BlobStore writes one file per object below baseDir. Files appear
// atomically, so a reader tailing a run directory never sees half a record.
type BlobStore struct {
	baseDir string
}

// New creates the base directory when missing and checks it is writable.
func New(cfg Config) (*BlobStore, error) {
	base := strings.TrimSpace(cfg.BaseDir)
	if base == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}

	if info, err := os.Stat(base); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("base directory %s is not a directory", base)
	}
	if err := os.MkdirAll(base, 0o750); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}

	probe, err := os.CreateTemp(base, ".writable-*")
	if err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	if err := os.Remove(name); err != nil {
		return nil, fmt.Errorf("remove write check file: %w", err)
	}

	return &BlobStore{baseDir: base}, nil
}

// resolve maps a slash-separated object path to a file under baseDir.
func (s *BlobStore) resolve(objectPath string) (string, error) {
	if strings.TrimSpace(objectPath) == "" {
		return "", fmt.Errorf("path is required")
	}
	rel := filepath.FromSlash(objectPath)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("path traversal detected: %s", objectPath)
	}
	return filepath.Join(s.baseDir, rel), nil
}

// PutObject stores data at objectPath and returns its file:// URI. An
// existing object at the same path is replaced, so re-saving a record with
// the same id keeps one file.
func (s *BlobStore) PutObject(ctx context.Context, objectPath string, _ string, data io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("put %s: %w", objectPath, err)
	}
	target, err := s.resolve(objectPath)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*")
	if err != nil {
		return "", fmt.Errorf("create temp object: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write object %s: %w", objectPath, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", objectPath, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("commit object %s: %w", objectPath, err)
	}
	committed = true

	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(target)}).String(), nil
}
