// Package redis keeps run status snapshots in Redis so another process can
// serve them while the crawl runs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/store"
)

// Config captures the Redis connection and key layout.
type Config struct {
	Addr      string
	KeyPrefix string
	TTL       time.Duration
}

// StatusStore stores each run status as a JSON string under KeyPrefix+run id.
type StatusStore struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// New dials nothing up front; the client connects lazily.
func New(cfg Config) (*StatusStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	return NewWithClient(goredis.NewClient(&goredis.Options{Addr: cfg.Addr}), cfg.KeyPrefix, cfg.TTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, prefix string, ttl time.Duration) *StatusStore {
	return &StatusStore{client: client, prefix: prefix, ttl: ttl}
}

// Put writes the status snapshot, refreshing its TTL.
func (s *StatusStore) Put(ctx context.Context, status store.RunStatus) error {
	if status.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal run status: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+status.RunID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get reads a status snapshot or returns store.ErrNotFound.
func (s *StatusStore) Get(ctx context.Context, runID string) (store.RunStatus, error) {
	val, err := s.client.Get(ctx, s.prefix+runID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return store.RunStatus{}, store.ErrNotFound
		}
		return store.RunStatus{}, fmt.Errorf("redis get: %w", err)
	}
	var status store.RunStatus
	if err := json.Unmarshal(val, &status); err != nil {
		return store.RunStatus{}, fmt.Errorf("unmarshal run status: %w", err)
	}
	return status, nil
}

// Close closes the Redis client.
func (s *StatusStore) Close() error {
	return s.client.Close()
}
