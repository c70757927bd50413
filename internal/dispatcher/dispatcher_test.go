package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/queue/memory"
)

// drainingRunner consumes the queue until it drains.
type drainingRunner struct {
	queue *memory.Queue
	seen  *atomic.Int64
}

func (r drainingRunner) Run(ctx context.Context) error {
	for {
		_, err := r.queue.Dequeue(ctx)
		if errors.Is(err, crawler.ErrQueueDrained) {
			return nil
		}
		if err != nil {
			return err
		}
		r.seen.Add(1)
		r.queue.Done()
	}
}

type blockingRunner struct{}

func (blockingRunner) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type failingRunner struct{}

func (failingRunner) Run(context.Context) error { return errors.New("boom") }

func TestDispatcherRunsUntilDrained(t *testing.T) {
	t.Parallel()

	q := memory.NewQueue(0)
	var seen atomic.Int64
	d := New(q, []Runner{drainingRunner{q, &seen}, drainingRunner{q, &seen}, drainingRunner{q, &seen}})

	require.NoError(t, d.Seed(context.Background(), []crawler.CrawlRequest{
		crawler.Listing("https://a", "https://a", 1),
		crawler.Listing("https://b", "https://b", 1),
	}))
	require.NoError(t, d.Run(context.Background()))
	require.EqualValues(t, 2, seen.Load())
}

func TestDispatcherFirstErrorCancelsOthers(t *testing.T) {
	t.Parallel()

	d := New(memory.NewQueue(0), []Runner{blockingRunner{}, failingRunner{}})

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	select {
	case err := <-done:
		require.ErrorContains(t, err, "boom")
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after a worker failed")
	}
}

func TestDispatcherSeedForwardsErrors(t *testing.T) {
	t.Parallel()

	q := memory.NewQueue(1)
	d := New(q, nil)
	err := d.Seed(context.Background(), []crawler.CrawlRequest{
		crawler.Listing("https://a", "https://a", 1),
		crawler.Listing("https://b", "https://b", 1),
	})
	require.ErrorIs(t, err, crawler.ErrQueueFull)
	require.Error(t, d.Run(context.Background()))
}
