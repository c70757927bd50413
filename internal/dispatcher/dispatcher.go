// Package dispatcher seeds the request queue and fans the crawl out to a
// pool of workers.
package dispatcher

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

// Runner is one pool goroutine's loop.
type Runner interface {
	Run(ctx context.Context) error
}

// Dispatcher runs workers over a shared queue.
type Dispatcher struct {
	queue   crawler.RequestQueue
	workers []Runner
}

// New creates a Dispatcher.
func New(queue crawler.RequestQueue, workers []Runner) *Dispatcher {
	return &Dispatcher{
		queue:   queue,
		workers: workers,
	}
}

// Seed enqueues the initial requests.
func (d *Dispatcher) Seed(ctx context.Context, reqs []crawler.CrawlRequest) error {
	for _, req := range reqs {
		if err := d.queue.Enqueue(ctx, req); err != nil {
			return fmt.Errorf("queue enqueue %s: %w", req.URL, err)
		}
	}
	return nil
}

// Run starts all workers and blocks until every one has returned. The first
// worker error cancels the others and is returned.
func (d *Dispatcher) Run(ctx context.Context) error {
	if len(d.workers) == 0 {
		return fmt.Errorf("dispatcher has no workers")
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range d.workers {
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("crawl workers: %w", err)
	}
	return nil
}
