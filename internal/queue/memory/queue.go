// Package memory provides the in-process request queue used by a crawl run.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

// Queue is a FIFO of crawl requests that knows when a run is finished: once
// nothing is pending and no dequeued request is still in flight, Dequeue
// returns crawler.ErrQueueDrained to every waiting worker.
type Queue struct {
	mu       sync.Mutex
	items    []crawler.CrawlRequest
	inFlight int
	capacity int
	closed   bool
	wake     chan struct{}
}

// NewQueue constructs a queue holding at most capacity pending requests.
// Zero or less means unbounded.
func NewQueue(capacity int) *Queue {
	return &Queue{
		capacity: capacity,
		wake:     make(chan struct{}),
	}
}

// broadcastLocked wakes every goroutine blocked in Dequeue.
func (q *Queue) broadcastLocked() {
	close(q.wake)
	q.wake = make(chan struct{})
}

// Enqueue appends req. It fails with crawler.ErrQueueFull when the queue is
// at capacity and crawler.ErrQueueClosed after Close.
func (q *Queue) Enqueue(ctx context.Context, req crawler.CrawlRequest) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("enqueue canceled: %w", err)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return crawler.ErrQueueClosed
	}
	if q.capacity > 0 && len(q.items) >= q.capacity {
		return crawler.ErrQueueFull
	}
	q.items = append(q.items, req)
	q.broadcastLocked()
	return nil
}

// Dequeue pops the oldest request and counts it as in flight until Done.
func (q *Queue) Dequeue(ctx context.Context) (crawler.CrawlRequest, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			req := q.items[0]
			q.items[0] = crawler.CrawlRequest{}
			q.items = q.items[1:]
			q.inFlight++
			q.mu.Unlock()
			return req, nil
		}
		if q.closed {
			q.mu.Unlock()
			return crawler.CrawlRequest{}, crawler.ErrQueueClosed
		}
		if q.inFlight == 0 {
			q.mu.Unlock()
			return crawler.CrawlRequest{}, crawler.ErrQueueDrained
		}
		wake := q.wake
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return crawler.CrawlRequest{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
		case <-wake:
		}
	}
}

// Done marks one dequeued request as finished.
func (q *Queue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.inFlight > 0 {
		q.inFlight--
	}
	q.broadcastLocked()
}

// Len reports the number of pending requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops the queue. Pending requests are still handed out; afterwards
// Dequeue returns crawler.ErrQueueClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.broadcastLocked()
}
