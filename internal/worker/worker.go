// Package worker implements the crawl loop run by each pool goroutine:
// dequeue, fetch with retries, optionally render headless, hand the page to
// the state machine and enqueue whatever it discovers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/progress"
)

// Handler is the page state machine as seen by a worker.
type Handler interface {
	Wants(req crawler.CrawlRequest) bool
	Handle(ctx context.Context, req crawler.CrawlRequest, page *crawler.Page) ([]crawler.CrawlRequest, error)
}

// Limiter paces requests per host.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Config controls Worker behavior.
type Config struct {
	// HandlerTimeout bounds one page's handling after its fetch. Zero means 90s.
	HandlerTimeout time.Duration
	RunID          string
}

// Deps groups the collaborators of a Worker. Headless, Detector, Limiter,
// Events and Logger are optional.
type Deps struct {
	Queue    crawler.RequestQueue
	Handler  Handler
	Probe    crawler.Fetcher
	Headless crawler.Fetcher
	Detector crawler.HeadlessDetector
	Limiter  Limiter
	Retry    *RetryPolicy
	Events   progress.Emitter
	Clock    crawler.Clock
	Logger   *zap.Logger
}

// Worker consumes crawl requests until the queue drains.
type Worker struct {
	id    int
	cfg   Config
	deps  Deps
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a Worker. Queue, Handler, Probe and Clock are required.
func New(id int, cfg Config, deps Deps) (*Worker, error) {
	switch {
	case deps.Queue == nil:
		return nil, errors.New("queue is required")
	case deps.Handler == nil:
		return nil, errors.New("handler is required")
	case deps.Probe == nil:
		return nil, errors.New("probe fetcher is required")
	case deps.Clock == nil:
		return nil, errors.New("clock is required")
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 90 * time.Second
	}
	if deps.Retry == nil {
		deps.Retry = NewRetryPolicy(0, 0, 0)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	deps.Logger = deps.Logger.With(zap.Int("worker", id))
	return &Worker{id: id, cfg: cfg, deps: deps, sleep: sleepCtx}, nil
}

// Run blocks until the queue drains or is closed (returning nil) or ctx ends
// (returning its error).
func (w *Worker) Run(ctx context.Context) error {
	for {
		req, err := w.deps.Queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, crawler.ErrQueueDrained) || errors.Is(err, crawler.ErrQueueClosed) {
				w.deps.Logger.Debug("queue finished, worker exiting")
				return nil
			}
			if ctx.Err() != nil {
				return fmt.Errorf("worker %d: %w", w.id, ctx.Err())
			}
			w.deps.Logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.process(ctx, req)
	}
}

func (w *Worker) process(ctx context.Context, req crawler.CrawlRequest) {
	defer w.deps.Queue.Done()
	logger := w.deps.Logger.With(zap.String("url", req.URL), zap.Stringer("kind", req.Kind))

	if !w.deps.Handler.Wants(req) {
		logger.Debug("request no longer needed")
		return
	}
	if w.deps.Limiter != nil {
		if err := w.deps.Limiter.Wait(ctx, req.URL); err != nil {
			logger.Warn("rate limit wait aborted", zap.Error(err))
			return
		}
	}

	fetchReq := crawler.FetchRequest{URL: req.URL, Kind: req.Kind}
	resp, err := w.fetchWithRetry(ctx, fetchReq, logger)
	if err != nil {
		w.fetchFailed(req, resp, err, logger)
		return
	}
	resp = w.maybePromote(ctx, fetchReq, resp, logger)

	pageURL := resp.URL
	if pageURL == "" {
		pageURL = req.URL
	}
	page, err := crawler.NewPage(pageURL, resp.Body)
	if err != nil {
		w.fetchFailed(req, resp, err, logger)
		return
	}

	handleCtx, cancel := context.WithTimeout(ctx, w.cfg.HandlerTimeout)
	defer cancel()
	next, err := w.deps.Handler.Handle(handleCtx, req, page)
	if err != nil {
		logger.Error("page handling failed", zap.Error(err))
		return
	}
	for _, n := range next {
		if err := w.deps.Queue.Enqueue(ctx, n); err != nil {
			logger.Warn("enqueue discovered request failed", zap.String("next_url", n.URL), zap.Error(err))
		}
	}
}

func (w *Worker) fetchWithRetry(ctx context.Context, req crawler.FetchRequest, logger *zap.Logger) (crawler.FetchResponse, error) {
	var (
		resp crawler.FetchResponse
		err  error
	)
	for attempt := 1; ; attempt++ {
		resp, err = w.deps.Probe.Fetch(ctx, req)
		if err == nil && resp.StatusCode >= 400 {
			err = &crawler.StatusError{URL: req.URL, Code: resp.StatusCode}
		}
		if err == nil {
			logger.Debug("page fetched",
				zap.Int("status", resp.StatusCode),
				zap.Duration("duration", resp.Duration),
				zap.Int("attempt", attempt),
			)
			return resp, nil
		}
		if !w.deps.Retry.ShouldRetry(err, attempt) {
			return resp, fmt.Errorf("fetch %s after %d attempt(s): %w", req.URL, attempt, err)
		}
		wait := w.deps.Retry.Backoff(attempt)
		logger.Warn("fetch failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if sleepErr := w.sleep(ctx, wait); sleepErr != nil {
			return resp, fmt.Errorf("fetch %s: %w", req.URL, sleepErr)
		}
	}
}

func (w *Worker) maybePromote(ctx context.Context, req crawler.FetchRequest, probe crawler.FetchResponse, logger *zap.Logger) crawler.FetchResponse {
	if w.deps.Headless == nil || w.deps.Detector == nil {
		return probe
	}
	if !w.deps.Detector.ShouldPromote(req, probe) {
		return probe
	}
	rendered, err := w.deps.Headless.Fetch(ctx, req)
	if err != nil {
		logger.Warn("headless promotion failed", zap.Error(err))
		return probe
	}
	rendered.UsedHeadless = true
	logger.Info("headless promotion applied", zap.Int("probe_bytes", len(probe.Body)), zap.Int("rendered_bytes", len(rendered.Body)))
	return rendered
}

func (w *Worker) fetchFailed(req crawler.CrawlRequest, resp crawler.FetchResponse, err error, logger *zap.Logger) {
	code := resp.StatusCode
	var statusErr *crawler.StatusError
	if errors.As(err, &statusErr) {
		code = statusErr.Code
	}
	logger.Warn("page fetch failed", zap.Int("status", code), zap.Error(err))
	if w.deps.Events == nil {
		return
	}
	w.deps.Events.Emit(progress.Event{
		RunID:       w.cfg.RunID,
		TS:          w.deps.Clock.Now().UTC(),
		Stage:       progress.StageFetchFailed,
		URL:         req.URL,
		Page:        req.PageNumber,
		StatusClass: progress.ClassifyStatus(code),
		Dur:         resp.Duration,
		Note:        err.Error(),
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
