// Package app wires configuration into a runnable crawl. It builds the
// fetchers, the crawl machine, the output sinks, progress reporting and the
// optional status server, and owns their shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/api"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/assembler"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/clock/system"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/config"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/dispatcher"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/extract"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/hash/sha256"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/id/uuid"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/links"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/progress"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/progress/sinks"
	queuememory "github.com/JakeFAU/wuzzuf-jobs-crawler/internal/queue/memory"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/sink"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/store"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/worker"
)

// Option overrides a collaborator NewApp would otherwise build from config.
type Option func(*options)

type options struct {
	probe    crawler.Fetcher
	sinks    []crawler.Sink
	statuses store.StatusStore
	clock    crawler.Clock
}

// WithProbeFetcher replaces the colly fetcher.
func WithProbeFetcher(f crawler.Fetcher) Option {
	return func(o *options) { o.probe = f }
}

// WithSinks adds sinks next to the configured outputs.
func WithSinks(s ...crawler.Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, s...) }
}

// WithStatusStore replaces the configured run status store.
func WithStatusStore(s store.StatusStore) Option {
	return func(o *options) { o.statuses = s }
}

// WithClock replaces the system clock.
func WithClock(c crawler.Clock) Option {
	return func(o *options) { o.clock = c }
}

// Summary is what a finished run reports.
type Summary struct {
	RunID    string
	Saved    int
	Visited  int
	Duration time.Duration
}

// App holds the long-lived services of one crawl run.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	runID     string
	clock     crawler.Clock
	searchURL string
	registry  *prometheus.Registry
	statuses  store.StatusStore
	hub       *progress.Hub
	output    *sink.Fanout
	budget    *crawler.Budget
	machine   *crawler.Machine
	queue     *queuememory.Queue
	dispatch  *dispatcher.Dispatcher
	server    *api.Server
	closers   []func() error
}

// NewApp builds every component the configuration asks for. It fails fast:
// anything already opened is closed again before the error is returned.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	runID, err := uuid.New().NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	a := &App{
		cfg:      cfg,
		logger:   logger.With(zap.String("run_id", runID)),
		runID:    runID,
		clock:    o.clock,
		registry: prometheus.NewRegistry(),
	}
	if a.clock == nil {
		a.clock = system.New()
	}
	if err := a.build(ctx, o); err != nil {
		if closeErr := a.Close(context.Background()); closeErr != nil {
			a.logger.Warn("cleanup after failed init", zap.Error(closeErr))
		}
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, o options) error {
	cfg := a.cfg
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	statuses := o.statuses
	if statuses == nil {
		var err error
		if statuses, err = newStatusStore(cfg); err != nil {
			return err
		}
	}
	a.statuses = statuses

	promSink, err := sinks.NewPrometheusSink(a.registry)
	if err != nil {
		return fmt.Errorf("init prometheus sink: %w", err)
	}
	a.hub = progress.NewHub(
		progress.Config{Logger: a.logger.Named("progress")},
		sinks.NewLogSink(a.logger.Named("progress")),
		promSink,
		sinks.NewStatusSink(statuses, a.logger.Named("status")),
	)

	outputs, closers, err := newOutputs(ctx, cfg, a.runID, a.logger)
	a.closers = append(a.closers, closers...)
	if err != nil {
		return err
	}
	a.output = sink.NewFanout(append(outputs, o.sinks...)...)
	a.logger.Info("output sinks ready", zap.Int("sinks", a.output.Len()))

	fetchers := newFetchers(cfg, o.probe, a.logger)
	if fetchers.closer != nil {
		a.closers = append(a.closers, fetchers.closer)
	}

	limiter, err := ratelimit.New(ratelimit.Config{
		RPS:        cfg.Crawler.RateLimitRPS,
		Burst:      cfg.Crawler.RateLimitBurst,
		Registerer: a.registry,
	})
	if err != nil {
		return fmt.Errorf("init rate limiter: %w", err)
	}

	a.searchURL, err = crawler.BuildSearchURL(cfg.Site.BaseURL, cfg.Site.SearchPath, crawler.SearchFilters{
		Keyword:     cfg.Run.Keyword,
		Location:    cfg.Run.Location,
		Category:    cfg.Run.Category,
		CareerLevel: cfg.Run.CareerLevel,
		JobType:     cfg.Run.JobType,
	})
	if err != nil {
		return err
	}

	asm, err := assembler.New(assembler.Config{
		MaxAge: cfg.MaxJobAge(),
		Clock:  a.clock,
		Logger: a.logger.Named("assembler"),
	})
	if err != nil {
		return fmt.Errorf("init assembler: %w", err)
	}
	a.budget = crawler.NewBudget(cfg.Run.ResultsWanted, cfg.Run.MaxPages)
	a.machine, err = crawler.NewMachine(crawler.MachineConfig{
		CollectDetails:    cfg.Run.CollectDetails,
		MaxDuplicatePages: cfg.Run.MaxDuplicatePages,
		Source:            cfg.Site.Source,
		RunID:             a.runID,
	}, crawler.MachineDeps{
		Budget: a.budget,
		Links: links.New(links.Config{
			DetailSegment: cfg.Site.DetailSegment,
			ItemsPerPage:  cfg.Site.ItemsPerPage,
		}),
		Extractor: extract.New(extract.Config{
			RemoteKeywords: cfg.Extract.RemoteKeywords,
			CaseSensitive:  cfg.Extract.CaseSensitive,
			Logger:         a.logger.Named("extract"),
		}),
		Assembler: asm,
		Sink:      a.output,
		Hasher:    sha256.New(),
		Clock:     a.clock,
		Events:    a.hub,
		Logger:    a.logger.Named("machine"),
	})
	if err != nil {
		return fmt.Errorf("init crawl machine: %w", err)
	}

	a.queue = queuememory.NewQueue(cfg.Crawler.QueueDepth)
	retry := worker.NewRetryPolicy(
		cfg.HTTP.MaxAttempts,
		time.Duration(cfg.HTTP.BackoffInitialMs)*time.Millisecond,
		time.Duration(cfg.HTTP.BackoffMaxMs)*time.Millisecond,
	)
	workers := make([]dispatcher.Runner, 0, cfg.Crawler.Concurrency)
	for i := range cfg.Crawler.Concurrency {
		w, err := worker.New(i, worker.Config{
			HandlerTimeout: cfg.HandlerTimeout(),
			RunID:          a.runID,
		}, worker.Deps{
			Queue:    a.queue,
			Handler:  a.machine,
			Probe:    fetchers.probe,
			Headless: fetchers.headless,
			Detector: fetchers.detector,
			Limiter:  limiter,
			Retry:    retry,
			Events:   a.hub,
			Clock:    a.clock,
			Logger:   a.logger.Named("worker"),
		})
		if err != nil {
			return fmt.Errorf("init worker %d: %w", i, err)
		}
		workers = append(workers, w)
	}
	a.dispatch = dispatcher.New(a.queue, workers)

	if cfg.Server.Enabled {
		a.server, err = api.NewServer(api.Deps{
			Statuses:   statuses,
			Gatherer:   a.registry,
			Registerer: a.registry,
			Ready:      a.ready,
			Logger:     a.logger.Named("api"),
		})
		if err != nil {
			return fmt.Errorf("init api server: %w", err)
		}
	}
	return nil
}

// RunID identifies this run in records, events and the status store.
func (a *App) RunID() string { return a.runID }

// Statuses exposes the run status store.
func (a *App) Statuses() store.StatusStore { return a.statuses }

// Registry exposes the metrics registry the run reports into.
func (a *App) Registry() *prometheus.Registry { return a.registry }

// Run crawls until the budget is met, the queue drains or ctx ends. The
// status server, when enabled, is up for the duration of the call.
func (a *App) Run(ctx context.Context) (Summary, error) {
	start := a.clock.Now()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverDone := a.startServer(runCtx)
	defer func() {
		cancel()
		if serverDone != nil {
			<-serverDone
		}
	}()

	a.hub.Emit(progress.Event{RunID: a.runID, TS: start, Stage: progress.StageRunStart, Note: a.searchURL})
	a.logger.Info("run started",
		zap.String("search_url", a.searchURL),
		zap.Int("results_wanted", a.cfg.Run.ResultsWanted),
		zap.Int("max_pages", a.cfg.Run.MaxPages),
		zap.Bool("collect_details", a.cfg.Run.CollectDetails),
		zap.Int("concurrency", a.cfg.Crawler.Concurrency),
	)

	err := a.crawl(runCtx)
	a.queue.Close()

	snap := a.budget.Snapshot()
	summary := Summary{
		RunID:    a.runID,
		Saved:    snap.Saved,
		Visited:  snap.Visited,
		Duration: a.clock.Now().Sub(start),
	}
	finish := progress.Event{
		RunID: a.runID,
		TS:    a.clock.Now(),
		Stage: progress.StageRunDone,
		Count: int64(summary.Saved),
		Dur:   max(summary.Duration, 0),
	}
	fields := []zap.Field{
		zap.Int("saved", summary.Saved),
		zap.Int("visited", summary.Visited),
		zap.Duration("duration", summary.Duration),
	}
	if err != nil {
		finish.Stage = progress.StageRunFailed
		finish.Note = err.Error()
		a.hub.Emit(finish)
		a.logger.Error("run failed", append(fields, zap.Error(err))...)
		return summary, err
	}
	a.hub.Emit(finish)
	a.logger.Info("run finished", fields...)
	return summary, nil
}

func (a *App) crawl(ctx context.Context) error {
	seeds := a.machine.Seed(crawler.SeedRequests(a.cfg.Run.StartURLs, a.searchURL))
	if len(seeds) == 0 {
		return errors.New("no seed urls to crawl")
	}
	if err := a.dispatch.Seed(ctx, seeds); err != nil {
		return fmt.Errorf("seed crawl: %w", err)
	}
	if err := a.dispatch.Run(ctx); err != nil {
		return fmt.Errorf("run crawl: %w", err)
	}
	return nil
}

func (a *App) startServer(ctx context.Context) <-chan struct{} {
	if a.server == nil {
		return nil
	}
	done := make(chan struct{})
	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	go func() {
		defer close(done)
		a.logger.Info("status server started", zap.String("addr", addr))
		if err := a.server.ListenAndServe(ctx, addr); err != nil {
			a.logger.Error("status server error", zap.Error(err))
		}
	}()
	return done
}

// ready probes the status store; a run that has not reported yet is fine.
func (a *App) ready(ctx context.Context) error {
	if _, err := a.statuses.Get(ctx, a.runID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("status store: %w", err)
	}
	return nil
}

// Close flushes outputs and progress, then releases every client. It is safe
// to call on a partially built App.
func (a *App) Close(ctx context.Context) error {
	var err error
	if a.output != nil {
		err = multierr.Append(err, a.output.Close(ctx))
	}
	if a.hub != nil {
		err = multierr.Append(err, a.hub.Close(ctx))
	}
	if a.statuses != nil {
		err = multierr.Append(err, a.statuses.Close())
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	if err != nil {
		return fmt.Errorf("close app: %w", err)
	}
	return nil
}
