package crawler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/progress"
)

// MachineConfig tunes the page state machine.
//   - CollectDetails: fetch detail pages, or emit link stubs straight from listings.
//   - MaxDuplicatePages: consecutive listing pages without fresh links before a seed stops paginating (0 disables).
//   - Source: label written on link stubs.
//   - RunID: attached to every record and progress event.
type MachineConfig struct {
	CollectDetails    bool
	MaxDuplicatePages int
	Source            string
	RunID             string
}

// MachineDeps groups the collaborators used by Machine.
type MachineDeps struct {
	Budget    *Budget
	Links     LinkFinder
	Extractor Extractor
	Assembler Assembler
	Sink      Sink
	Hasher    Hasher
	Clock     Clock
	Events    progress.Emitter
	Logger    *zap.Logger
}

// Machine classifies fetched pages by their request tag and decides what each
// one produces: follow-up requests for listings, records for details.
type Machine struct {
	cfg       MachineConfig
	budget    *Budget
	links     LinkFinder
	extractor Extractor
	assembler Assembler
	sink      Sink
	hasher    Hasher
	clock     Clock
	events    progress.Emitter
	logger    *zap.Logger
}

type nopEmitter struct{}

func (nopEmitter) Emit(progress.Event) {}

// NewMachine validates deps and returns a ready Machine.
func NewMachine(cfg MachineConfig, deps MachineDeps) (*Machine, error) {
	switch {
	case deps.Budget == nil:
		return nil, errors.New("budget is required")
	case deps.Links == nil:
		return nil, errors.New("link finder is required")
	case deps.Extractor == nil:
		return nil, errors.New("extractor is required")
	case deps.Assembler == nil:
		return nil, errors.New("assembler is required")
	case deps.Sink == nil:
		return nil, errors.New("sink is required")
	case deps.Hasher == nil:
		return nil, errors.New("hasher is required")
	case deps.Clock == nil:
		return nil, errors.New("clock is required")
	}
	events := deps.Events
	if events == nil {
		events = nopEmitter{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		cfg:       cfg,
		budget:    deps.Budget,
		links:     deps.Links,
		extractor: deps.Extractor,
		assembler: deps.Assembler,
		sink:      deps.Sink,
		hasher:    deps.Hasher,
		clock:     deps.Clock,
		events:    events,
		logger:    logger,
	}, nil
}

// Seed registers the seed listing pages and returns the ones not seen before.
func (m *Machine) Seed(reqs []CrawlRequest) []CrawlRequest {
	out := make([]CrawlRequest, 0, len(reqs))
	for _, req := range reqs {
		if req.Kind != PageListing {
			continue
		}
		if m.budget.MarkListing(req.URL) {
			out = append(out, req)
		}
	}
	return out
}

// Wants reports whether req is still worth fetching. Once the budget is met
// nothing a page could produce would be kept.
func (m *Machine) Wants(_ CrawlRequest) bool {
	return !m.budget.Exhausted()
}

// Handle processes one fetched page and returns the requests it discovered.
func (m *Machine) Handle(ctx context.Context, req CrawlRequest, page *Page) ([]CrawlRequest, error) {
	switch req.Kind {
	case PageListing:
		return m.handleListing(ctx, req, page), nil
	case PageDetail:
		m.handleDetail(ctx, req, page)
		return nil, nil
	default:
		return nil, fmt.Errorf("handle %s: unknown page kind %d", req.URL, req.Kind)
	}
}

func (m *Machine) handleListing(ctx context.Context, req CrawlRequest, page *Page) []CrawlRequest {
	logger := m.logger.With(zap.String("url", req.URL), zap.Int("page", req.PageNumber))
	found := m.links.FindJobLinks(page, m.budget.Visited)
	logger.Info("listing page scanned",
		zap.Int("raw_links", found.Raw),
		zap.Int("fresh_links", len(found.Fresh)),
	)

	var next []CrawlRequest
	if m.cfg.CollectDetails {
		admitted := m.budget.ReserveDetails(found.Fresh)
		next = make([]CrawlRequest, 0, len(admitted)+1)
		for _, u := range admitted {
			next = append(next, Detail(u, req.Seed))
		}
		logger.Info("detail pages enqueued", zap.Int("count", len(admitted)))
		m.emit(progress.Event{Stage: progress.StageListingDone, URL: req.URL, Page: req.PageNumber, Count: int64(len(admitted))})
	} else {
		claimed := m.budget.ClaimLinks(found.Fresh)
		m.writeLinks(ctx, claimed)
		logger.Info("job links emitted", zap.Int("count", len(claimed)), zap.Int("saved", m.budget.Saved()))
		m.emit(progress.Event{Stage: progress.StageLinksEmitted, URL: req.URL, Page: req.PageNumber, Count: int64(len(claimed))})
	}

	if nextReq, ok := m.nextListing(logger, req, page, found); ok {
		next = append(next, nextReq)
	}
	return next
}

func (m *Machine) nextListing(logger *zap.Logger, req CrawlRequest, page *Page, found LinkSet) (CrawlRequest, bool) {
	if !m.budget.ShouldPaginate(req.PageNumber, found.Raw) {
		logger.Debug("pagination stopped for seed", zap.String("seed", req.Seed))
		return CrawlRequest{}, false
	}
	streak := m.budget.TrackDuplicates(req.Seed, len(found.Fresh))
	if m.cfg.MaxDuplicatePages > 0 && streak >= m.cfg.MaxDuplicatePages {
		logger.Warn("pagination stopped after repeated pages without new jobs",
			zap.String("seed", req.Seed),
			zap.Int("duplicate_pages", streak),
		)
		return CrawlRequest{}, false
	}
	nextURL, ok := m.links.NextPageURL(page, req.PageNumber)
	if !ok {
		logger.Info("no more listing pages")
		return CrawlRequest{}, false
	}
	if !m.budget.MarkListing(nextURL) {
		logger.Warn("next listing page already queued", zap.String("next_url", nextURL))
		return CrawlRequest{}, false
	}
	logger.Info("listing page enqueued", zap.Int("next_page", req.PageNumber+1))
	return Listing(nextURL, req.Seed, req.PageNumber+1), true
}

func (m *Machine) writeLinks(ctx context.Context, urls []string) {
	now := m.clock.Now().UTC()
	for _, u := range urls {
		rec := LinkRecord{
			ID:        m.recordID(u),
			RunID:     m.cfg.RunID,
			URL:       u,
			Source:    m.cfg.Source,
			ScrapedAt: now,
		}
		if err := m.sink.Write(ctx, rec); err != nil {
			m.logger.Error("sink write failed", zap.String("url", u), zap.Error(err))
		}
	}
}

func (m *Machine) handleDetail(ctx context.Context, req CrawlRequest, page *Page) {
	logger := m.logger.With(zap.String("url", req.URL))
	if m.budget.Exhausted() {
		logger.Info("results target reached, skipping detail page")
		m.emit(progress.Event{Stage: progress.StageDetailSkipped, URL: req.URL})
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("detail page extraction failed", zap.Any("panic", r))
			m.emit(progress.Event{Stage: progress.StageDetailFailed, URL: req.URL, Note: fmt.Sprint(r)})
		}
	}()

	ext := m.extractor.Extract(page)
	rec, err := m.assembler.Assemble(ext, req.URL)
	if err != nil {
		reason := "invalid"
		var discard *DiscardError
		if errors.As(err, &discard) {
			reason = discard.Reason
		}
		logger.Warn("job record discarded", zap.String("title", ext.Title), zap.String("reason", reason), zap.Error(err))
		m.emit(progress.Event{Stage: progress.StageDetailDiscarded, URL: req.URL, Reason: reason})
		return
	}
	if !m.budget.Commit() {
		logger.Info("results target reached before record was saved", zap.String("title", rec.Title))
		m.emit(progress.Event{Stage: progress.StageDetailSkipped, URL: req.URL})
		return
	}
	rec.ID = m.recordID(rec.SourceURL)
	rec.RunID = m.cfg.RunID
	if err := m.sink.Write(ctx, rec); err != nil {
		logger.Error("sink write failed", zap.Error(err))
	}
	snap := m.budget.Snapshot()
	logger.Info("job saved",
		zap.String("title", rec.Title),
		zap.Int("saved", snap.Saved),
		zap.Int("wanted", snap.ResultsWanted),
	)
	m.emit(progress.Event{Stage: progress.StageDetailSaved, URL: req.URL, Count: 1})
}

func (m *Machine) recordID(u string) string {
	id, err := m.hasher.Hash([]byte(u))
	if err != nil {
		m.logger.Warn("record id hash failed", zap.String("url", u), zap.Error(err))
		return u
	}
	return id
}

func (m *Machine) emit(evt progress.Event) {
	evt.RunID = m.cfg.RunID
	evt.TS = m.clock.Now().UTC()
	m.events.Emit(evt)
}
