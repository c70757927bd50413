package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/progress"
)

// PrometheusSink exports crawl progress as Prometheus collectors.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runsRunning   prometheus.Gauge
	runRuntime    *prometheus.HistogramVec

	listingPages    prometheus.Counter
	detailsEnqueued prometheus.Counter
	linksEmitted    prometheus.Counter
	records         *prometheus.CounterVec
	discarded       *prometheus.CounterVec
	fetchFailures   *prometheus.CounterVec
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawler_runs_started_total",
			Help: "Total crawl runs that have started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_runs_completed_total",
			Help: "Total crawl runs completed partitioned by result.",
		}, []string{"result"}),
		runsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_runs_running",
			Help: "Current number of running crawl runs.",
		}),
		runRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crawler_run_runtime_seconds",
			Help:    "Wall time per completed crawl run.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		}, []string{"result"}),
		listingPages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawler_listing_pages_total",
			Help: "Listing pages processed.",
		}),
		detailsEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawler_detail_requests_enqueued_total",
			Help: "Detail pages enqueued from listing pages.",
		}),
		linksEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawler_links_emitted_total",
			Help: "Job link stubs written when details are not collected.",
		}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_detail_pages_total",
			Help: "Detail pages partitioned by outcome.",
		}, []string{"result"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_records_discarded_total",
			Help: "Assembled records rejected by validation, by reason.",
		}, []string{"reason"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_fetch_failures_total",
			Help: "Fetches that failed after retries, by status class.",
		}, []string{"status_class"}),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runsRunning,
		s.runRuntime,
		s.listingPages,
		s.detailsEnqueued,
		s.linksEmitted,
		s.records,
		s.discarded,
		s.fetchFailures,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
		s.runsRunning.Inc()
	case progress.StageRunDone:
		s.finishRun(evt, "success")
	case progress.StageRunFailed:
		s.finishRun(evt, "error")
	case progress.StageListingDone:
		s.listingPages.Inc()
		s.detailsEnqueued.Add(float64(evt.Count))
	case progress.StageLinksEmitted:
		s.listingPages.Inc()
		s.linksEmitted.Add(float64(evt.Count))
	case progress.StageDetailSaved:
		s.records.WithLabelValues("saved").Inc()
	case progress.StageDetailSkipped:
		s.records.WithLabelValues("skipped").Inc()
	case progress.StageDetailFailed:
		s.records.WithLabelValues("failed").Inc()
	case progress.StageDetailDiscarded:
		s.records.WithLabelValues("discarded").Inc()
		s.discarded.WithLabelValues(evt.Reason).Inc()
	case progress.StageFetchFailed:
		class := evt.StatusClass
		if class == "" {
			class = progress.StatusOther
		}
		s.fetchFailures.WithLabelValues(string(class)).Inc()
	}
}

func (s *PrometheusSink) finishRun(evt progress.Event, result string) {
	s.runsCompleted.WithLabelValues(result).Inc()
	s.runsRunning.Dec()
	if evt.Dur > 0 {
		s.runRuntime.WithLabelValues(result).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
