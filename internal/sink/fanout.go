package sink

import (
	"context"

	"go.uber.org/multierr"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

// Fanout writes each record to every wrapped sink. A failing sink does not
// stop the others; their errors are combined.
type Fanout struct {
	sinks []crawler.Sink
}

// NewFanout returns a sink over sinks, skipping nils.
func NewFanout(sinks ...crawler.Sink) *Fanout {
	out := make([]crawler.Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Fanout{sinks: out}
}

// Len reports how many sinks are wrapped.
func (f *Fanout) Len() int { return len(f.sinks) }

// Write implements crawler.Sink.
func (f *Fanout) Write(ctx context.Context, rec crawler.Record) error {
	var err error
	for _, s := range f.sinks {
		err = multierr.Append(err, s.Write(ctx, rec))
	}
	return err
}

// Close implements crawler.Sink.
func (f *Fanout) Close(ctx context.Context) error {
	var err error
	for _, s := range f.sinks {
		err = multierr.Append(err, s.Close(ctx))
	}
	return err
}
