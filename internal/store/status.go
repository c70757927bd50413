package store

import (
	"context"
	"errors"
	"time"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/progress"
)

// ErrNotFound signals that the requested run does not exist.
var ErrNotFound = errors.New("run status not found")

// RunState is the lifecycle state of a crawl run.
type RunState string

// Run states.
const (
	RunRunning   RunState = "running"
	RunSucceeded RunState = "succeeded"
	RunFailed    RunState = "failed"
)

// RunStatus aggregates the progress of one crawl run.
type RunStatus struct {
	RunID           string           `json:"run_id"`
	State           RunState         `json:"state"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      *time.Time       `json:"finished_at,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
	ListingPages    int64            `json:"listing_pages"`
	DetailsEnqueued int64            `json:"details_enqueued"`
	LinksEmitted    int64            `json:"links_emitted"`
	Saved           int64            `json:"saved"`
	Skipped         int64            `json:"skipped"`
	Failed          int64            `json:"failed"`
	FetchErrors     int64            `json:"fetch_errors"`
	Discarded       map[string]int64 `json:"discarded,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// Apply folds evt into the status.
func (s *RunStatus) Apply(evt progress.Event) {
	if s.RunID == "" {
		s.RunID = evt.RunID
	}
	if evt.TS.After(s.UpdatedAt) {
		s.UpdatedAt = evt.TS
	}
	switch evt.Stage {
	case progress.StageRunStart:
		s.State = RunRunning
		s.StartedAt = evt.TS
	case progress.StageRunDone, progress.StageRunFailed:
		s.State = RunSucceeded
		if evt.Stage == progress.StageRunFailed {
			s.State = RunFailed
			s.Error = evt.Note
		}
		finished := evt.TS
		s.FinishedAt = &finished
	case progress.StageListingDone:
		s.ListingPages++
		s.DetailsEnqueued += evt.Count
	case progress.StageLinksEmitted:
		s.ListingPages++
		s.LinksEmitted += evt.Count
		s.Saved += evt.Count
	case progress.StageDetailSaved:
		s.Saved += evt.Count
	case progress.StageDetailSkipped:
		s.Skipped++
	case progress.StageDetailFailed:
		s.Failed++
	case progress.StageDetailDiscarded:
		if s.Discarded == nil {
			s.Discarded = make(map[string]int64)
		}
		s.Discarded[evt.Reason]++
	case progress.StageFetchFailed:
		s.FetchErrors++
	}
}

// StatusStore persists run status snapshots.
type StatusStore interface {
	// Put replaces the stored snapshot for status.RunID.
	Put(ctx context.Context, status RunStatus) error
	// Get loads a snapshot or returns ErrNotFound.
	Get(ctx context.Context, runID string) (RunStatus, error)
	// Close releases the backing client.
	Close() error
}
