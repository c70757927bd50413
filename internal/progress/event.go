// Package progress defines the event structures emitted while a crawl runs.
package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart        Stage = "RUN_START"
	StageRunDone         Stage = "RUN_DONE"
	StageRunFailed       Stage = "RUN_FAILED"
	StageListingDone     Stage = "LISTING_DONE"
	StageLinksEmitted    Stage = "LINKS_EMITTED"
	StageDetailSaved     Stage = "DETAIL_SAVED"
	StageDetailDiscarded Stage = "DETAIL_DISCARDED"
	StageDetailSkipped   Stage = "DETAIL_SKIPPED"
	StageDetailFailed    Stage = "DETAIL_FAILED"
	StageFetchFailed     Stage = "FETCH_FAILED"
)

// StatusClass is a coarse HTTP response grouping.
type StatusClass string

// Supported HTTP status classes tracked for fetch failures.
const (
	Status2xx   StatusClass = "2xx"
	Status3xx   StatusClass = "3xx"
	Status4xx   StatusClass = "4xx"
	Status5xx   StatusClass = "5xx"
	StatusOther StatusClass = "other"
)

// Event captures a single component of crawl progress.
type Event struct {
	// RunID identifies the crawl run.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// URL is the page the event is about, if any.
	URL string
	// Page is the listing page number for listing events.
	Page int
	// Count carries how many items the event accounts for (links enqueued, records saved).
	Count int64
	// Reason names why a detail record was discarded.
	Reason string
	// StatusClass groups the HTTP status of a failed fetch.
	StatusClass StatusClass
	// Dur captures run or fetch latency.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunFailed:
	case StageListingDone, StageLinksEmitted:
		if e.Page < 1 {
			return errors.New("listing events require a page number")
		}
	case StageDetailSaved, StageDetailSkipped, StageDetailFailed:
		if e.URL == "" {
			return fmt.Errorf("%s requires url", e.Stage)
		}
	case StageDetailDiscarded:
		if e.Reason == "" {
			return errors.New("discarded detail requires reason")
		}
	case StageFetchFailed:
		if e.URL == "" {
			return errors.New("fetch failure requires url")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Count < 0 {
		return errors.New("count must be >= 0")
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// ClassifyStatus groups HTTP status codes for fetch events.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code >= 200 && code < 300:
		return Status2xx
	case code >= 300 && code < 400:
		return Status3xx
	case code >= 400 && code < 500:
		return Status4xx
	case code >= 500 && code < 600:
		return Status5xx
	default:
		return StatusOther
	}
}
