package crawler

import "errors"

// Queue errors shared by RequestQueue implementations.
var (
	ErrQueueDrained = errors.New("queue drained")
	ErrQueueClosed  = errors.New("queue closed")
	ErrQueueFull    = errors.New("queue full")
)

// DiscardError explains why an extraction did not become a record.
type DiscardError struct {
	Reason string
	Err    error
}

func (e *DiscardError) Error() string {
	if e.Err == nil {
		return "record discarded: " + e.Reason
	}
	return "record discarded: " + e.Err.Error()
}

func (e *DiscardError) Unwrap() error {
	return e.Err
}

// ErrRobotsDisallowed is returned by fetchers when robots.txt forbids a URL.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
