// Package detector decides when a static fetch must be re-rendered headless.
package detector

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

const defaultThreshold = 2048

// Heuristic promotes pages that look script-rendered and are missing the
// markup their kind needs: job-detail anchors on listings, a heading on
// detail pages.
type Heuristic struct {
	BodyLengthThreshold int
	DetailSegment       string
}

// NewHeuristic creates a new detector.
func NewHeuristic(threshold int, detailSegment string) *Heuristic {
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	if detailSegment == "" {
		detailSegment = "/jobs/p/"
	}
	return &Heuristic{BodyLengthThreshold: threshold, DetailSegment: detailSegment}
}

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte("id=\"root\""),
	[]byte("id=\"app\""),
	[]byte("data-reactroot"),
}

// ShouldPromote decides whether a headless fetch is required.
func (h *Heuristic) ShouldPromote(req crawler.FetchRequest, resp crawler.FetchResponse) bool {
	if resp.StatusCode != http.StatusOK || resp.UsedHeadless {
		return false
	}
	body := resp.Body
	if len(body) == 0 {
		return true
	}
	if h.hasKindMarkup(req.Kind, body) {
		return false
	}
	if len(body) < h.BodyLengthThreshold {
		return true
	}
	if scriptDensityHigh(body) {
		return true
	}
	for _, marker := range spaMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

func (h *Heuristic) hasKindMarkup(kind crawler.PageKind, body []byte) bool {
	lower := bytes.ToLower(body)
	switch kind {
	case crawler.PageListing:
		return bytes.Contains(lower, []byte(strings.ToLower(h.DetailSegment)))
	case crawler.PageDetail:
		return bytes.Contains(lower, []byte("<h1"))
	default:
		return false
	}
}

func scriptDensityHigh(body []byte) bool {
	lower := strings.ToLower(string(body))
	total := len(lower)
	if total == 0 {
		return false
	}

	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	scriptCoverage := 0
	searchPos := 0

	for {
		relativeStart := strings.Index(lower[searchPos:], openTag)
		if relativeStart == -1 {
			break
		}
		start := searchPos + relativeStart

		tagClose := strings.IndexByte(lower[start:], '>')
		if tagClose == -1 {
			// Malformed tag: the rest of the document counts as script.
			scriptCoverage += total - start
			break
		}
		contentStart := start + tagClose + 1

		relativeEnd := strings.Index(lower[contentStart:], closeTag)
		var nextSearch int
		if relativeEnd == -1 {
			nextSearch = total
		} else {
			nextSearch = contentStart + relativeEnd + len(closeTag)
		}

		scriptCoverage += nextSearch - start
		searchPos = nextSearch
	}

	if scriptCoverage == 0 {
		return false
	}
	return scriptCoverage*100/total >= 25
}
