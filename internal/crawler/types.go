package crawler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PageKind tags a crawl request with the role of the page it points at.
type PageKind int

// Page kinds understood by the state machine.
const (
	PageListing PageKind = iota + 1
	PageDetail
)

func (k PageKind) String() string {
	switch k {
	case PageListing:
		return "listing"
	case PageDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// CrawlRequest is a unit of work owned by the crawl driver until dispatched.
// PageNumber is only meaningful for listing requests and starts at 1.
type CrawlRequest struct {
	URL        string
	Kind       PageKind
	PageNumber int
	Seed       string
}

// Listing builds a listing request for the given seed page.
func Listing(rawURL, seed string, pageNumber int) CrawlRequest {
	return CrawlRequest{URL: rawURL, Kind: PageListing, PageNumber: pageNumber, Seed: seed}
}

// Detail builds a detail request discovered from seed.
func Detail(rawURL, seed string) CrawlRequest {
	return CrawlRequest{URL: rawURL, Kind: PageDetail, Seed: seed}
}

// Page is a fetched and parsed document plus the URL it was served from.
// It is never mutated; strategies that need to prune markup take a WorkingCopy.
type Page struct {
	URL *url.URL
	Doc *goquery.Document
}

// NewPage parses body as HTML and binds it to rawURL.
func NewPage(rawURL string, body []byte) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	doc.Url = u
	return &Page{URL: u, Doc: doc}, nil
}

// WorkingCopy returns a deep copy of the document that callers may mutate.
func (p *Page) WorkingCopy() *goquery.Document {
	return goquery.CloneDocument(p.Doc)
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Kind    PageKind
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL          string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
	RobotsStatus RobotsStatus
}

// RobotsStatus reports how robots.txt was evaluated for a fetch.
type RobotsStatus string

// Robots evaluation outcomes.
const (
	RobotsIgnored       RobotsStatus = "ignored"
	RobotsAllowed       RobotsStatus = "allowed"
	RobotsIndeterminate RobotsStatus = "indeterminate"
)

// StatusError is returned by fetchers when the server answered with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Code)
}

// FieldCandidate is one strategy's answer for a field, tagged with where it came from.
type FieldCandidate struct {
	Value  string
	Source string
}

// Extraction is the partial, unvalidated record produced from a detail page.
// Sources maps field names to the strategy that filled them.
type Extraction struct {
	Title           string
	Company         string
	CompanyLogoURL  string
	Location        string
	Salary          string
	JobType         string
	Categories      []string
	CareerLevel     string
	DatePosted      string
	Skills          []string
	DescriptionHTML string
	DescriptionText string
	Sources         map[string]string
}

// Note records which strategy produced field.
func (e *Extraction) Note(field, source string) {
	if e.Sources == nil {
		e.Sources = make(map[string]string)
	}
	e.Sources[field] = source
}

// Record is anything the state machine hands to a Sink.
type Record interface {
	RecordID() string
	RecordKind() string
}

// Salary sentinel used when no source yields a value.
const SalaryNotDisclosed = "Not disclosed"

// JobRecord is the assembled output for one detail page.
type JobRecord struct {
	ID              string    `json:"id"`
	RunID           string    `json:"run_id,omitempty"`
	Title           string    `json:"title"`
	Company         string    `json:"company,omitempty"`
	CompanyLogoURL  string    `json:"company_logo,omitempty"`
	Location        string    `json:"location,omitempty"`
	Salary          string    `json:"salary"`
	JobType         string    `json:"job_type,omitempty"`
	Categories      []string  `json:"job_category,omitempty"`
	CareerLevel     string    `json:"career_level,omitempty"`
	DatePosted      string    `json:"date_posted,omitempty"`
	Skills          []string  `json:"skills,omitempty"`
	DescriptionHTML string    `json:"description_html,omitempty"`
	DescriptionText string    `json:"description_text,omitempty"`
	SourceURL       string    `json:"url"`
	ScrapedAt       time.Time `json:"scraped_at"`
}

// RecordID implements Record.
func (r JobRecord) RecordID() string { return r.ID }

// RecordKind implements Record.
func (r JobRecord) RecordKind() string { return "job" }

// LinkRecord is the stub emitted for a discovered job URL when details are not collected.
type LinkRecord struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id,omitempty"`
	URL       string    `json:"url"`
	Source    string    `json:"source"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// RecordID implements Record.
func (r LinkRecord) RecordID() string { return r.ID }

// RecordKind implements Record.
func (r LinkRecord) RecordKind() string { return "link" }
