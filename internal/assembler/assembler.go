// Package assembler validates extractor output and turns it into the
// crawler.JobRecord written to sinks.
package assembler

import (
	"errors"

	"go.uber.org/zap"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/dates"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/sanitize"
)

// Discard reasons, in gate order.
const (
	ReasonInvalidTitle    = "invalid_title"
	ReasonInvalidCompany  = "invalid_company"
	ReasonEmptyTitle      = "empty_title"
	ReasonOutsideAgeLimit = "outside_age_limit"
)

// Sentinel errors wrapped by the *crawler.DiscardError Assemble returns.
var (
	ErrInvalidTitle    = errors.New("title is not valid text")
	ErrInvalidCompany  = errors.New("company is not valid text")
	ErrEmptyTitle      = errors.New("title is empty after sanitizing")
	ErrOutsideAgeLimit = errors.New("posting is older than the maximum job age")
)

// Config configures an Assembler.
type Config struct {
	MaxAge dates.MaxAge
	Clock  crawler.Clock
	Logger *zap.Logger
}

// Assembler implements crawler.Assembler.
type Assembler struct {
	maxAge dates.MaxAge
	clock  crawler.Clock
	filter *dates.Filter
	logger *zap.Logger
}

// New builds an Assembler. A nil clock is not allowed.
func New(cfg Config) (*Assembler, error) {
	if cfg.Clock == nil {
		return nil, errors.New("clock is required")
	}
	maxAge := cfg.MaxAge
	if maxAge == "" {
		maxAge = dates.AgeAll
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		maxAge: maxAge,
		clock:  cfg.Clock,
		filter: dates.NewFilter(cfg.Clock),
		logger: logger,
	}, nil
}

func discard(reason string, err error) error {
	return &crawler.DiscardError{Reason: reason, Err: err}
}

// Assemble sanitizes every short text field and applies the record gates in
// order: title validity, company validity, non-empty title, then posting age.
// Description markup is kept as extracted.
func (a *Assembler) Assemble(ext crawler.Extraction, sourceURL string) (crawler.JobRecord, error) {
	title, hasTitle := sanitize.Sanitize(ext.Title)
	company, hasCompany := sanitize.Sanitize(ext.Company)

	switch {
	case hasTitle && !sanitize.IsValidText(title):
		return crawler.JobRecord{}, discard(ReasonInvalidTitle, ErrInvalidTitle)
	case hasCompany && !sanitize.IsValidText(company):
		return crawler.JobRecord{}, discard(ReasonInvalidCompany, ErrInvalidCompany)
	case !hasTitle:
		return crawler.JobRecord{}, discard(ReasonEmptyTitle, ErrEmptyTitle)
	}

	datePosted := sanitize.Value(ext.DatePosted)
	if !a.filter.WithinAgeLimit(datePosted, a.maxAge) {
		return crawler.JobRecord{}, discard(ReasonOutsideAgeLimit, ErrOutsideAgeLimit)
	}

	salary := sanitize.Value(ext.Salary)
	if salary == "" {
		salary = crawler.SalaryNotDisclosed
	}

	rec := crawler.JobRecord{
		Title:           title,
		Company:         company,
		CompanyLogoURL:  ext.CompanyLogoURL,
		Location:        sanitize.Value(ext.Location),
		Salary:          salary,
		JobType:         sanitize.Value(ext.JobType),
		Categories:      sanitizeAll(ext.Categories),
		CareerLevel:     sanitize.Value(ext.CareerLevel),
		DatePosted:      datePosted,
		Skills:          sanitizeAll(ext.Skills),
		DescriptionHTML: ext.DescriptionHTML,
		DescriptionText: ext.DescriptionText,
		SourceURL:       sourceURL,
		ScrapedAt:       a.clock.Now().UTC(),
	}
	a.logQuality(rec)
	return rec, nil
}

func sanitizeAll(values []string) []string {
	var out []string
	for _, v := range values {
		if s, ok := sanitize.Sanitize(v); ok {
			out = append(out, s)
		}
	}
	return out
}

func (a *Assembler) logQuality(rec crawler.JobRecord) {
	logger := a.logger.With(zap.String("url", rec.SourceURL), zap.String("title", rec.Title))
	logger.Debug("record quality",
		zap.Bool("company", rec.Company != ""),
		zap.Bool("location", rec.Location != ""),
		zap.Bool("salary", rec.Salary != crawler.SalaryNotDisclosed),
		zap.Bool("date_posted", rec.DatePosted != ""),
		zap.Int("skills", len(rec.Skills)),
		zap.Bool("description", rec.DescriptionHTML != ""),
	)
	if rec.Company == "" {
		logger.Warn("record has no company")
	}
	if rec.DescriptionHTML == "" {
		logger.Warn("record has no description")
	}
}
