package extract

import (
	"go.uber.org/zap"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/sanitize"
)

// Field names used in Extraction.Sources.
const (
	FieldTitle       = "title"
	FieldCompany     = "company"
	FieldLogo        = "company_logo"
	FieldLocation    = "location"
	FieldSalary      = "salary"
	FieldJobType     = "job_type"
	FieldCategories  = "job_category"
	FieldCareerLevel = "career_level"
	FieldDatePosted  = "date_posted"
	FieldSkills      = "skills"
	FieldDescription = "description"
)

const (
	sourceJSONLD  = "json-ld"
	sourceDefault = "default"
)

// Config tunes the extractor.
type Config struct {
	// RemoteKeywords mark location text as remote/hybrid work. Empty means DefaultRemoteKeywords.
	RemoteKeywords []string
	CaseSensitive  bool
	Logger         *zap.Logger
}

// Extractor implements crawler.Extractor for job detail pages.
type Extractor struct {
	logger   *zap.Logger
	remote   keywordMatcher
	location []strategy
}

// New returns an Extractor configured by cfg.
func New(cfg Config) *Extractor {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Extractor{
		logger: logger,
		remote: newKeywordMatcher(cfg.RemoteKeywords, cfg.CaseSensitive),
	}
	e.location = e.locationStrategies()
	return e
}

// strategy is one entry of a field's fallback chain. find returns the
// candidates it sees in document order.
type strategy struct {
	source string
	find   func(p *crawler.Page) []string
}

// firstAccepted walks chain and returns the first candidate that is valid
// text and satisfies accept (when set).
func firstAccepted(p *crawler.Page, chain []strategy, accept func(string) bool) (crawler.FieldCandidate, bool) {
	for _, s := range chain {
		for _, v := range s.find(p) {
			v = collapse(v)
			if v == "" || !sanitize.IsValidText(v) {
				continue
			}
			if accept != nil && !accept(v) {
				continue
			}
			return crawler.FieldCandidate{Value: v, Source: s.source}, true
		}
	}
	return crawler.FieldCandidate{}, false
}

// Extract reads every field of a detail page. It never fails: fields no
// strategy can fill stay empty, except salary which falls back to
// crawler.SalaryNotDisclosed.
func (e *Extractor) Extract(p *crawler.Page) crawler.Extraction {
	var ext crawler.Extraction
	logger := e.logger.With(zap.String("url", p.URL.String()))

	posting, structured := findJobPosting(p.Doc, logger)
	if structured {
		e.applyPosting(p, posting, &ext)
		logger.Debug("structured job data found", zap.String("title", posting.Title))
	}

	fill := func(field string, target *string, chain []strategy, accept func(string) bool) {
		if *target != "" {
			return
		}
		if c, ok := firstAccepted(p, chain, accept); ok {
			*target = c.Value
			ext.Note(field, c.Source)
		}
	}
	fill(FieldTitle, &ext.Title, titleStrategies, nil)
	fill(FieldCompany, &ext.Company, companyStrategies, companyShape)
	fill(FieldLocation, &ext.Location, e.location, e.locationShape)
	fill(FieldSalary, &ext.Salary, salaryStrategies, nil)
	fill(FieldCareerLevel, &ext.CareerLevel, careerLevelStrategies, careerLevelShape)

	if ext.Salary == "" {
		ext.Salary = crawler.SalaryNotDisclosed
		ext.Note(FieldSalary, sourceDefault)
	}
	if ext.DatePosted == "" {
		if c, ok := datePosted(p); ok {
			ext.DatePosted = c.Value
			ext.Note(FieldDatePosted, c.Source)
		}
	}
	if ext.JobType == "" {
		if c, ok := jobType(p); ok {
			ext.JobType = c.Value
			ext.Note(FieldJobType, c.Source)
		}
	}
	if ext.CompanyLogoURL == "" {
		if c, ok := companyLogo(p); ok {
			ext.CompanyLogoURL = c.Value
			ext.Note(FieldLogo, c.Source)
		}
	}
	if ext.DescriptionHTML == "" {
		if c, ok := description(p); ok {
			ext.DescriptionHTML = c.Value
			ext.Note(FieldDescription, c.Source)
		}
	}
	if ext.DescriptionHTML != "" {
		ext.DescriptionText = PlainText(ext.DescriptionHTML)
	}
	if cats := categories(p); len(cats) > 0 {
		ext.Categories = cats
		ext.Note(FieldCategories, "category-links")
	}
	if skills, source := skills(p); len(skills) > 0 {
		ext.Skills = skills
		ext.Note(FieldSkills, source)
	}

	logger.Debug("fields extracted", zap.Any("sources", ext.Sources))
	return ext
}

func (e *Extractor) applyPosting(p *crawler.Page, posting jobPosting, ext *crawler.Extraction) {
	set := func(field string, target *string, value string) {
		if value == "" {
			return
		}
		*target = value
		ext.Note(field, sourceJSONLD)
	}
	set(FieldTitle, &ext.Title, posting.Title)
	set(FieldCompany, &ext.Company, posting.Company)
	set(FieldDatePosted, &ext.DatePosted, posting.DatePosted)
	set(FieldLocation, &ext.Location, posting.Location)
	set(FieldSalary, &ext.Salary, posting.Salary)
	set(FieldJobType, &ext.JobType, posting.JobType)
	if posting.Description != "" {
		set(FieldDescription, &ext.DescriptionHTML, CleanHTML(decodeMarkup(posting.Description)))
	}
	if posting.Logo != "" {
		if logo, err := crawler.NormalizeURL(posting.Logo, p.URL.String()); err == nil {
			set(FieldLogo, &ext.CompanyLogoURL, logo)
		}
	}
}
