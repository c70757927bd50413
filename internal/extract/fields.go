package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/dates"
	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/sanitize"
)

const careersSelector = `a[href*="/jobs/careers/"]`

func selectorTexts(source, selector string) strategy {
	return strategy{
		source: source,
		find: func(p *crawler.Page) []string {
			return texts(p.Doc.Find(selector))
		},
	}
}

var titleStrategies = []strategy{
	selectorTexts("title-selector", `h1[data-qa="job-title"], h1.css-f9uh36`),
	selectorTexts("first-heading", "h1, h2, h3"),
}

var companyStrategies = []strategy{
	{
		source: "careers-link",
		find: func(p *crawler.Page) []string {
			out := texts(p.Doc.Find(careersSelector))
			for i, t := range out {
				out[i] = trimDashes(t)
			}
			return out
		},
	},
	selectorTexts("company-selector", `[data-qa="company-name"], div[class*="company"] a`),
}

func companyShape(v string) bool {
	n := utf8.RuneCountInString(v)
	return n >= 2 && n < 100
}

func trimDashes(s string) string {
	return strings.TrimSpace(strings.Trim(s, " -–—|"))
}

var currencyRe = regexp.MustCompile(`(?i)\b(?:EGP|USD|EUR|GBP|SAR|AED|KWD|QAR)\b|\$\s?\d`)

var salaryStrategies = []strategy{
	selectorTexts("salary-selector", `[data-qa="job-salary"], div.css-rcl8e5 span.css-4xky9y, [class*="salary"]`),
	{source: "salary-label", find: labelledValue("Salary")},
	{
		source: "currency-text",
		find: func(p *crawler.Page) []string {
			var out []string
			for _, t := range textNodes(p.Doc) {
				if utf8.RuneCountInString(t) <= 80 && currencyRe.MatchString(t) {
					out = append(out, t)
				}
			}
			return out
		},
	},
}

// labelledValue finds leaf elements reading "<label>:" and returns the text
// of their next sibling, or the text after the colon when label and value
// share an element.
func labelledValue(label string) func(p *crawler.Page) []string {
	re := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(label) + `\s*:?\s*(.*)$`)
	return func(p *crawler.Page) []string {
		var out []string
		p.Doc.Find("span, div, dt, th, strong, b, label, h3, h4, p").Each(func(_ int, s *goquery.Selection) {
			if s.Children().Length() > 0 {
				return
			}
			m := re.FindStringSubmatch(textOf(s))
			if m == nil {
				return
			}
			if value := strings.TrimSpace(m[1]); value != "" {
				out = append(out, value)
				return
			}
			if next := textOf(s.Next()); next != "" {
				out = append(out, next)
			}
		})
		return out
	}
}

var careerLevelHrefRe = regexp.MustCompile(`(?i)(?:entry-level|experienced|manager|senior-management|student)-jobs`)

var careerLevelStrategies = []strategy{
	{
		source: "career-link",
		find: func(p *crawler.Page) []string {
			return texts(p.Doc.Find("a[href]").FilterFunction(func(_ int, s *goquery.Selection) bool {
				return careerLevelHrefRe.MatchString(s.AttrOr("href", ""))
			}))
		},
	},
	selectorTexts("career-class", `[data-qa="career-level"], span[class*="career"]`),
	{source: "career-label", find: labelledValue("Career Level")},
}

func careerLevelShape(v string) bool {
	return utf8.RuneCountInString(v) < 50 && !strings.Contains(v, "http") && !strings.Contains(v, "css-")
}

// jobTypes maps employment-type URL fragments to the labels the site shows.
var jobTypes = []struct{ fragment, label string }{
	{"full-time-jobs", "Full Time"},
	{"part-time-jobs", "Part Time"},
	{"freelance", "Freelance / Project"},
	{"work-from-home-jobs", "Work From Home"},
	{"remote-jobs", "Remote"},
	{"internship", "Internship"},
	{"shift-based", "Shift Based"},
}

func jobTypeLabel(href string) (string, bool) {
	href = strings.ToLower(href)
	if strings.Contains(href, "/jobs/p/") {
		return "", false
	}
	for _, jt := range jobTypes {
		if strings.Contains(href, jt.fragment) {
			return jt.label, true
		}
	}
	return "", false
}

func jobType(p *crawler.Page) (crawler.FieldCandidate, bool) {
	var labels []string
	p.Doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if label, ok := jobTypeLabel(s.AttrOr("href", "")); ok {
			labels = append(labels, label)
		}
	})
	if len(labels) > 0 {
		return crawler.FieldCandidate{Value: joinDistinct(labels, " / "), Source: "job-type-links"}, true
	}
	p.Doc.Find("span, a, div, li").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		t := textOf(s)
		for _, jt := range jobTypes {
			if strings.EqualFold(t, jt.label) {
				labels = append(labels, jt.label)
				return
			}
		}
	})
	if len(labels) > 0 {
		return crawler.FieldCandidate{Value: joinDistinct(labels, " / "), Source: "job-type-text"}, true
	}
	return crawler.FieldCandidate{}, false
}

var categoryHrefRe = regexp.MustCompile(`(?i)/a/[^?#]*-jobs`)

// categories returns the text of generic "/a/...-Jobs" links that are not
// job-type or career-level links, deduplicated by exact text.
func categories(p *crawler.Page) []string {
	seen := make(map[string]struct{})
	var out []string
	p.Doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if !categoryHrefRe.MatchString(href) || careerLevelHrefRe.MatchString(href) {
			return
		}
		if _, isType := jobTypeLabel(href); isType {
			return
		}
		t := textOf(s)
		if t == "" || !sanitize.IsValidText(t) {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	})
	return out
}

var skillsHeadingRe = regexp.MustCompile(`(?i)^skills(?:\s*(?:and|&)\s*tools)?\s*:?$`)

const maxSkillLen = 50

// skills prefers tagged skill anchors and otherwise reads short values
// following a "Skills" heading. Values are deduplicated case-insensitively.
func skills(p *crawler.Page) ([]string, string) {
	if tagged := validShort(texts(p.Doc.Find(`a[data-qa="skill-tag"], div.css-158icaa a`))); len(tagged) > 0 {
		return distinctFold(tagged), "skill-tags"
	}
	heading := p.Doc.Find("h2, h3, h4, h5, strong, b, span, div, p").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return skillsHeadingRe.MatchString(textOf(s))
	}).First()
	if heading.Length() == 0 {
		return nil, ""
	}
	label := textOf(heading)
	for _, scope := range []*goquery.Selection{heading.NextAll(), heading.Parent().NextAll()} {
		items := scope.Find("a, li, span").AddSelection(scope.Filter("a, li, span"))
		var values []string
		for _, t := range validShort(texts(items)) {
			if !strings.EqualFold(t, label) {
				values = append(values, t)
			}
		}
		if len(values) > 0 {
			return distinctFold(values), "skills-heading"
		}
	}
	return nil, ""
}

func validShort(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if utf8.RuneCountInString(v) <= maxSkillLen && sanitize.IsValidText(v) {
			out = append(out, v)
		}
	}
	return out
}

const dateSelector = `[data-qa="job-posted-date"], div.css-4c4ojb, div.css-do6t5g, [class*="job-date"]`

// datePosted prefers posted-date markup, then machine-readable time
// elements, then any text node with a relative "N units ago" phrase.
func datePosted(p *crawler.Page) (crawler.FieldCandidate, bool) {
	for _, t := range texts(p.Doc.Find(dateSelector)) {
		if phrase, ok := dates.RelativePhrase(t); ok {
			return crawler.FieldCandidate{Value: phrase, Source: "date-selector"}, true
		}
		if dates.LooksLikeDate(t) {
			return crawler.FieldCandidate{Value: t, Source: "date-selector"}, true
		}
	}
	var found crawler.FieldCandidate
	p.Doc.Find("time").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, v := range []string{strings.TrimSpace(s.AttrOr("datetime", "")), textOf(s)} {
			if dates.LooksLikeDate(v) {
				found = crawler.FieldCandidate{Value: v, Source: "time-element"}
				return false
			}
		}
		return true
	})
	if found.Value != "" {
		return found, true
	}
	for _, t := range textNodes(p.Doc) {
		if phrase, ok := dates.RelativePhrase(t); ok {
			return crawler.FieldCandidate{Value: phrase, Source: "relative-text"}, true
		}
	}
	return crawler.FieldCandidate{}, false
}

const logoSelector = `img[data-qa="company-logo"], img[class*="logo"], img[alt*="logo"], img[alt*="Logo"]`

var placeholderMarkers = []string{"placeholder", "default", "blank", "spacer", "no-logo", "avatar"}

// companyLogo returns the first usable logo URL, normalized without query
// or fragment.
func companyLogo(p *crawler.Page) (crawler.FieldCandidate, bool) {
	base := p.URL.String()
	var found string
	p.Doc.Find(logoSelector).EachWithBreak(func(_ int, img *goquery.Selection) bool {
		found = firstImageURL(img, base, false)
		return found == ""
	})
	if found != "" {
		return crawler.FieldCandidate{Value: found, Source: "logo-image"}, true
	}
	p.Doc.Find(careersSelector + " img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		found = firstImageURL(img, base, true)
		return found == ""
	})
	if found != "" {
		return crawler.FieldCandidate{Value: found, Source: "company-link-image"}, true
	}
	return crawler.FieldCandidate{}, false
}

func firstImageURL(img *goquery.Selection, base string, skipPlaceholders bool) string {
	srcset := strings.TrimSpace(img.AttrOr("srcset", ""))
	if first, _, _ := strings.Cut(srcset, ","); first != "" {
		srcset = strings.Fields(first)[0]
	}
	for _, raw := range []string{img.AttrOr("src", ""), img.AttrOr("data-src", ""), img.AttrOr("data-lazy-src", ""), srcset} {
		u, err := crawler.NormalizeURL(raw, base)
		if err != nil {
			continue
		}
		if skipPlaceholders && isPlaceholder(u) {
			continue
		}
		return u
	}
	return ""
}

func isPlaceholder(u string) bool {
	lower := strings.ToLower(u)
	for _, m := range placeholderMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
