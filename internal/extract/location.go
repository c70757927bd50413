package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

var (
	titleLocationRe = regexp.MustCompile(`(?i)\bin\s+([^|]+?)\s+-\s+Apply\b`)
	dashSplitRe     = regexp.MustCompile(`\s+[-–—]\s+|\s*[–—]\s*`)
	locationNoiseRe = regexp.MustCompile(`(?i)\s*\b(?:posted|viewed|block\w*)\b.*$`)
)

// nonLocationPhrases appear in short navigation text that would otherwise
// look like a place.
var nonLocationPhrases = []string{
	"other jobs", "browse", "apply", "sign in", "log in", "sign up",
	"jobs in", "see more", "view all", "similar jobs", "share",
}

// locationStrategies is ordered from the most structured source to the
// loosest text heuristic.
func (e *Extractor) locationStrategies() []strategy {
	return []strategy{
		{source: "page-metadata", find: metadataLocation},
		{source: "location-selector", find: func(p *crawler.Page) []string {
			return texts(p.Doc.Find(`[data-qa="job-location"], span.css-5wys0k`))
		}},
		{source: "page-title", find: titleLocation},
		{source: "company-adjacent", find: e.adjacentLocation},
		{source: "short-text", find: e.shortTextLocation},
		{source: "company-dash-suffix", find: dashSuffixLocation},
	}
}

func (e *Extractor) locationShape(v string) bool {
	n := utf8.RuneCountInString(v)
	if n < 2 || n > 80 || strings.ContainsAny(v, "[]{}<>") {
		return false
	}
	lower := strings.ToLower(v)
	for _, phrase := range nonLocationPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}

// metadataLocation combines locality, region and country microdata or meta
// tags, dropping case-insensitive repeats.
func metadataLocation(p *crawler.Page) []string {
	var parts []string
	for _, key := range []string{"addressLocality", "addressRegion", "addressCountry"} {
		sel := p.Doc.Find(fmt.Sprintf(`[itemprop=%q], meta[property="og:%s"], meta[name=%q]`, key, strings.ToLower(key), key)).First()
		if sel.Length() == 0 {
			continue
		}
		value := strings.TrimSpace(sel.AttrOr("content", ""))
		if value == "" {
			value = textOf(sel)
		}
		parts = append(parts, value)
	}
	if joined := joinDistinct(parts, ", "); joined != "" {
		return []string{joined}
	}
	return nil
}

// titleLocation reads "... in <place> - Apply" from the document title.
func titleLocation(p *crawler.Page) []string {
	m := titleLocationRe.FindStringSubmatch(textOf(p.Doc.Find("title").First()))
	if m == nil {
		return nil
	}
	place := dashSplitRe.Split(m[1], -1)[0]
	return []string{strings.TrimSpace(place)}
}

// companyContext returns the text around the first company link with the
// company name itself removed.
func companyContext(p *crawler.Page) string {
	link := p.Doc.Find(careersSelector).First()
	if link.Length() == 0 {
		return ""
	}
	container := link.Parent()
	if textOf(container) == textOf(link) {
		container = container.Parent()
	}
	text := strings.Replace(textOf(container), textOf(link), " ", 1)
	return collapse(locationNoiseRe.ReplaceAllString(text, ""))
}

func (e *Extractor) adjacentLocation(p *crawler.Page) []string {
	var out []string
	for _, seg := range dashSplitRe.Split(companyContext(p), -1) {
		seg = trimDashes(seg)
		if strings.Contains(seg, ",") || e.remote.Match(seg) {
			out = append(out, seg)
		}
	}
	return out
}

func (e *Extractor) shortTextLocation(p *crawler.Page) []string {
	var out []string
	for _, t := range textNodes(p.Doc) {
		if utf8.RuneCountInString(t) > 80 {
			continue
		}
		lower := strings.ToLower(t)
		if strings.Contains(lower, "posted") || strings.Contains(lower, "ago") {
			continue
		}
		if strings.Contains(t, ",") || e.remote.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

func dashSuffixLocation(p *crawler.Page) []string {
	segs := dashSplitRe.Split(companyContext(p), -1)
	if len(segs) == 0 {
		return nil
	}
	if last := trimDashes(segs[len(segs)-1]); last != "" {
		return []string{last}
	}
	return nil
}

