package extract

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

// noiseSelector matches page sections that never belong to a description.
const noiseSelector = `script, style, noscript, template, iframe, svg, form, nav, footer, header, ` +
	`[class*="similar"], [class*="related"], [class*="stats"], ` +
	`section:has(h2:contains("Similar Jobs")), section:has(h2:contains("Related Jobs"))`

const descriptionContainers = `[data-qa="job-description"], div.css-1uobp1k, [class*="job-description"], ` +
	`section[class*="description"], div[class*="description"]`

const (
	minBlockText     = 20
	minContainerText = 50
)

var (
	styleBlockRe = regexp.MustCompile(`(?is)<(?:style|script|noscript)\b[^>]*>.*?</(?:style|script|noscript)\s*>`)
	commentRe    = regexp.MustCompile(`(?s)<!--.*?-->`)
	attrRe       = regexp.MustCompile(`(?i)\s(?:class|style|id|role|data-[\w-]+|aria-[\w-]+|on[a-z]+)\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	classTokenRe = regexp.MustCompile(`(?i)\b(?:css|sc|jsx)-[a-z0-9]+\b`)
	emptyTagRe   = regexp.MustCompile(`<(p|li|span|div)>\s*</(?:p|li|span|div)>`)
)

// description builds the description markup from a working copy of the page
// with noise sections removed.
func description(p *crawler.Page) (crawler.FieldCandidate, bool) {
	doc := p.WorkingCopy()
	doc.Find(noiseSelector).Remove()

	scope := doc.Find(descriptionContainers).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return utf8.RuneCountInString(textOf(s)) > minContainerText
	}).First()
	source := "description-container"
	if scope.Length() == 0 {
		scope = doc.Find(`main, article, [role="main"]`).First()
		source = "main-content"
	}
	if scope.Length() == 0 {
		scope = doc.Find("body")
		source = "page-body"
	}

	var parts []string
	scope.Find("p, ul, ol").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsUntilSelection(scope).Filter("p, ul, ol").Length() > 0 {
			return
		}
		t := textOf(s)
		if utf8.RuneCountInString(t) <= minBlockText {
			return
		}
		if strings.Contains(t, "Viewed") || strings.Contains(t, "Not Selected") {
			return
		}
		if outer, err := goquery.OuterHtml(s); err == nil {
			parts = append(parts, outer)
		}
	})
	combined := strings.Join(parts, "")
	if combined == "" && source == "description-container" {
		combined, _ = scope.Html()
	}
	combined = CleanHTML(combined)
	if combined == "" {
		return crawler.FieldCandidate{}, false
	}
	return crawler.FieldCandidate{Value: combined, Source: source}, true
}

// CleanHTML strips residual style/script blocks, comments, presentational
// attributes and generated class tokens from a description fragment.
func CleanHTML(fragment string) string {
	s := styleBlockRe.ReplaceAllString(fragment, "")
	s = commentRe.ReplaceAllString(s, "")
	s = attrRe.ReplaceAllString(s, "")
	s = classTokenRe.ReplaceAllString(s, "")
	s = emptyTagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// decodeMarkup unescapes descriptions that embed their markup as entities.
func decodeMarkup(s string) string {
	if strings.Contains(s, "&lt;") {
		return html.UnescapeString(s)
	}
	return s
}
