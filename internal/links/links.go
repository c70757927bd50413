// Package links finds job detail links and the next results page on a listing page.
package links

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

// Config describes the site's URL layout.
type Config struct {
	// DetailSegment is the path fragment every job detail URL contains.
	DetailSegment string
	// ItemsPerPage is the step of the start query parameter between result pages.
	ItemsPerPage int
}

const (
	defaultDetailSegment = "/jobs/p/"
	defaultItemsPerPage  = 15
)

// secondarySelectors catch result cards whose title link does not carry the detail segment directly.
const secondarySelectors = `h2.css-m604qf a, .css-1gatmva a[href*="/jobs/"], h2 a[href*="/jobs/"], [data-qa="job-title"] a`

var nextSelectors = []string{
	`a[aria-label="Next"]`,
	`a[aria-label="next"]`,
	`a[rel="next"]`,
	`link[rel="next"]`,
	`li.next a`,
	`.pagination a.next`,
}

var nextLabels = map[string]struct{}{
	"›": {}, "»": {}, ">": {}, "next": {}, "next ›": {}, "next »": {},
}

var startParamRe = regexp.MustCompile(`(^|&)start=([^&]*)`)

// Finder implements crawler.LinkFinder.
type Finder struct {
	detailSegment string
	itemsPerPage  int
}

// New returns a Finder for cfg, filling defaults.
func New(cfg Config) *Finder {
	if cfg.DetailSegment == "" {
		cfg.DetailSegment = defaultDetailSegment
	}
	if cfg.ItemsPerPage <= 0 {
		cfg.ItemsPerPage = defaultItemsPerPage
	}
	return &Finder{detailSegment: cfg.DetailSegment, itemsPerPage: cfg.ItemsPerPage}
}

// FindJobLinks returns every distinct job link on page in document order.
// Links for which seen returns true are counted in Raw but left out of Fresh.
func (f *Finder) FindJobLinks(page *crawler.Page, seen func(string) bool) crawler.LinkSet {
	base := page.URL.String()
	index := make(map[string]struct{})
	var all []string
	collect := func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		u, err := crawler.NormalizeURL(href, base)
		if err != nil || !f.isJobURL(u) {
			return
		}
		if _, dup := index[u]; dup {
			return
		}
		index[u] = struct{}{}
		all = append(all, u)
	}
	page.Doc.Find(fmt.Sprintf("a[href*=%q]", f.detailSegment)).Each(collect)
	page.Doc.Find(secondarySelectors).Each(collect)

	fresh := make([]string, 0, len(all))
	for _, u := range all {
		if seen != nil && seen(u) {
			continue
		}
		fresh = append(fresh, u)
	}
	return crawler.LinkSet{Raw: len(all), Fresh: fresh}
}

func (f *Finder) isJobURL(u string) bool {
	if strings.Contains(u, f.detailSegment) {
		return true
	}
	return strings.Contains(u, "/jobs/") &&
		!strings.Contains(u, "/jobs/careers/") &&
		!strings.Contains(u, "/search/")
}

// NextPageURL resolves the following results page. An explicit pagination
// control wins; otherwise the start parameter is advanced by one page.
func (f *Finder) NextPageURL(page *crawler.Page, pageNumber int) (string, bool) {
	base := page.URL.String()
	current, err := crawler.ResolveURL(base, base)
	if err != nil {
		return "", false
	}
	if next, ok := f.explicitNext(page, base, current.String()); ok {
		return next, true
	}

	u := *current
	step := f.itemsPerPage
	if m := startParamRe.FindStringSubmatch(u.RawQuery); m != nil {
		start, convErr := strconv.Atoi(m[2])
		if convErr != nil {
			start = max(pageNumber-1, 0) * step
		}
		u.RawQuery = startParamRe.ReplaceAllString(u.RawQuery, "${1}start="+strconv.Itoa(start+step))
		return u.String(), true
	}
	start := max(pageNumber-1, 0)*step + step
	if u.RawQuery == "" {
		u.RawQuery = "start=" + strconv.Itoa(start)
	} else {
		u.RawQuery += "&start=" + strconv.Itoa(start)
	}
	return u.String(), true
}

func (f *Finder) explicitNext(page *crawler.Page, base, current string) (string, bool) {
	var found string
	accept := func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		u, err := crawler.ResolveURL(href, base)
		if err != nil || u.String() == current {
			return true
		}
		found = u.String()
		return false
	}
	for _, sel := range nextSelectors {
		page.Doc.Find(sel).EachWithBreak(accept)
		if found != "" {
			return found, true
		}
	}
	page.Doc.Find("a[href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		label := strings.ToLower(strings.TrimSpace(s.Text()))
		if _, ok := nextLabels[label]; !ok {
			return true
		}
		return accept(i, s)
	})
	return found, found != ""
}
