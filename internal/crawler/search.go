package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// SearchFilters are the optional filters of a site search.
type SearchFilters struct {
	Keyword     string
	Location    string
	Category    string
	CareerLevel string
	JobType     string
}

// locationFacet selects the location facet that filters[location] refers to.
const locationFacet = "a0=Location&l0=0&l1=2&l2=4"

// BuildSearchURL composes the listing URL for filters. Only non-empty filters
// become query parameters.
func BuildSearchURL(baseURL, searchPath string, f SearchFilters) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(searchPath, "/"))
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}
	params := []struct{ facet, key, value string }{
		{"", "q", f.Keyword},
		{locationFacet, "filters[location][0]", f.Location},
		{"", "filters[categories][0]", f.Category},
		{"", "filters[career_level][0]", f.CareerLevel},
		{"", "filters[job_type][0]", f.JobType},
	}
	parts := make([]string, 0, len(params)+1)
	for _, p := range params {
		v := strings.TrimSpace(p.value)
		if v == "" {
			continue
		}
		if p.facet != "" {
			parts = append(parts, p.facet)
		}
		parts = append(parts, p.key+"="+strings.ReplaceAll(url.QueryEscape(v), "+", "%20"))
	}
	u.RawQuery = strings.Join(parts, "&")
	return u.String(), nil
}

// SeedRequests turns start URLs into first-page listing requests. Blank and
// repeated URLs are dropped; when nothing is left the fallback URL is used.
func SeedRequests(startURLs []string, fallback string) []CrawlRequest {
	seen := make(map[string]struct{}, len(startURLs))
	seeds := make([]CrawlRequest, 0, len(startURLs)+1)
	for _, raw := range startURLs {
		u := strings.TrimSpace(raw)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		seeds = append(seeds, Listing(u, u, 1))
	}
	if len(seeds) == 0 && strings.TrimSpace(fallback) != "" {
		seeds = append(seeds, Listing(fallback, fallback, 1))
	}
	return seeds
}
