package extract

import "strings"

// DefaultRemoteKeywords mark a location as remote or hybrid work.
var DefaultRemoteKeywords = []string{"remote", "hybrid", "work from home"}

// keywordMatcher finds configured phrases inside text.
type keywordMatcher struct {
	keywords      []string
	caseSensitive bool
}

func newKeywordMatcher(keywords []string, caseSensitive bool) keywordMatcher {
	if len(keywords) == 0 {
		keywords = DefaultRemoteKeywords
	}
	m := keywordMatcher{caseSensitive: caseSensitive}
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if !caseSensitive {
			k = strings.ToLower(k)
		}
		m.keywords = append(m.keywords, k)
	}
	return m
}

func (m keywordMatcher) Match(text string) bool {
	if !m.caseSensitive {
		text = strings.ToLower(text)
	}
	for _, k := range m.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
