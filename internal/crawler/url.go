package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnusableURL marks references that can never be fetched (data:, javascript:, mailto:).
var ErrUnusableURL = errors.New("unusable url")

// NormalizeURL resolves rawURL against base and strips the query and fragment,
// producing the key used for deduplication.
func NormalizeURL(rawURL, base string) (string, error) {
	u, err := ResolveURL(rawURL, base)
	if err != nil {
		return "", err
	}
	u.RawQuery = ""
	u.ForceQuery = false
	return u.String(), nil
}

// ResolveURL turns rawURL into an absolute http(s) URL relative to base. It
// decodes entity-encoded ampersands, lowercases scheme and host, removes
// default ports and drops the fragment. The query is kept.
func ResolveURL(rawURL, base string) (*url.URL, error) {
	raw := strings.TrimSpace(strings.ReplaceAll(rawURL, "&amp;", "&"))
	if raw == "" {
		return nil, fmt.Errorf("empty url: %w", ErrUnusableURL)
	}
	lower := strings.ToLower(raw)
	for _, prefix := range []string{"data:", "javascript:", "mailto:", "tel:"} {
		if strings.HasPrefix(lower, prefix) {
			return nil, fmt.Errorf("%s scheme: %w", strings.TrimSuffix(prefix, ":"), ErrUnusableURL)
		}
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	u := baseURL.ResolveReference(ref)

	// Lowercase scheme and host
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("scheme %q: %w", u.Scheme, ErrUnusableURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host: %w", ErrUnusableURL)
	}

	// Remove default ports
	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""
	u.RawFragment = ""
	return u, nil
}
