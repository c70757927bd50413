package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// jobPosting holds the JobPosting fields the extractor reads. Every value is
// already flattened to text.
type jobPosting struct {
	Title       string
	Company     string
	Logo        string
	DatePosted  string
	Description string
	Location    string
	Salary      string
	JobType     string
}

// findJobPosting returns the first JSON-LD object typed JobPosting. Blocks
// that fail to parse are logged at debug level and skipped.
func findJobPosting(doc *goquery.Document, logger *zap.Logger) (jobPosting, bool) {
	var (
		found jobPosting
		ok    bool
	)
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}
		var parsed any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			logger.Debug("json-ld block unreadable", zap.Int("block", i), zap.Error(err))
			return true
		}
		for _, obj := range candidates(parsed) {
			if isJobPosting(obj) {
				found, ok = flattenPosting(obj), true
				return false
			}
		}
		return true
	})
	return found, ok
}

// candidates lists the objects of a JSON-LD document, unwrapping top-level
// arrays and @graph containers.
func candidates(v any) []map[string]any {
	var out []map[string]any
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			out = append(out, candidates(item)...)
		}
	case map[string]any:
		out = append(out, t)
		if graph, ok := t["@graph"]; ok {
			out = append(out, candidates(graph)...)
		}
	}
	return out
}

func isJobPosting(obj map[string]any) bool {
	for _, key := range []string{"@type", "type"} {
		switch t := obj[key].(type) {
		case string:
			if t == "JobPosting" {
				return true
			}
		case []any:
			for _, v := range t {
				if s, ok := v.(string); ok && s == "JobPosting" {
					return true
				}
			}
		}
	}
	return false
}

func flattenPosting(obj map[string]any) jobPosting {
	p := jobPosting{
		Title:       firstString(obj, "title", "name"),
		DatePosted:  str(obj["datePosted"]),
		Description: str(obj["description"]),
		Location:    postingLocation(obj["jobLocation"]),
		Salary:      postingSalary(obj["baseSalary"]),
		JobType:     strings.Join(strList(obj["employmentType"]), " / "),
	}
	switch org := obj["hiringOrganization"].(type) {
	case map[string]any:
		p.Company = str(org["name"])
		p.Logo = imageURL(org["logo"])
	case string:
		p.Company = strings.TrimSpace(org)
	}
	return p
}

func postingLocation(v any) string {
	var parts []string
	for _, loc := range objects(v) {
		switch addr := loc["address"].(type) {
		case map[string]any:
			parts = append(parts,
				str(addr["addressLocality"]),
				str(addr["addressRegion"]),
				nameOf(addr["addressCountry"]),
			)
		case string:
			parts = append(parts, addr)
		}
	}
	return joinDistinct(parts, ", ")
}

// postingSalary reads baseSalary in its common shapes: a bare value, a
// MonetaryAmount with a QuantitativeValue, or a min/max range.
func postingSalary(v any) string {
	amount, ok := v.(map[string]any)
	if !ok {
		return str(v)
	}
	currency := str(amount["currency"])
	var value string
	switch q := amount["value"].(type) {
	case map[string]any:
		value = str(q["value"])
		if value == "" {
			lo, hi := str(q["minValue"]), str(q["maxValue"])
			switch {
			case lo != "" && hi != "":
				value = lo + " - " + hi
			default:
				value = lo + hi
			}
		}
		if unit := str(q["unitText"]); value != "" && unit != "" {
			value += " per " + strings.ToLower(unit)
		}
	default:
		value = str(q)
	}
	if value == "" {
		return ""
	}
	if currency != "" {
		return currency + " " + value
	}
	return value
}

func imageURL(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		return firstString(t, "url", "contentUrl")
	}
	return ""
}

func nameOf(v any) string {
	if m, ok := v.(map[string]any); ok {
		return str(m["name"])
	}
	return str(v)
}

func objects(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := str(obj[k]); s != "" {
			return s
		}
	}
	return ""
}

func strList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := str(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := str(v); s != "" {
			return []string{s}
		}
	}
	return nil
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool, json.Number:
		return fmt.Sprint(t)
	}
	return ""
}
