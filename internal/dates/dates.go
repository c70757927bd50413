// Package dates parses the posting dates job pages print ("3 days ago",
// "2024-05-01") and applies the run's maximum job age.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// MaxAge is the configured maximum posting age.
type MaxAge string

// Supported maximum ages. Any other value disables the filter.
const (
	AgeAll    MaxAge = "all"
	Age7Days  MaxAge = "7 days"
	Age30Days MaxAge = "30 days"
	Age90Days MaxAge = "90 days"
)

var thresholds = map[MaxAge]int{
	Age7Days:  7,
	Age30Days: 30,
	Age90Days: 90,
}

// ParseMaxAge normalizes s and reports whether it is one of the known values.
func ParseMaxAge(s string) (MaxAge, bool) {
	age := MaxAge(strings.ToLower(strings.TrimSpace(s)))
	if age == AgeAll {
		return age, true
	}
	_, ok := thresholds[age]
	return age, ok
}

// Days returns the threshold in days, or false when the age is unbounded.
func (a MaxAge) Days() (int, bool) {
	days, ok := thresholds[MaxAge(strings.ToLower(strings.TrimSpace(string(a))))]
	return days, ok
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

var (
	relativeRe  = regexp.MustCompile(`(?i)(\d+)\s*(minute|min|hour|hr|day|week|month|year)s?\s*ago`)
	justNowRe   = regexp.MustCompile(`(?i)\b(?:just now|today)\b`)
	yesterdayRe = regexp.MustCompile(`(?i)\byesterday\b`)
)

// Filter evaluates posting dates relative to its clock.
type Filter struct {
	clock Clock
}

// NewFilter returns a Filter reading the time from clock.
func NewFilter(clock Clock) *Filter {
	return &Filter{clock: clock}
}

// Parse turns a relative ("N units ago") or absolute date string into a time.
func (f *Filter) Parse(text string) (time.Time, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return time.Time{}, false
	}
	now := f.clock.Now()
	if m := relativeRe.FindStringSubmatch(t); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		switch strings.ToLower(m[2]) {
		case "minute", "min":
			return now.Add(-time.Duration(n) * time.Minute), true
		case "hour", "hr":
			return now.Add(-time.Duration(n) * time.Hour), true
		case "day":
			return now.AddDate(0, 0, -n), true
		case "week":
			return now.AddDate(0, 0, -7*n), true
		case "month":
			return now.AddDate(0, -n, 0), true
		case "year":
			return now.AddDate(-n, 0, 0), true
		}
	}
	if justNowRe.MatchString(t) {
		return now, true
	}
	if yesterdayRe.MatchString(t) {
		return now.AddDate(0, 0, -1), true
	}
	parsed, err := dateparse.ParseIn(t, now.Location())
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// WithinAgeLimit reports whether datePosted is no older than maxAge. An
// unbounded maxAge always passes; a missing or unparseable date fails any
// bounded one.
func (f *Filter) WithinAgeLimit(datePosted string, maxAge MaxAge) bool {
	days, bounded := maxAge.Days()
	if !bounded {
		return true
	}
	posted, ok := f.Parse(datePosted)
	if !ok {
		return false
	}
	age := f.clock.Now().Sub(posted).Hours() / 24
	return age <= float64(days)
}

// RelativePhrase returns the first "N units ago" phrase found in text.
func RelativePhrase(text string) (string, bool) {
	m := relativeRe.FindString(text)
	return m, m != ""
}

// LooksLikeDate reports whether text is something Parse can understand.
func LooksLikeDate(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	if relativeRe.MatchString(t) || justNowRe.MatchString(t) || yesterdayRe.MatchString(t) {
		return true
	}
	_, err := dateparse.ParseAny(t)
	return err == nil
}
