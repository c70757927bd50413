// Package sanitize cleans text scraped from job pages and rejects values that
// are really markup or style fragments that leaked through a selector.
package sanitize

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxPasses bounds the fixed-point loop in Sanitize. Inputs that still change
// after this many passes are rejected.
const maxPasses = 6

var (
	blockRe      = regexp.MustCompile(`(?is)<(?:style|script|noscript)\b[^>]*>.*?</(?:style|script|noscript)\s*>`)
	commentRe    = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagRe        = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	ruleBlockRe  = regexp.MustCompile(`[^\s{}]*\s*\{[^{}]*\}`)
	declRe       = regexp.MustCompile(`(?i)-?[a-z][a-z-]*\s*:\s*[^;:{}<>]{1,80};`)
	classTokenRe = regexp.MustCompile(`(?i)\b(?:css|sc|jsx)-[a-z0-9]+\b`)
	objectRe     = regexp.MustCompile(`(?i)\[object\s+object\]`)
	spaceRe      = regexp.MustCompile(`\s+`)
	punctRe      = regexp.MustCompile(`\s+([,.;:!?)])`)

	// A compound selector is an optional element name followed by class or id
	// parts. Element names are limited to tags seen on job pages so dotted
	// values like "vue.js" or "10.06.2025" survive.
	selectorPart = `(?:(?:a|article|aside|b|body|button|div|em|footer|form|h[1-6]|header|i|img|input|label|li|main|nav|ol|p|section|small|span|strong|svg|table|td|th|tr|ul)?(?:[.#][a-z_-][\w-]*)+)`
	selectorRe   = regexp.MustCompile(`^` + selectorPart + `(?:\s*[>+~]\s*` + selectorPart + `|\s+` + selectorPart + `)*$`)
	lengthRe     = regexp.MustCompile(`(?i)^-?\d+(?:\.\d+)?(?:px|em|rem|vh|vw|pt|%)$`)
)

// Sanitize strips markup and style noise from text. It returns false when
// nothing usable remains or what remains still looks like markup. Sanitize is
// idempotent: feeding its output back in returns the same value.
func Sanitize(text string) (string, bool) {
	current := text
	for range maxPasses {
		next := clean(current)
		if next == current {
			return accept(next)
		}
		current = next
	}
	return "", false
}

func clean(s string) string {
	s = blockRe.ReplaceAllString(s, " ")
	s = commentRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = blockRe.ReplaceAllString(s, " ")
	s = ruleBlockRe.ReplaceAllString(s, " ")
	s = declRe.ReplaceAllString(s, " ")
	s = classTokenRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, " ")
	s = objectRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = spaceRe.ReplaceAllString(s, " ")
	s = punctRe.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

func accept(s string) (string, bool) {
	switch {
	case s == "":
		return "", false
	case strings.HasPrefix(s, ".") || strings.HasPrefix(s, "#"):
		return "", false
	case strings.ContainsAny(s, "{}"):
		return "", false
	case selectorRe.MatchString(s):
		return "", false
	case lengthRe.MatchString(s):
		return "", false
	}
	return s, true
}

// Value is Sanitize without the flag, for fields where absence is the empty string.
func Value(text string) string {
	s, _ := Sanitize(text)
	return s
}

var (
	numericRe    = regexp.MustCompile(`^[\d\s.,%+-]+$`)
	styleVocabRe = regexp.MustCompile(`(?i)` +
		`\b(?:display|position|margin(?:-[a-z]+)?|padding(?:-[a-z]+)?|font-(?:size|weight|family|style)|line-height|z-index|` +
		`flex-(?:direction|wrap|grow|shrink|basis)|justify-content|align-(?:items|self|content)|grid-template(?:-[a-z]+)?|` +
		`text-(?:align|decoration|transform)|box-sizing|overflow(?:-[xy])?|opacity|transform|transition|border(?:-[a-z]+)?|` +
		`background(?:-[a-z]+)?|color|width|height|cursor)\s*:` +
		`|-(?:webkit|moz|ms)-[a-z]` +
		`|\b(?:rgba?|hsla?|calc|var)\s*\(` +
		`|!important` +
		`|\b(?:inline-block|inline-flex|flexbox|nowrap|min-width|max-width)\b` +
		`|\b\d+(?:\.\d+)?(?:px|rem|em|vh|vw|pt)\b` +
		`|[a-z-]+\s*:\s*[^;]*;`)
)

// IsValidText reports whether text looks like human-readable data rather than
// a number, a stray character or a style/markup fragment.
func IsValidText(text string) bool {
	t := strings.TrimSpace(text)
	if utf8.RuneCountInString(t) < 2 {
		return false
	}
	if numericRe.MatchString(t) {
		return false
	}
	if strings.ContainsAny(t, "{}[]<>") {
		return false
	}
	return !styleVocabRe.MatchString(t)
}
