package normalize

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxDescriptionLength bounds sanitized descriptions when markup is stripped
const MaxDescriptionLength = 5000

var (
	blockBreakRe   = regexp.MustCompile(`(?i)<\s*(br\s*/?|/p|/div|/li|/h[1-6])\s*>`)
	horizontalWSRe = regexp.MustCompile(`[ \t\f\v\x{00A0}\x{1680}\x{2000}-\x{200B}\x{202F}\x{205F}\x{3000}\x{FEFF}]+`)
	spaceNewlineRe = regexp.MustCompile(` ?\n ?`)
	manyNewlinesRe = regexp.MustCompile(`\n{3,}`)
	escapedPunctRe = regexp.MustCompile(`\\([-*_.!()\[\]#'"])`)
	strictPolicy   = bluemonday.StrictPolicy()
)

// Description cleans a free-text book description. With stripMarkup set, HTML
// is removed (paragraph and line breaks become newlines) and the result is
// truncated to MaxDescriptionLength at a word boundary with a trailing ellipsis.
func Description(raw string, stripMarkup bool) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")

	if stripMarkup {
		s = blockBreakRe.ReplaceAllString(s, "$0\n")
		s = strictPolicy.Sanitize(s)
		s = html.UnescapeString(s)
	}

	s = horizontalWSRe.ReplaceAllString(s, " ")
	s = spaceNewlineRe.ReplaceAllString(s, "\n")
	s = manyNewlinesRe.ReplaceAllString(s, "\n\n")
	s = escapedPunctRe.ReplaceAllString(s, "$1")
	s = strings.TrimSpace(s)

	if stripMarkup && utf8.RuneCountInString(s) > MaxDescriptionLength {
		s = truncateWords(s, MaxDescriptionLength)
	}
	return s
}

func truncateWords(s string, limit int) string {
	runes := []rune(s)
	cut := string(runes[:limit])
	if idx := strings.LastIndexAny(cut, " \n"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \n.,;:") + "..."
}
