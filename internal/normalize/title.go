// Package normalize holds the pure helpers every metadata source and the merge
// engine share: title tokenizing, ISBN cleanup, partial dates, description
// cleanup and language names. Nothing here performs I/O.
package normalize

import (
	"regexp"
	"strings"
)

var titlePatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	// (2010) (Omnibus) [Hardcover] and friends
	{regexp.MustCompile(`(?i)[({\[](\d{4}|omnibus|anthology|hardcover|audiobook|audio\scd|paperback|turtleback|mass\s*market|edition|ed\.)[\])}]`), ""},
	// anything bracketed that mentions an edition
	{regexp.MustCompile(`(?i)[({\[][^)}\]]*?(edition|ed\.)[^)}\]]*?[\])}]`), ""},
	// thousands separators: 1,000 -> 1000
	{regexp.MustCompile(`(\d+),(\d+)`), "$1$2"},
	// hyphens only when preceded by whitespace
	{regexp.MustCompile(`\s-`), " "},
	{regexp.MustCompile("[:,;!@$%^&*(){}.`~\"\\s\\[\\]/《》「」“”]"), " "},
}

var joiners = map[string]bool{"a": true, "and": true, "the": true, "&": true}

// TitleTokens splits a title into search tokens with edition noise removed.
// When stripJoiners is set, "a", "and", "the" and "&" are dropped.
func TitleTokens(title string, stripJoiners bool) []string {
	for _, p := range titlePatterns {
		title = p.re.ReplaceAllString(title, p.repl)
	}

	var tokens []string
	for _, tok := range strings.Fields(title) {
		tok = strings.Trim(strings.TrimSpace(tok), `"'`)
		if tok == "" {
			continue
		}
		if stripJoiners && joiners[strings.ToLower(tok)] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// AuthorTokens splits an author name into tokens, dropping initials' periods and
// reordering "Last, First" into "First Last".
func AuthorTokens(author string) []string {
	author = strings.TrimSpace(author)
	if last, first, ok := strings.Cut(author, ","); ok && strings.TrimSpace(first) != "" {
		author = strings.TrimSpace(first) + " " + strings.TrimSpace(last)
	}
	author = strings.NewReplacer(".", " ", "(", " ", ")", " ").Replace(author)

	var tokens []string
	for _, tok := range strings.Fields(author) {
		if tok == "-" {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Query joins title tokens into a source query string
func Query(title string) string {
	return strings.Join(TitleTokens(title, true), " ")
}

// UniqueAuthors trims names and drops empty or repeated entries, keeping first-seen order
func UniqueAuthors(authors []string) []string {
	seen := make(map[string]bool, len(authors))
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		a = strings.Join(strings.Fields(a), " ")
		key := strings.ToLower(a)
		if a == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}
