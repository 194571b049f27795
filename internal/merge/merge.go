// Package merge decides which fields of a metadata record should overwrite a book.
//
// Apply is pure: it works on a copy of the book and never touches storage, so a
// caller either commits the whole returned book or nothing.
package merge

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/normalize"
)

// Policy selects how conflicting single-value text fields are resolved
type Policy string

const (
	// Smart only replaces title and description with longer text, and publisher only when empty
	Smart Policy = "smart"
	// Normal replaces every field the record has a value for
	Normal Policy = "normal"
)

// PolicyFor maps the smart_merge setting onto a Policy
func PolicyFor(smartMerge bool) Policy {
	if smartMerge {
		return Smart
	}
	return Normal
}

// ParsePolicy accepts "smart" or "normal"; empty means smart
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Smart:
		return Smart, nil
	case Normal:
		return Normal, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q", s)
	}
}

// Outcome is the book after merging and the names of the fields that changed
type Outcome struct {
	Book   models.Book
	Fields []string
}

// Changed reports whether any field rule fired
func (o Outcome) Changed() bool {
	return len(o.Fields) > 0
}

// Apply merges rec onto a copy of book. Every rule only fires when it would
// actually alter the value, so applying the same record twice reports no
// changes the second time.
func Apply(rec models.MetaRecord, book models.Book, policy Policy) Outcome {
	out := Outcome{Book: book.Clone()}
	b := &out.Book
	mark := func(field string) { out.Fields = append(out.Fields, field) }

	if replaceText(b.Title, rec.Title, policy) {
		b.Title = strings.TrimSpace(rec.Title)
		mark("title")
	}

	authors := normalize.UniqueAuthors(rec.Authors)
	if len(authors) > 0 && !slices.Equal(authors, b.Authors) {
		b.Authors = authors
		mark("authors")
	}

	if replaceText(b.Description, rec.Description, policy) {
		b.Description = strings.TrimSpace(rec.Description)
		mark("description")
	}

	if publisher := strings.TrimSpace(rec.Publisher); publisher != "" && publisher != b.Publisher {
		if policy != Smart || b.Publisher == "" {
			b.Publisher = publisher
			mark("publisher")
		}
	}

	if tags, added := union(b.Tags, rec.Tags); added {
		b.Tags = tags
		mark("tags")
	}

	if ids, changed := mergeIdentifiers(b.Identifiers, rec.Identifiers); changed {
		b.Identifiers = ids
		mark("identifiers")
	}

	if series := strings.TrimSpace(rec.Series); series != "" && (series != b.Series || rec.SeriesIndex != b.SeriesIndex) {
		b.Series = series
		b.SeriesIndex = rec.SeriesIndex
		mark("series")
	}

	if date := normalize.Date(rec.PublishedDate); date != "" && date != b.PublishedDate {
		b.PublishedDate = date
		mark("published_date")
	}

	if rec.Rating > 0 && rec.Rating != b.Rating {
		b.Rating = rec.Rating
		mark("rating")
	}

	if cover := strings.TrimSpace(rec.Cover); cover != "" && b.Cover == "" {
		b.Cover = cover
		mark("cover")
	}

	if languages, added := union(b.Languages, rec.Languages); added {
		b.Languages = languages
		mark("languages")
	}

	return out
}

// replaceText applies the title/description rule: smart wants strictly more
// characters, normal wants any different non-empty value
func replaceText(current, candidate string, policy Policy) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || candidate == current {
		return false
	}
	if policy == Smart {
		return utf8.RuneCountInString(candidate) > utf8.RuneCountInString(current)
	}
	return true
}

// union appends values not already present (case-insensitively) and reports whether any were added
func union(existing, incoming []string) ([]string, bool) {
	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, v := range existing {
		seen[strings.ToLower(v)] = true
	}
	out := existing
	added := false
	for _, v := range incoming {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		if !added {
			out = slices.Clone(existing)
			added = true
		}
		seen[key] = true
		out = append(out, v)
	}
	return out, added
}

// mergeIdentifiers adds new identifier types and updates existing ones; nothing is removed.
// Types compare case-insensitively. When incoming repeats a type under different
// casing, the first key in sorted order wins.
func mergeIdentifiers(existing, incoming map[string]string) (map[string]string, bool) {
	out := existing
	changed := false
	seen := make(map[string]bool, len(incoming))
	for _, raw := range slices.Sorted(maps.Keys(incoming)) {
		typ := strings.ToLower(strings.TrimSpace(raw))
		value := strings.TrimSpace(incoming[raw])
		if typ == "" || value == "" || seen[typ] {
			continue
		}
		seen[typ] = true

		key, found := identifierKey(existing, typ)
		if found && existing[key] == value {
			continue
		}
		if !changed {
			out = maps.Clone(existing)
			if out == nil {
				out = make(map[string]string, len(incoming))
			}
			changed = true
		}
		out[key] = value
	}
	return out, changed
}

// identifierKey finds the key ids stores typ under. An exact lowercase key is
// preferred over other casings; typ itself is returned when there is none.
func identifierKey(ids map[string]string, typ string) (string, bool) {
	if _, ok := ids[typ]; ok {
		return typ, true
	}
	for _, key := range slices.Sorted(maps.Keys(ids)) {
		if strings.EqualFold(strings.TrimSpace(key), typ) {
			return key, true
		}
	}
	return typ, false
}
