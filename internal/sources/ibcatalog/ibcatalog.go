// Package ibcatalog searches a local Institutional Books dump, so lookups work offline
package ibcatalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/normalize"
)

const DefaultMaxResults = 5

// Source searches records loaded lazily from Path on first use
type Source struct {
	Path       string
	MaxResults int

	once    sync.Once
	entries []entry
	loadErr error
}

type entry struct {
	record Record
	words  map[string]bool
	text   string
}

func New(path string) *Source {
	return &Source{Path: path, MaxResults: DefaultMaxResults}
}

func (s *Source) Info() models.SourceInfo {
	return models.SourceInfo{
		ID:          "ibcatalog",
		Description: "Institutional Books (offline)",
		Link:        "https://huggingface.co/datasets/instdin/institutional-books-1.0",
	}
}

// Ready checks that the dump exists without loading it
func (s *Source) Ready() error {
	if s.Path == "" {
		return errors.New("IB_DATASET not set")
	}
	if _, err := os.Stat(s.Path); err != nil {
		return fmt.Errorf("dataset not readable: %w", err)
	}
	return nil
}

func (s *Source) load() error {
	s.once.Do(func() {
		records, err := Load(s.Path)
		if err != nil {
			s.loadErr = err
			return
		}
		s.entries = make([]entry, 0, len(records))
		for _, r := range records {
			text := normalize.Comparable(r.TitleSource + " " + r.AuthorSource)
			words := make(map[string]bool)
			for _, w := range strings.Fields(text) {
				words[w] = true
			}
			s.entries = append(s.entries, entry{record: r, words: words, text: text})
		}
	})
	return s.loadErr
}

// Search returns records whose title and author contain every query token,
// or whose ISBN matches, best similarity first
func (s *Source) Search(ctx context.Context, query, genericCover, locale string) ([]models.MetaRecord, error) {
	if err := s.load(); err != nil {
		return nil, err
	}

	if isbn, ok := normalize.ValidateISBN(query); ok {
		for _, e := range s.entries {
			for _, raw := range e.record.IdentifiersSource.ISBN {
				if clean, ok := normalize.ValidateISBN(raw); ok && clean == isbn {
					return []models.MetaRecord{s.toRecord(e.record, genericCover, locale)}, nil
				}
			}
		}
		return nil, nil
	}

	q := normalize.Comparable(normalize.Query(query))
	tokens := strings.Fields(q)
	if len(tokens) == 0 {
		return nil, nil
	}

	type hit struct {
		e     *entry
		score float64
	}
	var hits []hit
	for i := range s.entries {
		if i%1000 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e := &s.entries[i]
		if !containsAll(e.words, tokens) {
			continue
		}
		hits = append(hits, hit{e: e, score: normalize.Similarity(q, e.text)})
	}

	slices.SortStableFunc(hits, func(a, b hit) int { return cmp.Compare(b.score, a.score) })
	limit := s.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}

	records := make([]models.MetaRecord, 0, len(hits))
	for _, h := range hits {
		records = append(records, s.toRecord(h.e.record, genericCover, locale))
	}
	return records, nil
}

// authorName turns "Le Guin, Ursula K., 1929-2018" into "Ursula K. Le Guin"
func authorName(raw string) string {
	var parts []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" || strings.ContainsAny(p, "0123456789") {
			continue
		}
		parts = append(parts, p)
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return strings.TrimRight(parts[0], " .")
	default:
		return strings.TrimRight(parts[1], " ") + " " + parts[0]
	}
}

func containsAll(words map[string]bool, tokens []string) bool {
	for _, t := range tokens {
		if !words[t] {
			return false
		}
	}
	return true
}

func (s *Source) toRecord(r Record, genericCover, locale string) models.MetaRecord {
	rec := models.MetaRecord{
		ID:            r.BarcodeSource,
		Title:         strings.TrimRight(strings.TrimSpace(r.TitleSource), " /:;"),
		Source:        s.Info(),
		URL:           r.HathitrustDataExt.URL,
		PublishedDate: normalize.Date(r.PrimaryDate()),
		Identifiers:   map[string]string{"barcode": r.BarcodeSource},
		Cover:         genericCover,
		Description:   normalize.Description(r.GeneralNoteSource, true),
	}
	if author := authorName(r.AuthorSource); author != "" {
		rec.Authors = []string{author}
	}
	if r.LanguageSource != "" {
		rec.Languages = normalize.LanguageNames([]string{r.LanguageSource}, locale)
	}
	for _, tag := range []string{r.TopicOrSubjectSource, r.GenreOrFormSource} {
		if tag = strings.TrimSpace(tag); tag != "" {
			rec.Tags = append(rec.Tags, tag)
		}
	}
	for _, raw := range r.IdentifiersSource.ISBN {
		if isbn, ok := normalize.ValidateISBN(raw); ok {
			rec.Identifiers["isbn"] = isbn
			break
		}
	}
	if len(r.IdentifiersSource.OCLC) > 0 {
		rec.Identifiers["oclc"] = r.IdentifiersSource.OCLC[0]
	}
	if len(r.IdentifiersSource.LCCN) > 0 {
		rec.Identifiers["lccn"] = r.IdentifiersSource.LCCN[0]
	}
	return rec
}
