// Package llm turns a language model into a metadata source: it prompts for
// matching editions as JSON and maps the answer onto records
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/normalize"
)

// Generator turns a prompt into model text
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Source is a metadata source backed by a Generator
type Source struct {
	Meta      models.SourceInfo
	Generator Generator
	// Check reports why the backing model cannot be reached; nil means always ready
	Check func() error
}

func (s *Source) Info() models.SourceInfo {
	return s.Meta
}

func (s *Source) Ready() error {
	if s.Check == nil {
		return nil
	}
	return s.Check()
}

func (s *Source) Search(ctx context.Context, query, genericCover, locale string) ([]models.MetaRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if err := s.Ready(); err != nil {
		return nil, err
	}

	text, err := s.Generator.Generate(ctx, buildPrompt(query))
	if err != nil {
		return nil, err
	}

	candidates, err := parseCandidates(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Meta.ID, err)
	}

	records := make([]models.MetaRecord, 0, len(candidates))
	for i, c := range candidates {
		records = append(records, c.toRecord(s.Meta, i, genericCover, locale))
	}
	slog.Debug("Model returned candidates", "source", s.Meta.ID, "query", query, "count", len(records))
	return records, nil
}

// buildPrompt creates a prompt asking for up to three matching editions as JSON
func buildPrompt(query string) string {
	return `You are an expert bibliographic metadata cataloger. A librarian is looking for the book described by this search query:

"` + query + `"

INSTRUCTIONS:
1. Identify up to 3 published books that best match the query, most likely first
2. For each book provide:
   - title: Full title of the work (include subtitle if present)
   - authors: Array of author names, "First Last" order
   - publisher: Publisher of a well known edition
   - published_date: Publication date as YYYY, YYYY-MM or YYYY-MM-DD
   - description: Two or three sentence summary
   - isbn: ISBN-13 of that edition if you are certain, otherwise ""
   - language: ISO 639-1 code of the original language
   - series: Series name if the book belongs to one, otherwise ""
   - series_index: Position in the series, 0 if none
   - subjects: Up to 5 subject keywords
3. Do not invent books. If nothing matches, return an empty array

OUTPUT FORMAT:
Respond with ONLY a JSON array:

[{"title": "...", "authors": ["..."], "publisher": "...", "published_date": "...", "description": "...", "isbn": "...", "language": "...", "series": "...", "series_index": 0, "subjects": ["..."]}]`
}

type candidate struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Publisher     string   `json:"publisher"`
	PublishedDate string   `json:"published_date"`
	Description   string   `json:"description"`
	ISBN          string   `json:"isbn"`
	Language      string   `json:"language"`
	Series        string   `json:"series"`
	SeriesIndex   float64  `json:"series_index"`
	Subjects      []string `json:"subjects"`
}

// parseCandidates accepts a bare JSON array, an object wrapping one, or either inside a markdown code block
func parseCandidates(response string) ([]candidate, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var list []candidate
	if err := json.Unmarshal([]byte(response), &list); err == nil {
		return list, nil
	}

	// JSON mode in some models insists on an object at the top level
	var wrapped struct {
		Books []candidate `json:"books"`
	}
	if err := json.Unmarshal([]byte(response), &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return wrapped.Books, nil
}

func (c candidate) toRecord(info models.SourceInfo, idx int, genericCover, locale string) models.MetaRecord {
	rec := models.MetaRecord{
		ID:            fmt.Sprintf("%s-%d", info.ID, idx+1),
		Title:         strings.TrimSpace(c.Title),
		Authors:       normalize.UniqueAuthors(c.Authors),
		Source:        info,
		Description:   normalize.Description(c.Description, true),
		Publisher:     strings.TrimSpace(c.Publisher),
		PublishedDate: normalize.Date(c.PublishedDate),
		Series:        strings.TrimSpace(c.Series),
		Tags:          c.Subjects,
		Cover:         genericCover,
	}
	if rec.Series != "" {
		rec.SeriesIndex = c.SeriesIndex
	}
	if c.Language != "" {
		rec.Languages = normalize.LanguageNames([]string{c.Language}, locale)
	}
	if isbn, ok := normalize.ValidateISBNStrict(c.ISBN); ok {
		rec.Identifiers = map[string]string{"isbn": isbn}
	}
	return rec
}
