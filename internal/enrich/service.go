// Package enrich is the entry point callers use to search metadata sources and
// apply a chosen record to a stored book.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/bookmeta/internal/dispatch"
	"github.com/lehigh-university-libraries/bookmeta/internal/merge"
	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/policy"
	"github.com/lehigh-university-libraries/bookmeta/internal/providers"
	"github.com/lehigh-university-libraries/bookmeta/internal/storage"
)

// ErrNotFound is returned by AutoEnrich when no eligible source produced a record
var ErrNotFound = errors.New("no metadata found")

// SettingsSource hands out settings snapshots; *settings.Store satisfies it
type SettingsSource interface {
	Current() models.SourceSettings
	Preference(user string) models.UserPreference
}

// Service wires the registry, settings, dispatcher and book store together
type Service struct {
	Registry     *providers.Registry
	Settings     SettingsSource
	Books        storage.BookStore
	Dispatcher   *dispatch.Dispatcher
	GenericCover string
}

// Request is one metadata search
type Request struct {
	Query  string
	Locale string
	// User selects a per-user source preference in explore mode; empty means none
	User string
}

// Explore queries every eligible source in parallel. The result is never an
// error: failing sources are reported in Outcomes and contribute no records.
// Records carry a confidence score and are ordered by the source hierarchy.
func (s *Service) Explore(ctx context.Context, req Request) dispatch.Result {
	current := s.Settings.Current()
	plan := policy.Resolve(s.Registry, current, s.Settings.Preference(req.User), policy.ModeExplore)
	if plan.Empty() {
		slog.Info("No eligible sources for search", "query", req.Query, "user", req.User)
		return dispatch.Result{}
	}

	result := s.Dispatcher.Explore(ctx, plan.Providers, s.dispatchRequest(req))
	Score(req.Query, result.Records)
	SortByHierarchy(result.Records, policy.Hierarchy(s.Registry, current.Hierarchy))
	return result
}

// AutoFetch walks eligible sources in hierarchy order and returns the first
// record of the first source that has one. The bool is false when auto fetch is
// disabled, nothing is eligible, or every source came back empty.
func (s *Service) AutoFetch(ctx context.Context, req Request) (models.MetaRecord, bool) {
	plan := policy.Resolve(s.Registry, s.Settings.Current(), nil, policy.ModeAuto)
	if plan.Empty() {
		slog.Info("Auto fetch has no eligible sources", "query", req.Query)
		return models.MetaRecord{}, false
	}

	result, ok := s.Dispatcher.Auto(ctx, plan.Providers, s.dispatchRequest(req))
	if !ok {
		return models.MetaRecord{}, false
	}
	Score(req.Query, result.Records[:1])
	return result.Records[0], true
}

// Apply merges rec onto the stored book and commits only when a field changed
func (s *Service) Apply(ctx context.Context, rec models.MetaRecord, bookID string, mergePolicy merge.Policy) (merge.Outcome, error) {
	book, err := s.Books.Get(ctx, bookID)
	if err != nil {
		return merge.Outcome{}, fmt.Errorf("failed to load book %s: %w", bookID, err)
	}

	outcome := merge.Apply(rec, book, mergePolicy)
	if !outcome.Changed() {
		slog.Debug("Metadata already applied", "book", bookID, "source", rec.Source.ID)
		return outcome, nil
	}

	if err := s.Books.Commit(ctx, outcome.Book); err != nil {
		return merge.Outcome{}, fmt.Errorf("failed to commit book %s: %w", bookID, err)
	}
	slog.Info("Applied metadata", "book", bookID, "source", rec.Source.ID, "policy", mergePolicy, "fields", outcome.Fields)
	return outcome, nil
}

// Enrichment is the result of AutoEnrich
type Enrichment struct {
	Record  models.MetaRecord `json:"record"`
	Fields  []string          `json:"fields"`
	Changed bool              `json:"changed"`
}

// AutoEnrich searches with the book's own title and first author, then applies
// the first hit using the configured merge policy
func (s *Service) AutoEnrich(ctx context.Context, bookID string) (Enrichment, error) {
	book, err := s.Books.Get(ctx, bookID)
	if err != nil {
		return Enrichment{}, fmt.Errorf("failed to load book %s: %w", bookID, err)
	}

	query := BookQuery(book)
	if query == "" {
		return Enrichment{}, fmt.Errorf("book %s has no title or authors to search with", bookID)
	}

	rec, ok := s.AutoFetch(ctx, Request{Query: query})
	if !ok {
		return Enrichment{}, fmt.Errorf("%w for book %s", ErrNotFound, bookID)
	}

	outcome, err := s.Apply(ctx, rec, bookID, merge.PolicyFor(s.Settings.Current().SmartMerge))
	if err != nil {
		return Enrichment{}, err
	}
	return Enrichment{Record: rec, Fields: outcome.Fields, Changed: outcome.Changed()}, nil
}

// BookQuery is the search string for a stored book: its title followed by its first author
func BookQuery(book models.Book) string {
	parts := []string{strings.TrimSpace(book.Title)}
	if len(book.Authors) > 0 {
		parts = append(parts, strings.TrimSpace(book.Authors[0]))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func (s *Service) dispatchRequest(req Request) dispatch.Request {
	return dispatch.Request{
		Query:        strings.TrimSpace(req.Query),
		GenericCover: s.GenericCover,
		Locale:       req.Locale,
	}
}
