package models

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// SourceInfo identifies a metadata source
type SourceInfo struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description" yaml:"description"`
	Link        string `json:"link" yaml:"link"`
}

// MetaRecord is the normalized result of one source query for one candidate book
type MetaRecord struct {
	ID              string            `json:"id" yaml:"id"`
	Title           string            `json:"title" yaml:"title"`
	Authors         []string          `json:"authors" yaml:"authors"`
	Source          SourceInfo        `json:"source" yaml:"source"`
	URL             string            `json:"url" yaml:"url"`
	Cover           string            `json:"cover,omitempty" yaml:"cover,omitempty"`
	Description     string            `json:"description,omitempty" yaml:"description,omitempty"`
	Publisher       string            `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	PublishedDate   string            `json:"published_date,omitempty" yaml:"published_date,omitempty"` // YYYY, YYYY-MM or YYYY-MM-DD
	Rating          int               `json:"rating,omitempty" yaml:"rating,omitempty"`                 // 0-10, 0 = unknown
	Series          string            `json:"series,omitempty" yaml:"series,omitempty"`
	SeriesIndex     float64           `json:"series_index,omitempty" yaml:"series_index,omitempty"`
	Languages       []string          `json:"languages,omitempty" yaml:"languages,omitempty"`
	Tags            []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	Format          string            `json:"format,omitempty" yaml:"format,omitempty"`
	Identifiers     map[string]string `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`
	ConfidenceScore float64           `json:"confidence_score,omitempty" yaml:"confidence_score,omitempty"`
	MatchReason     string            `json:"match_reason,omitempty" yaml:"match_reason,omitempty"`
}

// Usable reports whether the record carries a title or at least one author
func (r MetaRecord) Usable() bool {
	return strings.TrimSpace(r.Title) != "" || len(r.Authors) > 0
}

// Book is the catalog entity a MetaRecord gets merged onto
type Book struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Authors       []string          `json:"authors"`
	Description   string            `json:"description,omitempty"`
	Publisher     string            `json:"publisher,omitempty"`
	Series        string            `json:"series,omitempty"`
	SeriesIndex   float64           `json:"series_index,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	Identifiers   map[string]string `json:"identifiers,omitempty"`
	Rating        int               `json:"rating,omitempty"`
	PublishedDate string            `json:"published_date,omitempty"`
	Cover         string            `json:"cover,omitempty"`
	Languages     []string          `json:"languages,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Clone returns a copy that shares no slices or maps with b
func (b Book) Clone() Book {
	out := b
	out.Authors = slices.Clone(b.Authors)
	out.Tags = slices.Clone(b.Tags)
	out.Languages = slices.Clone(b.Languages)
	out.Identifiers = maps.Clone(b.Identifiers)
	return out
}

// SourceSettings is the administrator-wide source configuration
type SourceSettings struct {
	Hierarchy  []string        `json:"hierarchy" yaml:"hierarchy" validate:"dive,required"`
	Enabled    map[string]bool `json:"enabled" yaml:"enabled"`
	AutoFetch  bool            `json:"auto_fetch" yaml:"auto_fetch"`
	SmartMerge bool            `json:"smart_merge" yaml:"smart_merge"`
}

// GloballyEnabled treats sources absent from the map as enabled
func (s SourceSettings) GloballyEnabled(id string) bool {
	enabled, ok := s.Enabled[id]
	return !ok || enabled
}

// Clone returns a deep copy so snapshots handed to concurrent callers stay independent
func (s SourceSettings) Clone() SourceSettings {
	out := s
	out.Hierarchy = slices.Clone(s.Hierarchy)
	out.Enabled = maps.Clone(s.Enabled)
	return out
}

// UserPreference is one caller's per-source override. A nil preference allows everything.
type UserPreference map[string]bool

// Allows treats sources the user has not mentioned as enabled
func (p UserPreference) Allows(id string) bool {
	enabled, ok := p[id]
	return !ok || enabled
}
