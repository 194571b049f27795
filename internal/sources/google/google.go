// Package google searches the Google Books volumes API
package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	books "google.golang.org/api/books/v1"
	"google.golang.org/api/option"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/normalize"
)

const DefaultMaxResults = 10

// Source is the Google Books provider. APIKey is optional; unauthenticated
// requests work with a lower quota.
type Source struct {
	APIKey     string
	MaxResults int64

	// HTTPClient and Endpoint are overridden in tests
	HTTPClient *http.Client
	Endpoint   string
}

func New(apiKey string) *Source {
	return &Source{APIKey: apiKey, MaxResults: DefaultMaxResults}
}

func (s *Source) Info() models.SourceInfo {
	return models.SourceInfo{
		ID:          "google",
		Description: "Google Books",
		Link:        "https://books.google.com/",
	}
}

func (s *Source) service(ctx context.Context) (*books.Service, error) {
	var opts []option.ClientOption
	switch {
	case s.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(s.HTTPClient))
	case s.APIKey != "":
		opts = append(opts, option.WithAPIKey(s.APIKey))
	default:
		opts = append(opts, option.WithoutAuthentication())
	}
	if s.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.Endpoint))
	}

	svc, err := books.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create books client: %w", err)
	}
	return svc, nil
}

// Search runs an isbn: query when the input is an ISBN, otherwise a query built from the title tokens
func (s *Source) Search(ctx context.Context, query, genericCover, locale string) ([]models.MetaRecord, error) {
	q := searchQuery(query)
	if q == "" {
		return nil, nil
	}

	svc, err := s.service(ctx)
	if err != nil {
		return nil, err
	}

	maxResults := s.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	resp, err := svc.Volumes.List(q).MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query Google Books: %w", err)
	}

	records := make([]models.MetaRecord, 0, len(resp.Items))
	for _, vol := range resp.Items {
		if vol == nil || vol.VolumeInfo == nil {
			continue
		}
		records = append(records, s.toRecord(vol, genericCover, locale))
	}
	return records, nil
}

func searchQuery(query string) string {
	if isbn, ok := normalize.ValidateISBN(query); ok {
		return "isbn:" + isbn
	}
	return strings.Join(normalize.TitleTokens(query, true), " ")
}

func (s *Source) toRecord(vol *books.Volume, genericCover, locale string) models.MetaRecord {
	info := vol.VolumeInfo
	rec := models.MetaRecord{
		ID:            vol.Id,
		Title:         strings.TrimSpace(info.Title),
		Authors:       normalize.UniqueAuthors(info.Authors),
		Source:        s.Info(),
		URL:           "https://books.google.com/books?id=" + vol.Id,
		Description:   normalize.Description(info.Description, true),
		Publisher:     strings.TrimSpace(info.Publisher),
		PublishedDate: normalize.Date(info.PublishedDate),
		Rating:        int(info.AverageRating * 2),
		Tags:          info.Categories,
		Identifiers:   map[string]string{"google": vol.Id},
		Cover:         genericCover,
	}

	if info.Language != "" {
		rec.Languages = normalize.LanguageNames([]string{info.Language}, locale)
	}

	for _, id := range info.IndustryIdentifiers {
		if id == nil || (id.Type != "ISBN_13" && id.Type != "ISBN_10") {
			continue
		}
		isbn, ok := normalize.ValidateISBN(id.Identifier)
		if !ok {
			continue
		}
		// prefer ISBN-13 when both are present
		if _, have := rec.Identifiers["isbn"]; !have || len(isbn) == 13 {
			rec.Identifiers["isbn"] = isbn
		}
	}

	if info.ImageLinks != nil && info.ImageLinks.Thumbnail != "" {
		cover := strings.Replace(info.ImageLinks.Thumbnail, "http://", "https://", 1)
		rec.Cover = strings.Replace(cover, "&edge=curl", "", 1)
	}
	return rec
}
