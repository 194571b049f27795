// Package openlibrary searches Open Library: the Books API for ISBN lookups and
// search.json for everything else
package openlibrary

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/normalize"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/web"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultCoversURL = "https://covers.openlibrary.org"
	DefaultLimit     = 10
)

// Source retrieves book metadata from Open Library
type Source struct {
	HTTPClient *http.Client
	BaseURL    string
	CoversURL  string
	Limit      int
}

// New creates an Open Library source against the public endpoints
func New() *Source {
	return &Source{
		HTTPClient: web.NewHTTPClient(),
		BaseURL:    DefaultBaseURL,
		CoversURL:  DefaultCoversURL,
		Limit:      DefaultLimit,
	}
}

func (s *Source) Info() models.SourceInfo {
	return models.SourceInfo{
		ID:          "openlibrary",
		Description: "Open Library",
		Link:        "https://openlibrary.org/",
	}
}

func (s *Source) Search(ctx context.Context, query, genericCover, locale string) ([]models.MetaRecord, error) {
	if isbn, ok := normalize.ValidateISBN(query); ok {
		return s.searchISBN(ctx, isbn, genericCover, locale)
	}

	q := normalize.Query(query)
	if q == "" {
		return nil, nil
	}
	return s.searchTitle(ctx, q, genericCover, locale)
}

// booksResponse is the Books API response with jscmd=data, keyed by bibkey
type booksResponse map[string]struct {
	URL     string `json:"url"`
	Key     string `json:"key"`
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	PublishDate string `json:"publish_date"`
	Subjects    []struct {
		Name string `json:"name"`
	} `json:"subjects"`
	Identifiers struct {
		ISBN10      []string `json:"isbn_10"`
		ISBN13      []string `json:"isbn_13"`
		OCLC        []string `json:"oclc"`
		LCCN        []string `json:"lccn"`
		OpenLibrary []string `json:"openlibrary"`
	} `json:"identifiers"`
	Cover struct {
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
}

// searchISBN queries the Books API, which answers with at most one edition per bibkey
func (s *Source) searchISBN(ctx context.Context, isbn, genericCover, locale string) ([]models.MetaRecord, error) {
	key := "ISBN:" + isbn
	u := fmt.Sprintf("%s/api/books?bibkeys=%s&format=json&jscmd=data", s.BaseURL, url.QueryEscape(key))

	var result booksResponse
	if err := web.GetJSON(ctx, s.HTTPClient, u, &result); err != nil {
		return nil, fmt.Errorf("failed to query Open Library books API: %w", err)
	}

	book, ok := result[key]
	if !ok {
		return nil, nil
	}

	rec := models.MetaRecord{
		ID:            strings.TrimPrefix(book.Key, "/books/"),
		Title:         strings.TrimSpace(book.Title),
		Source:        s.Info(),
		URL:           book.URL,
		PublishedDate: normalize.Date(book.PublishDate),
		Identifiers:   map[string]string{"isbn": isbn},
		Cover:         genericCover,
	}
	for _, a := range book.Authors {
		rec.Authors = append(rec.Authors, a.Name)
	}
	rec.Authors = normalize.UniqueAuthors(rec.Authors)
	if len(book.Publishers) > 0 {
		rec.Publisher = strings.TrimSpace(book.Publishers[0].Name)
	}
	for _, subj := range book.Subjects {
		rec.Tags = append(rec.Tags, subj.Name)
	}
	if len(book.Identifiers.OCLC) > 0 {
		rec.Identifiers["oclc"] = book.Identifiers.OCLC[0]
	}
	if len(book.Identifiers.LCCN) > 0 {
		rec.Identifiers["lccn"] = book.Identifiers.LCCN[0]
	}
	if rec.ID != "" {
		rec.Identifiers["openlibrary"] = rec.ID
	}
	if book.Cover.Large != "" {
		rec.Cover = book.Cover.Large
	} else if book.Cover.Medium != "" {
		rec.Cover = book.Cover.Medium
	}
	return []models.MetaRecord{rec}, nil
}

type searchResponse struct {
	NumFound int `json:"numFound"`
	Docs     []struct {
		Key              string   `json:"key"`
		Title            string   `json:"title"`
		Subtitle         string   `json:"subtitle"`
		AuthorName       []string `json:"author_name"`
		FirstPublishYear int      `json:"first_publish_year"`
		Publisher        []string `json:"publisher"`
		ISBN             []string `json:"isbn"`
		CoverID          int      `json:"cover_i"`
		Subject          []string `json:"subject"`
		Language         []string `json:"language"`
		RatingsAverage   float64  `json:"ratings_average"`
	} `json:"docs"`
}

const searchFields = "key,title,subtitle,author_name,first_publish_year,publisher,isbn,cover_i,subject,language,ratings_average"

func (s *Source) searchTitle(ctx context.Context, q, genericCover, locale string) ([]models.MetaRecord, error) {
	limit := s.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", searchFields)
	u := s.BaseURL + "/search.json?" + params.Encode()

	var result searchResponse
	if err := web.GetJSON(ctx, s.HTTPClient, u, &result); err != nil {
		return nil, fmt.Errorf("failed to query Open Library search: %w", err)
	}

	records := make([]models.MetaRecord, 0, len(result.Docs))
	for _, doc := range result.Docs {
		workID := strings.TrimPrefix(doc.Key, "/works/")
		rec := models.MetaRecord{
			ID:          workID,
			Title:       strings.TrimSpace(doc.Title),
			Authors:     normalize.UniqueAuthors(doc.AuthorName),
			Source:      s.Info(),
			URL:         s.BaseURL + doc.Key,
			Rating:      int(doc.RatingsAverage * 2),
			Languages:   normalize.LanguageNames(doc.Language, locale),
			Identifiers: map[string]string{},
			Cover:       genericCover,
		}
		if doc.Subtitle != "" {
			rec.Title += ": " + strings.TrimSpace(doc.Subtitle)
		}
		if doc.FirstPublishYear > 0 {
			rec.PublishedDate = strconv.Itoa(doc.FirstPublishYear)
		}
		if len(doc.Publisher) > 0 {
			rec.Publisher = strings.TrimSpace(doc.Publisher[0])
		}
		if len(doc.Subject) > 5 {
			doc.Subject = doc.Subject[:5]
		}
		rec.Tags = doc.Subject
		if workID != "" {
			rec.Identifiers["openlibrary"] = workID
		}
		for _, raw := range doc.ISBN {
			if isbn, ok := normalize.ValidateISBN(raw); ok {
				rec.Identifiers["isbn"] = isbn
				break
			}
		}
		if doc.CoverID > 0 {
			rec.Cover = fmt.Sprintf("%s/b/id/%d-L.jpg", s.CoversURL, doc.CoverID)
		}
		records = append(records, rec)
	}
	return records, nil
}
