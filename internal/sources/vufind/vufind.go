// Package vufind searches a VuFind library catalog through its REST API
package vufind

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/normalize"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/web"
)

const DefaultLimit = 10

// Source represents a VuFind catalog client
type Source struct {
	BaseURL    string
	Limit      int
	HTTPClient *http.Client
}

// New creates a VuFind source; an empty baseURL leaves the source unusable
func New(baseURL string) *Source {
	return &Source{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Limit:      DefaultLimit,
		HTTPClient: web.NewHTTPClient(),
	}
}

func (s *Source) Info() models.SourceInfo {
	return models.SourceInfo{
		ID:          "vufind",
		Description: "Library Catalog (VuFind)",
		Link:        s.BaseURL,
	}
}

// Ready reports whether a catalog URL was configured
func (s *Source) Ready() error {
	if s.BaseURL == "" {
		return errors.New("VUFIND_URL not set")
	}
	return nil
}

var requestedFields = []string{
	"id", "title", "subTitle", "primaryAuthors", "secondaryAuthors", "publishers",
	"publicationDates", "languages", "subjects", "series", "summary", "isbns", "formats",
}

type searchResponse struct {
	ResultCount int      `json:"resultCount"`
	Status      string   `json:"status"`
	Records     []record `json:"records"`
}

type record struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	SubTitle         string     `json:"subTitle"`
	PrimaryAuthors   []string   `json:"primaryAuthors"`
	SecondaryAuthors []string   `json:"secondaryAuthors"`
	Publishers       []string   `json:"publishers"`
	PublicationDates []string   `json:"publicationDates"`
	Languages        []string   `json:"languages"`
	Subjects         [][]string `json:"subjects"`
	Series           []struct {
		Name   string `json:"name"`
		Number string `json:"number"`
	} `json:"series"`
	Summary []string `json:"summary"`
	ISBNs   []string `json:"isbns"`
	Formats []string `json:"formats"`
}

func (s *Source) Search(ctx context.Context, query, genericCover, locale string) ([]models.MetaRecord, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	params := url.Values{}
	if isbn, ok := normalize.ValidateISBN(query); ok {
		params.Set("lookfor", isbn)
		params.Set("type", "ISN")
	} else {
		q := normalize.Query(query)
		if q == "" {
			return nil, nil
		}
		params.Set("lookfor", q)
		params.Set("type", "AllFields")
	}
	limit := s.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	params.Set("limit", strconv.Itoa(limit))
	for _, f := range requestedFields {
		params.Add("field[]", f)
	}

	var resp searchResponse
	if err := web.GetJSON(ctx, s.HTTPClient, s.BaseURL+"/api/v1/search?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("failed to search VuFind: %w", err)
	}
	if resp.Status != "" && resp.Status != "OK" {
		return nil, fmt.Errorf("VuFind search returned status %s", resp.Status)
	}

	records := make([]models.MetaRecord, 0, len(resp.Records))
	for _, r := range resp.Records {
		records = append(records, s.toRecord(r, genericCover, locale))
	}
	return records, nil
}

func (s *Source) toRecord(r record, genericCover, locale string) models.MetaRecord {
	rec := models.MetaRecord{
		ID:          r.ID,
		Title:       strings.TrimRight(strings.TrimSpace(r.Title), " /:"),
		Authors:     normalize.UniqueAuthors(authorNames(r.PrimaryAuthors)),
		Source:      s.Info(),
		URL:         fmt.Sprintf("%s/Record/%s", s.BaseURL, url.PathEscape(r.ID)),
		Description: normalize.Description(strings.Join(r.Summary, "\n\n"), true),
		Languages:   normalize.LanguageNames(r.Languages, locale),
		Identifiers: map[string]string{"vufind": r.ID},
		Cover:       genericCover,
	}
	if len(rec.Authors) == 0 {
		rec.Authors = normalize.UniqueAuthors(authorNames(r.SecondaryAuthors))
	}
	if len(r.Publishers) > 0 {
		rec.Publisher = strings.TrimRight(strings.TrimSpace(r.Publishers[0]), " ,:;")
	}
	if len(r.PublicationDates) > 0 {
		rec.PublishedDate = normalize.Date(r.PublicationDates[0])
	}
	if len(r.Formats) > 0 {
		rec.Format = r.Formats[0]
	}
	if len(r.Series) > 0 {
		rec.Series = strings.TrimSpace(r.Series[0].Name)
		rec.SeriesIndex, _ = strconv.ParseFloat(strings.TrimSpace(r.Series[0].Number), 64)
	}

	seen := map[string]bool{}
	for _, subject := range r.Subjects {
		if len(subject) == 0 || seen[subject[0]] {
			continue
		}
		seen[subject[0]] = true
		rec.Tags = append(rec.Tags, subject[0])
	}

	for _, raw := range r.ISBNs {
		if isbn, ok := normalize.ValidateISBN(raw); ok {
			rec.Identifiers["isbn"] = isbn
			// VuFind serves covers by record ID through its cover loader
			rec.Cover = fmt.Sprintf("%s/Cover/Show?id=%s&size=large", s.BaseURL, url.QueryEscape(r.ID))
			break
		}
	}
	return rec
}

// authorNames reorders "Last, First, 1920-" catalog headings into "First Last"
func authorNames(headings []string) []string {
	out := make([]string, 0, len(headings))
	for _, h := range headings {
		parts := strings.Split(h, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		switch {
		case len(parts) >= 2 && parts[1] != "" && !startsWithDigit(parts[1]):
			out = append(out, parts[1]+" "+parts[0])
		default:
			out = append(out, parts[0])
		}
	}
	return out
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
