// Package amazon scrapes Amazon book search results and product pages
package amazon

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/normalize"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/web"
)

const (
	DefaultBaseURL    = "https://www.amazon.com"
	DefaultMaxResults = 5
)

// Source scrapes the Amazon storefront at BaseURL
type Source struct {
	HTTPClient *http.Client
	BaseURL    string
	MaxResults int
}

func New(baseURL string) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{
		HTTPClient: web.NewHTTPClient(),
		BaseURL:    strings.TrimRight(baseURL, "/"),
		MaxResults: DefaultMaxResults,
	}
}

func (s *Source) Info() models.SourceInfo {
	return models.SourceInfo{
		ID:          "amazon",
		Description: "Amazon",
		Link:        s.BaseURL + "/",
	}
}

var (
	asinRe   = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)
	ratingRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// Search reads the book search results page and then each product page it links to.
// A product page that fails to load is skipped.
func (s *Source) Search(ctx context.Context, query, genericCover, locale string) ([]models.MetaRecord, error) {
	q := normalize.Query(query)
	if isbn, ok := normalize.ValidateISBN(query); ok {
		q = isbn
	}
	if q == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("k", q)
	params.Set("i", "stripbooks")
	doc, err := s.fetch(ctx, s.BaseURL+"/s?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to load Amazon search results: %w", err)
	}

	links := s.resultLinks(doc)
	records := make([]models.MetaRecord, 0, len(links))
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		page, err := s.fetch(ctx, link)
		if err != nil {
			slog.Debug("Skipping Amazon product page", "url", link, "err", err)
			continue
		}
		rec := s.parseProduct(page, link, genericCover)
		if rec.Usable() {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s *Source) fetch(ctx context.Context, u string) (*goquery.Document, error) {
	body, err := web.Get(ctx, s.HTTPClient, u, "text/html")
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return doc, nil
}

// resultLinks returns absolute product page URLs, de-duplicated by ASIN
func (s *Source) resultLinks(doc *goquery.Document) []string {
	limit := s.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	var links []string
	seen := map[string]bool{}
	doc.Find(`div[data-component-type="s-search-result"]`).EachWithBreak(func(_ int, result *goquery.Selection) bool {
		href, ok := result.Find("h2 a, a.s-no-outline").First().Attr("href")
		if !ok {
			return true
		}
		m := asinRe.FindStringSubmatch(href)
		if m == nil || seen[m[1]] {
			return true
		}
		seen[m[1]] = true
		links = append(links, s.BaseURL+"/dp/"+m[1])
		return len(links) < limit
	})
	return links
}

func text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.First().Text()), " ")
}

func detail(doc *goquery.Document, name string) string {
	return text(doc.Find("#rpi-attribute-book_details-" + name + " .rpi-attribute-value span"))
}

func (s *Source) parseProduct(doc *goquery.Document, link, genericCover string) models.MetaRecord {
	rec := models.MetaRecord{
		Title:       text(doc.Find("#productTitle")),
		Source:      s.Info(),
		URL:         link,
		Identifiers: map[string]string{},
		Cover:       genericCover,
	}
	if m := asinRe.FindStringSubmatch(link); m != nil {
		rec.ID = m[1]
		rec.Identifiers["amazon"] = m[1]
	}

	var authors []string
	doc.Find("#bylineInfo .author").Each(func(_ int, sel *goquery.Selection) {
		role := text(sel.Find(".contribution"))
		if role != "" && !strings.Contains(strings.ToLower(role), "author") {
			return
		}
		authors = append(authors, text(sel.Find("a")))
	})
	rec.Authors = normalize.UniqueAuthors(authors)

	if html, err := doc.Find(`[data-a-expander-name="book_description_expander"] .a-expander-content`).First().Html(); err == nil && html != "" {
		rec.Description = normalize.Description(html, true)
	} else if html, err := doc.Find("#bookDescription_feature_div noscript").First().Html(); err == nil {
		rec.Description = normalize.Description(html, true)
	}

	if alt := text(doc.Find("#acrPopover .a-icon-alt, #averageCustomerReviews .a-icon-alt")); alt != "" {
		if n := ratingRe.FindString(alt); n != "" {
			if stars, err := strconv.ParseFloat(strings.Replace(n, ",", ".", 1), 64); err == nil {
				rec.Rating = int(stars * 2)
			}
		}
	}

	img := doc.Find("#imgBlkFront, #landingImage, #ebooksImgBlkFront").First()
	if src, ok := img.Attr("data-old-hires"); ok && src != "" {
		rec.Cover = src
	} else if src, ok := img.Attr("src"); ok && src != "" {
		rec.Cover = src
	}

	rec.Publisher = detail(doc, "publisher")
	rec.PublishedDate = normalize.Date(detail(doc, "publication_date"))
	if lang := detail(doc, "language"); lang != "" {
		rec.Languages = []string{lang}
	}
	if isbn, ok := normalize.ValidateISBN(detail(doc, "isbn13")); ok {
		rec.Identifiers["isbn"] = isbn
	}
	return rec
}
