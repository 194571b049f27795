// Package dnb searches the Deutsche Nationalbibliothek SRU catalogue service and
// maps its MARC21-xml records
package dnb

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/normalize"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources/web"
)

const (
	DefaultBaseURL    = "https://services.dnb.de/sru/dnb"
	DefaultMaxRecords = 10
	coverURL          = "https://portal.dnb.de/opac/mvb/cover?isbn="
)

// Source queries the DNB SRU endpoint
type Source struct {
	HTTPClient *http.Client
	BaseURL    string
	MaxRecords int
}

func New() *Source {
	return &Source{
		HTTPClient: web.NewHTTPClient(),
		BaseURL:    DefaultBaseURL,
		MaxRecords: DefaultMaxRecords,
	}
}

func (s *Source) Info() models.SourceInfo {
	return models.SourceInfo{
		ID:          "dnb",
		Description: "Deutsche Nationalbibliothek",
		Link:        "https://portal.dnb.de/",
	}
}

type sruResponse struct {
	NumberOfRecords int `xml:"numberOfRecords"`
	Records         []struct {
		MARC marcRecord `xml:"recordData>record"`
	} `xml:"records>record"`
	Diagnostics []struct {
		Message string `xml:"message"`
		Details string `xml:"details"`
	} `xml:"diagnostics>diagnostic"`
}

type marcRecord struct {
	ControlFields []struct {
		Tag   string `xml:"tag,attr"`
		Value string `xml:",chardata"`
	} `xml:"controlfield"`
	DataFields []dataField `xml:"datafield"`
}

type dataField struct {
	Tag       string `xml:"tag,attr"`
	Ind2      string `xml:"ind2,attr"`
	Subfields []struct {
		Code  string `xml:"code,attr"`
		Value string `xml:",chardata"`
	} `xml:"subfield"`
}

func (f dataField) sub(code string) string {
	for _, sf := range f.Subfields {
		if sf.Code == code {
			return strings.TrimSpace(sf.Value)
		}
	}
	return ""
}

func (f dataField) subs(code string) []string {
	var out []string
	for _, sf := range f.Subfields {
		if sf.Code == code {
			out = append(out, strings.TrimSpace(sf.Value))
		}
	}
	return out
}

func (m marcRecord) control(tag string) string {
	for _, cf := range m.ControlFields {
		if cf.Tag == tag {
			return strings.TrimSpace(cf.Value)
		}
	}
	return ""
}

func (m marcRecord) fields(tags ...string) []dataField {
	var out []dataField
	for _, f := range m.DataFields {
		for _, tag := range tags {
			if f.Tag == tag {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func (m marcRecord) first(tag, code string) string {
	for _, f := range m.fields(tag) {
		if v := f.sub(code); v != "" {
			return v
		}
	}
	return ""
}

func (s *Source) Search(ctx context.Context, query, genericCover, locale string) ([]models.MetaRecord, error) {
	cql := cqlQuery(query)
	if cql == "" {
		return nil, nil
	}

	maxRecords := s.MaxRecords
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	params := url.Values{}
	params.Set("version", "1.1")
	params.Set("operation", "searchRetrieve")
	params.Set("query", cql)
	params.Set("recordSchema", "MARC21-xml")
	params.Set("maximumRecords", strconv.Itoa(maxRecords))

	body, err := web.Get(ctx, s.HTTPClient, s.BaseURL+"?"+params.Encode(), "application/xml")
	if err != nil {
		return nil, fmt.Errorf("failed to query DNB: %w", err)
	}

	var resp sruResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode DNB response: %w", err)
	}
	if len(resp.Diagnostics) > 0 {
		d := resp.Diagnostics[0]
		return nil, fmt.Errorf("DNB diagnostic: %s %s", d.Message, d.Details)
	}

	records := make([]models.MetaRecord, 0, len(resp.Records))
	for _, r := range resp.Records {
		records = append(records, s.toRecord(r.MARC, genericCover, locale))
	}
	return records, nil
}

// cqlQuery searches by number for ISBNs and by all words otherwise
func cqlQuery(query string) string {
	if isbn, ok := normalize.ValidateISBN(query); ok {
		return "num=" + isbn
	}
	tokens := normalize.TitleTokens(query, true)
	if len(tokens) == 0 {
		return ""
	}
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = "WOE=" + tok
	}
	return strings.Join(terms, " and ")
}

var (
	// DNB brackets non-sorting articles with C1 control characters
	nonSortingRe = regexp.MustCompile("[\u0098\u009c]")
	numberRe     = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// clean drops non-sorting markers and trailing ISBD punctuation
func clean(s string) string {
	return trimPunct(s, " /:;,=.")
}

func trimPunct(s, cutset string) string {
	s = nonSortingRe.ReplaceAllString(s, "")
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), cutset))
}

// personName turns "Le Guin, Ursula K." into "Ursula K. Le Guin"
func personName(name string) string {
	name = trimPunct(name, " /:;,=")
	if last, first, ok := strings.Cut(name, ", "); ok {
		return strings.TrimSpace(first) + " " + strings.TrimSpace(last)
	}
	return name
}

func (s *Source) toRecord(m marcRecord, genericCover, locale string) models.MetaRecord {
	id := m.control("001")
	rec := models.MetaRecord{
		ID:          id,
		Source:      s.Info(),
		URL:         "https://d-nb.info/" + id,
		Identifiers: map[string]string{},
		Cover:       genericCover,
	}
	if id != "" {
		rec.Identifiers["dnb"] = id
	}

	for _, f := range m.fields("245") {
		title := clean(f.sub("a"))
		if sub := clean(f.sub("b")); sub != "" {
			title += " : " + sub
		}
		rec.Title = title
		break
	}

	var authors []string
	for _, f := range m.fields("100", "700") {
		roles := f.subs("4")
		if len(roles) > 0 && !slices.Contains(roles, "aut") {
			continue
		}
		if name := f.sub("a"); name != "" {
			authors = append(authors, personName(name))
		}
	}
	rec.Authors = normalize.UniqueAuthors(authors)

	for _, tag := range []string{"264", "260"} {
		for _, f := range m.fields(tag) {
			if tag == "264" && f.Ind2 != "1" {
				continue
			}
			if rec.Publisher == "" {
				rec.Publisher = clean(f.sub("b"))
			}
			if rec.PublishedDate == "" {
				rec.PublishedDate = normalize.Date(f.sub("c"))
			}
		}
	}

	for _, f := range m.fields("020") {
		raw, _, _ := strings.Cut(f.sub("a"), " ")
		if isbn, ok := normalize.ValidateISBN(raw); ok {
			rec.Identifiers["isbn"] = isbn
			rec.Cover = coverURL + isbn
			break
		}
	}

	if series := m.first("490", "a"); series != "" {
		rec.Series = clean(series)
		if n := numberRe.FindString(m.first("490", "v")); n != "" {
			rec.SeriesIndex, _ = strconv.ParseFloat(strings.Replace(n, ",", ".", 1), 64)
		}
	}

	var codes []string
	for _, f := range m.fields("041") {
		codes = append(codes, f.subs("a")...)
	}
	rec.Languages = normalize.LanguageNames(codes, locale)

	seen := map[string]bool{}
	for _, f := range m.fields("650", "689") {
		for _, tag := range f.subs("a") {
			tag = clean(tag)
			if tag != "" && !seen[tag] {
				seen[tag] = true
				rec.Tags = append(rec.Tags, tag)
			}
		}
	}

	rec.Description = normalize.Description(m.first("520", "a"), true)
	return rec
}

