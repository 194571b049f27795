package dnb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sruFixture = `<?xml version="1.0" encoding="UTF-8"?>
<searchRetrieveResponse xmlns="http://www.loc.gov/zing/srw/">
  <version>1.1</version>
  <numberOfRecords>1</numberOfRecords>
  <records>
    <record>
      <recordSchema>MARC21-xml</recordSchema>
      <recordPacking>xml</recordPacking>
      <recordData>
        <record xmlns="http://www.loc.gov/MARC21/slim" type="Bibliographic">
          <leader>00000nam a22000001c 4500</leader>
          <controlfield tag="001">1187457647</controlfield>
          <datafield tag="020" ind1=" " ind2=" ">
            <subfield code="a">978-3-453-31900-3 Festeinband : EUR 22.00</subfield>
          </datafield>
          <datafield tag="041" ind1=" " ind2=" ">
            <subfield code="a">ger</subfield>
            <subfield code="h">eng</subfield>
          </datafield>
          <datafield tag="100" ind1="1" ind2=" ">
            <subfield code="a">Herbert, Frank</subfield>
            <subfield code="4">aut</subfield>
          </datafield>
          <datafield tag="245" ind1="1" ind2="0">
            <subfield code="a">&#x98;Der&#x9c; Wüstenplanet</subfield>
            <subfield code="b">Roman /</subfield>
          </datafield>
          <datafield tag="264" ind1=" " ind2="1">
            <subfield code="a">München</subfield>
            <subfield code="b">Heyne</subfield>
            <subfield code="c">[2019]</subfield>
          </datafield>
          <datafield tag="490" ind1="0" ind2=" ">
            <subfield code="a">Der Wüstenplanet-Zyklus</subfield>
            <subfield code="v">Band 1</subfield>
          </datafield>
          <datafield tag="520" ind1=" " ind2=" ">
            <subfield code="a">Der Klassiker der Science-Fiction.</subfield>
          </datafield>
          <datafield tag="650" ind1=" " ind2="7">
            <subfield code="a">Science-Fiction</subfield>
          </datafield>
          <datafield tag="700" ind1="1" ind2=" ">
            <subfield code="a">Schmidt, Jakob</subfield>
            <subfield code="4">trl</subfield>
          </datafield>
        </record>
      </recordData>
      <recordPosition>1</recordPosition>
    </record>
  </records>
</searchRetrieveResponse>`

const diagnosticFixture = `<?xml version="1.0" encoding="UTF-8"?>
<searchRetrieveResponse xmlns="http://www.loc.gov/zing/srw/">
  <version>1.1</version>
  <diagnostics>
    <diagnostic xmlns="http://www.loc.gov/zing/srw/diagnostic/">
      <uri>info:srw/diagnostic/1/10</uri>
      <message>Query syntax error</message>
    </diagnostic>
  </diagnostics>
</searchRetrieveResponse>`

func TestSearch(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		assert.Equal(t, "MARC21-xml", r.URL.Query().Get("recordSchema"))
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(sruFixture))
	}))
	defer server.Close()

	src := &Source{HTTPClient: server.Client(), BaseURL: server.URL}
	records, err := src.Search(context.Background(), "Der Wüstenplanet", "/generic.jpg", "en")
	require.NoError(t, err)

	assert.Equal(t, "WOE=Der and WOE=Wüstenplanet", gotQuery)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "1187457647", rec.ID)
	assert.Equal(t, "https://d-nb.info/1187457647", rec.URL)
	assert.Equal(t, "Der Wüstenplanet : Roman", rec.Title)
	assert.Equal(t, []string{"Frank Herbert"}, rec.Authors)
	assert.Equal(t, "Heyne", rec.Publisher)
	assert.Equal(t, "2019", rec.PublishedDate)
	assert.Equal(t, "9783453319003", rec.Identifiers["isbn"])
	assert.Equal(t, "1187457647", rec.Identifiers["dnb"])
	assert.Equal(t, "https://portal.dnb.de/opac/mvb/cover?isbn=9783453319003", rec.Cover)
	assert.Equal(t, "Der Wüstenplanet-Zyklus", rec.Series)
	assert.Equal(t, 1.0, rec.SeriesIndex)
	assert.Equal(t, []string{"German"}, rec.Languages)
	assert.Equal(t, []string{"Science-Fiction"}, rec.Tags)
	assert.Equal(t, "Der Klassiker der Science-Fiction.", rec.Description)
	assert.Equal(t, "dnb", rec.Source.ID)
}

func TestSearch_ISBNUsesNumberIndex(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(`<searchRetrieveResponse><numberOfRecords>0</numberOfRecords></searchRetrieveResponse>`))
	}))
	defer server.Close()

	src := &Source{HTTPClient: server.Client(), BaseURL: server.URL}
	records, err := src.Search(context.Background(), "3-453-31900-X", "", "en")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, "num=345331900X", gotQuery)
}

func TestSearch_Diagnostic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(diagnosticFixture))
	}))
	defer server.Close()

	src := &Source{HTTPClient: server.Client(), BaseURL: server.URL}
	_, err := src.Search(context.Background(), "Foo", "", "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Query syntax error")
}

func TestPersonName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Le Guin, Ursula K.", "Ursula K. Le Guin"},
		{"Homer", "Homer"},
		{"Herbert, Frank,", "Frank Herbert"},
	}
	for _, tt := range tests {
		if got := personName(tt.in); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}
