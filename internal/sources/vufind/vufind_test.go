package vufind

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFixture = `{
  "resultCount": 1,
  "status": "OK",
  "records": [
    {
      "id": "in00001234",
      "title": "The dispossessed :",
      "primaryAuthors": ["Le Guin, Ursula K., 1929-2018"],
      "publishers": ["Harper & Row,"],
      "publicationDates": ["1974"],
      "languages": ["English"],
      "subjects": [["Anarchism", "Fiction"], ["Utopias"], ["Anarchism"]],
      "series": [{"name": "Hainish cycle", "number": "6"}],
      "summary": ["Shevek, a brilliant physicist, decides to take action."],
      "isbns": ["0060125632 (hardcover)", "9780060125639"],
      "formats": ["Book"]
    }
  ]
}`

func TestReady(t *testing.T) {
	if err := New("").Ready(); err == nil {
		t.Errorf("Expected an error without a base URL")
	}
	if err := New("https://catalog.example.edu/").Ready(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/search", r.URL.Path)
		assert.Equal(t, "Dispossessed", r.URL.Query().Get("lookfor"))
		assert.Equal(t, "AllFields", r.URL.Query().Get("type"))
		assert.Contains(t, r.URL.Query()["field[]"], "primaryAuthors")
		_, _ = w.Write([]byte(searchFixture))
	}))
	defer server.Close()

	src := New(server.URL)
	src.HTTPClient = server.Client()

	records, err := src.Search(context.Background(), "The Dispossessed", "/generic.jpg", "en")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "The dispossessed", rec.Title)
	assert.Equal(t, []string{"Ursula K. Le Guin"}, rec.Authors)
	assert.Equal(t, "Harper & Row", rec.Publisher)
	assert.Equal(t, "1974", rec.PublishedDate)
	assert.Equal(t, []string{"Anarchism", "Utopias"}, rec.Tags)
	assert.Equal(t, "Hainish cycle", rec.Series)
	assert.Equal(t, 6.0, rec.SeriesIndex)
	assert.Equal(t, "9780060125639", rec.Identifiers["isbn"])
	assert.Equal(t, "Book", rec.Format)
	assert.Equal(t, server.URL+"/Record/in00001234", rec.URL)
	assert.Equal(t, server.URL+"/Cover/Show?id=in00001234&size=large", rec.Cover)
	assert.Equal(t, "Shevek, a brilliant physicist, decides to take action.", rec.Description)
}

func TestSearch_ISBN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ISN", r.URL.Query().Get("type"))
		assert.Equal(t, "9780060125639", r.URL.Query().Get("lookfor"))
		_, _ = w.Write([]byte(`{"resultCount":0,"status":"OK"}`))
	}))
	defer server.Close()

	src := New(server.URL)
	src.HTTPClient = server.Client()
	records, err := src.Search(context.Background(), "978-0-06-012563-9", "", "en")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAuthorNames(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Le Guin, Ursula K., 1929-2018", "Ursula K. Le Guin"},
		{"Homer", "Homer"},
		{"Smith, 1900-", "Smith"},
	}
	for _, tt := range tests {
		got := authorNames([]string{tt.in})
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}
