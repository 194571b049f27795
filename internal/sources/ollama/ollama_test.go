package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReady(t *testing.T) {
	assert.Error(t, New("", "").Ready())
	assert.NoError(t, New("http://localhost:11434", "").Ready())
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, DefaultModel, body["model"])
		assert.Equal(t, false, body["stream"])
		assert.Contains(t, body["prompt"], `"dune herbert"`)

		reply, _ := json.Marshal(map[string]string{
			"response": `{"books": [{"title": "Dune", "authors": ["Frank Herbert"], "published_date": "1965"}]}`,
		})
		_, _ = w.Write(reply)
	}))
	defer server.Close()

	src := New(server.URL+"/", "")
	src.Generator.(*Generator).HTTPClient = server.Client()

	records, err := src.Search(context.Background(), "dune herbert", "", "en")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ollama-1", records[0].ID)
	assert.Equal(t, "Dune", records[0].Title)
	assert.Equal(t, "1965", records[0].PublishedDate)
	assert.Equal(t, "ollama", records[0].Source.ID)
}

func TestSearch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	src := New(server.URL, "missing")
	src.Generator.(*Generator).HTTPClient = server.Client()

	_, err := src.Search(context.Background(), "dune", "", "en")
	assert.ErrorContains(t, err, "model not found")
}
