package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/bookmeta/internal/dispatch"
	"github.com/lehigh-university-libraries/bookmeta/internal/enrich"
	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/providers"
	"github.com/lehigh-university-libraries/bookmeta/internal/settings"
	"github.com/lehigh-university-libraries/bookmeta/internal/storage"
)

func source(id string, records ...models.MetaRecord) providers.Func {
	return providers.Func{
		Source: models.SourceInfo{ID: id, Description: id},
		SearchFn: func(ctx context.Context, query, genericCover, locale string) ([]models.MetaRecord, error) {
			if strings.Contains(query, "nothing") {
				return nil, nil
			}
			return records, nil
		},
	}
}

type fixture struct {
	server       *httptest.Server
	store        *storage.MemoryStore
	settingsPath string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	reg := providers.NewRegistry()
	reg.MustRegister(
		source("google", models.MetaRecord{Title: "The Dispossessed", Authors: []string{"Ursula K. Le Guin"}, Description: "A much longer description"}),
		source("dnb", models.MetaRecord{Title: "Die Enteigneten", Authors: []string{"Ursula K. Le Guin"}}),
	)

	path := filepath.Join(t.TempDir(), "bookmeta.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hierarchy: [google, dnb]\n"), 0o644))
	store, err := settings.Load(path)
	require.NoError(t, err)

	books := storage.NewMemory(models.Book{ID: "1", Title: "The Dispossessed", Authors: []string{"Ursula K. Le Guin"}})
	service := &enrich.Service{
		Registry:   reg,
		Settings:   store,
		Books:      books,
		Dispatcher: dispatch.New(time.Second, 2*time.Second),
	}

	server := httptest.NewServer(New(service, store).Routes())
	t.Cleanup(server.Close)
	return &fixture{server: server, store: books, settingsPath: path}
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthcheck(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSources(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/api/metadata/sources", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status := decode[[]providers.SourceStatus](t, resp)
	require.Len(t, status, 2)
	assert.Equal(t, "dnb", status[0].Info.ID)
	assert.True(t, status[0].Active)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/api/metadata/search?q=The+Dispossessed&locale=en", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode[dispatch.Result](t, resp)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "google", result.Records[0].Source.ID)
	assert.Equal(t, "dnb", result.Records[1].Source.ID)
	assert.Equal(t, enrich.ReasonExactTitle, result.Records[0].MatchReason)
	assert.Len(t, result.Outcomes, 2)
	assert.NotEmpty(t, result.ID)
}

func TestSearchRequiresQuery(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/api/metadata/search", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuto(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/api/metadata/auto?q=Dispossessed", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[models.MetaRecord](t, resp)
	assert.Equal(t, "google", rec.Source.ID)

	resp = f.do(t, http.MethodGet, "/api/metadata/auto?q=nothing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestApply(t *testing.T) {
	f := newFixture(t)
	body := `{"record": {"title": "The Dispossessed", "authors": ["Ursula K. Le Guin"], "publisher": "Harper & Row", "source": {"id": "google"}}}`

	resp := f.do(t, http.MethodPost, "/api/books/1/metadata", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	applied := decode[ApplyResponse](t, resp)
	assert.True(t, applied.Changed)
	assert.Equal(t, []string{"publisher"}, applied.Fields)

	book, err := f.store.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Harper & Row", book.Publisher)

	// a second identical apply changes nothing
	resp = f.do(t, http.MethodPost, "/api/books/1/metadata", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	applied = decode[ApplyResponse](t, resp)
	assert.False(t, applied.Changed)
	assert.Empty(t, applied.Fields)
}

func TestApplyErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"invalid json", "/api/books/1/metadata", `{`, http.StatusBadRequest},
		{"unusable record", "/api/books/1/metadata", `{"record": {}}`, http.StatusBadRequest},
		{"unknown policy", "/api/books/1/metadata", `{"record": {"title": "X"}, "policy": "aggressive"}`, http.StatusBadRequest},
		{"missing book", "/api/books/42/metadata", `{"record": {"title": "X"}}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestEnrich(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPost, "/api/books/1/enrich", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	enrichment := decode[enrich.Enrichment](t, resp)
	assert.True(t, enrichment.Changed)
	assert.Equal(t, "google", enrichment.Record.Source.ID)

	resp = f.do(t, http.MethodPost, "/api/books/42/enrich", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReload(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.settingsPath, []byte("hierarchy: [dnb, google]\nauto_fetch: false\n"), 0o644))

	resp := f.do(t, http.MethodPost, "/api/settings/reload", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	current := decode[models.SourceSettings](t, resp)
	assert.Equal(t, []string{"dnb", "google"}, current.Hierarchy)
	assert.False(t, current.AutoFetch)

	resp = f.do(t, http.MethodGet, "/api/metadata/auto?q=Dispossessed", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, os.WriteFile(f.settingsPath, []byte("hierarchy: [\n"), 0o644))
	resp = f.do(t, http.MethodPost, "/api/settings/reload", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestBooks(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPut, "/api/books/7", `{"id": "ignored", "title": "Walden", "authors": ["Henry David Thoreau"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/books/7", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	book := decode[models.Book](t, resp)
	assert.Equal(t, "7", book.ID)
	assert.Equal(t, "Walden", book.Title)
	assert.False(t, book.UpdatedAt.IsZero())

	resp = f.do(t, http.MethodGet, "/api/books/8", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodPut, "/api/books/7", `{`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
