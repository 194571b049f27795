package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
)

const sampleYAML = `
hierarchy: [google, dnb, openlibrary]
enabled:
  amazon: false
auto_fetch: false
users:
  alice:
    google: false
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"google", "dnb", "openlibrary"}, doc.Hierarchy)
	assert.Equal(t, map[string]bool{"amazon": false}, doc.Enabled)
	assert.False(t, doc.AutoFetch)
	assert.True(t, doc.SmartMerge, "absent keys keep their defaults")
	assert.Equal(t, models.UserPreference{"google": false}, doc.Users["alice"])
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"malformed yaml", "hierarchy: [google"},
		{"empty hierarchy entry", "hierarchy: [google, '  ']"},
		{"wrong type", "auto_fetch: sometimes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.in)); err == nil {
				t.Errorf("Expected error for %q", tt.in)
			}
		})
	}
}

func TestStore_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	current := s.Current()
	assert.Empty(t, current.Hierarchy)
	assert.True(t, current.AutoFetch)
	assert.True(t, current.SmartMerge)
	assert.Nil(t, s.Preference("alice"))
}

func TestStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmeta.yaml")
	writeFile(t, path, sampleYAML)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"google", "dnb", "openlibrary"}, s.Current().Hierarchy)

	writeFile(t, path, "hierarchy: [dnb]\nsmart_merge: false\n")
	require.NoError(t, s.Reload())
	assert.Equal(t, []string{"dnb"}, s.Current().Hierarchy)
	assert.False(t, s.Current().SmartMerge)
	assert.Nil(t, s.Preference("alice"))

	writeFile(t, path, "hierarchy: [dnb")
	assert.Error(t, s.Reload())
	assert.Equal(t, []string{"dnb"}, s.Current().Hierarchy, "a failed reload keeps the previous snapshot")
}

func TestStore_SnapshotsAreIndependent(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	s := NewStatic(doc)

	current := s.Current()
	current.Hierarchy[0] = "amazon"
	current.Enabled["google"] = false

	pref := s.Preference("alice")
	pref["dnb"] = false

	again := s.Current()
	assert.Equal(t, "google", again.Hierarchy[0])
	assert.NotContains(t, again.Enabled, "google")
	assert.Equal(t, models.UserPreference{"google": false}, s.Preference("alice"))
	assert.NoError(t, s.Reload())
}

func TestFromRaw(t *testing.T) {
	tests := []struct {
		name string
		raw  RawSettings
		want models.SourceSettings
	}{
		{
			name: "well formed",
			raw:  RawSettings{Hierarchy: `["google","dnb"]`, Enabled: `{"amazon":false}`, AutoFetch: true},
			want: models.SourceSettings{Hierarchy: []string{"google", "dnb"}, Enabled: map[string]bool{"amazon": false}, AutoFetch: true},
		},
		{
			name: "garbage falls back to defaults",
			raw:  RawSettings{Hierarchy: `google,dnb`, Enabled: `{amazon}`, SmartMerge: true},
			want: models.SourceSettings{Enabled: map[string]bool{}, SmartMerge: true},
		},
		{
			name: "empty strings",
			raw:  RawSettings{},
			want: models.SourceSettings{Enabled: map[string]bool{}},
		},
		{
			name: "blank ids dropped",
			raw:  RawSettings{Hierarchy: `[" google ", ""]`, Enabled: `null`},
			want: models.SourceSettings{Hierarchy: []string{"google"}, Enabled: map[string]bool{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromRaw(tt.raw))
		})
	}
}
