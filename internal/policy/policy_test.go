package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/providers"
)

func newRegistry(t *testing.T, ids ...string) *providers.Registry {
	t.Helper()
	reg := providers.NewRegistry()
	for _, id := range ids {
		require.NoError(t, reg.Register(providers.Func{
			Source: models.SourceInfo{ID: id, Description: id},
			SearchFn: func(ctx context.Context, query, genericCover, locale string) ([]models.MetaRecord, error) {
				return nil, nil
			},
		}))
	}
	return reg
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		settings models.SourceSettings
		pref     models.UserPreference
		mode     Mode
		inactive []string
		expected []string
	}{
		{
			name:     "hierarchy order with missing sources appended",
			settings: models.SourceSettings{Hierarchy: []string{"google", "dnb"}},
			mode:     ModeExplore,
			expected: []string{"google", "dnb", "amazon", "openlibrary"},
		},
		{
			name:     "unknown ids dropped",
			settings: models.SourceSettings{Hierarchy: []string{"bogus", "openlibrary", "google", "openlibrary"}},
			mode:     ModeExplore,
			expected: []string{"openlibrary", "google", "amazon", "dnb"},
		},
		{
			name: "globally disabled source excluded",
			settings: models.SourceSettings{
				Hierarchy: []string{"google", "dnb"},
				Enabled:   map[string]bool{"dnb": false, "amazon": true},
			},
			mode:     ModeExplore,
			expected: []string{"google", "amazon", "openlibrary"},
		},
		{
			name:     "user preference narrows further",
			settings: models.SourceSettings{Hierarchy: []string{"google", "dnb"}},
			pref:     models.UserPreference{"google": false, "dnb": true},
			mode:     ModeExplore,
			expected: []string{"dnb", "amazon", "openlibrary"},
		},
		{
			name: "user preference cannot re-enable a globally disabled source",
			settings: models.SourceSettings{
				Enabled: map[string]bool{"google": false},
			},
			pref:     models.UserPreference{"google": true},
			mode:     ModeExplore,
			expected: []string{"amazon", "dnb", "openlibrary"},
		},
		{
			name:     "inactive registry entry excluded",
			settings: models.SourceSettings{Hierarchy: []string{"google"}},
			mode:     ModeExplore,
			inactive: []string{"google", "amazon"},
			expected: []string{"dnb", "openlibrary"},
		},
		{
			name:     "auto mode honours hierarchy",
			settings: models.SourceSettings{Hierarchy: []string{"dnb", "google"}, AutoFetch: true},
			mode:     ModeAuto,
			expected: []string{"dnb", "google", "amazon", "openlibrary"},
		},
		{
			name:     "auto mode gated by auto fetch flag",
			settings: models.SourceSettings{Hierarchy: []string{"dnb", "google"}},
			mode:     ModeAuto,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newRegistry(t, "google", "dnb", "openlibrary", "amazon")
			for _, id := range tt.inactive {
				require.NoError(t, reg.SetActive(id, false))
			}

			plan := Resolve(reg, tt.settings, tt.pref, tt.mode)
			assert.Equal(t, tt.mode, plan.Mode)
			assert.Equal(t, tt.expected, plan.IDs())
		})
	}
}

func TestResolve_AutoGateSkipsRegistry(t *testing.T) {
	plan := Resolve(nil, models.SourceSettings{AutoFetch: false}, nil, ModeAuto)
	assert.True(t, plan.Empty())
}

func TestHierarchy(t *testing.T) {
	reg := newRegistry(t, "google", "dnb", "amazon")
	assert.Equal(t, []string{"dnb", "amazon", "google"}, Hierarchy(reg, []string{"dnb", "nope"}))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Explore ")
	require.NoError(t, err)
	assert.Equal(t, ModeExplore, m)

	m, err = ParseMode("auto")
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, m)

	_, err = ParseMode("sometimes")
	assert.Error(t, err)
}
