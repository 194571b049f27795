package normalize

import (
	"reflect"
	"testing"
)

func TestTitleTokens(t *testing.T) {
	tests := []struct {
		name         string
		title        string
		stripJoiners bool
		expected     []string
	}{
		{
			name:         "drops trailing format marker",
			title:        "The Great Gatsby (Hardcover)",
			stripJoiners: true,
			expected:     []string{"Great", "Gatsby"},
		},
		{
			name:         "drops year marker and keeps joiners",
			title:        "The Dune (2010)",
			stripJoiners: false,
			expected:     []string{"The", "Dune"},
		},
		{
			name:         "drops square bracket anthology marker",
			title:        "A Tale of Two Cities [Anthology]",
			stripJoiners: true,
			expected:     []string{"Tale", "of", "Two", "Cities"},
		},
		{
			name:         "drops free-form edition parenthetical",
			title:        "Harry Potter: the Deluxe Edition (Special Edition)",
			stripJoiners: true,
			expected:     []string{"Harry", "Potter", "Deluxe", "Edition"},
		},
		{
			name:         "collapses thousands separators",
			title:        "1,000 Places to See",
			stripJoiners: false,
			expected:     []string{"1000", "Places", "to", "See"},
		},
		{
			name:         "keeps inner hyphens and drops spaced ones",
			title:        "Spider-Man - Homecoming & Beyond",
			stripJoiners: true,
			expected:     []string{"Spider-Man", "Homecoming", "Beyond"},
		},
		{
			name:         "empty title",
			title:        "   ",
			stripJoiners: true,
			expected:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleTokens(tt.title, tt.stripJoiners)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("TitleTokens(%q) = %q, want %q", tt.title, got, tt.expected)
			}
		})
	}
}

func TestTitleTokens_ExcludesMarkerContents(t *testing.T) {
	markers := []string{"(Hardcover)", "(Paperback)", "(Omnibus)", "(1999)", "[Audiobook]", "(2nd edition)"}
	for _, marker := range markers {
		for _, tok := range TitleTokens("Moby Dick "+marker, true) {
			if tok != "Moby" && tok != "Dick" {
				t.Errorf("marker %s leaked token %q", marker, tok)
			}
		}
	}
}

func TestAuthorTokens(t *testing.T) {
	got := AuthorTokens("Tolkien, J.R.R.")
	want := []string{"J", "R", "R", "Tolkien"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AuthorTokens = %q, want %q", got, want)
	}
}

func TestUniqueAuthors(t *testing.T) {
	got := UniqueAuthors([]string{" Terry  Pratchett", "Neil Gaiman", "terry pratchett", ""})
	want := []string{"Terry Pratchett", "Neil Gaiman"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueAuthors = %q, want %q", got, want)
	}
}

func TestQuery(t *testing.T) {
	if got := Query("The Hobbit (Paperback)"); got != "Hobbit" {
		t.Errorf("Query = %q, want %q", got, "Hobbit")
	}
}
