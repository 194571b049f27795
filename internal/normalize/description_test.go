package normalize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDescription(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		stripMarkup bool
		expected    string
	}{
		{
			name:        "strips markup and keeps paragraphs",
			input:       "<p>Hello&nbsp;<b>world</b></p><p>Second</p>",
			stripMarkup: true,
			expected:    "Hello world\nSecond",
		},
		{
			name:        "collapses runs of blank lines",
			input:       "first\n\n\n\n\nsecond",
			stripMarkup: false,
			expected:    "first\n\nsecond",
		},
		{
			name:        "collapses unicode spaces",
			input:       "thin\u2009\u2009space and\u00a0nbsp and zero\u200bwidth",
			stripMarkup: false,
			expected:    "thin space and nbsp and zero width",
		},
		{
			name:        "unescapes backslashed punctuation",
			input:       `Don\'t \- stop \*now\*`,
			stripMarkup: false,
			expected:    "Don't - stop *now*",
		},
		{
			name:        "leaves markup alone when not stripping",
			input:       "<i>kept</i>",
			stripMarkup: false,
			expected:    "<i>kept</i>",
		},
		{
			name:        "drops script content",
			input:       "<script>alert(1)</script>Plain",
			stripMarkup: true,
			expected:    "Plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Description(tt.input, tt.stripMarkup); got != tt.expected {
				t.Errorf("Description() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDescription_Truncation(t *testing.T) {
	long := strings.Repeat("word ", 1200)

	got := Description(long, true)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got suffix %q", got[len(got)-10:])
	}
	if utf8.RuneCountInString(got) > MaxDescriptionLength+3 {
		t.Errorf("description too long: %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(strings.TrimSuffix(got, "..."), "word") {
		t.Errorf("expected cut at a word boundary, got %q", got[len(got)-12:])
	}

	untouched := Description(long, false)
	if utf8.RuneCountInString(untouched) != len(strings.TrimSpace(long)) {
		t.Errorf("expected no truncation without markup stripping")
	}
}
