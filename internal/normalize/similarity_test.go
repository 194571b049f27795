package normalize

import (
	"math"
	"testing"
)

func TestComparable(t *testing.T) {
	if got := Comparable("  Café   Crème: Déjà-vu! "); got != "cafe creme deja vu" {
		t.Errorf("Comparable = %q", got)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b     string
		expected float64
	}{
		{"The Hobbit", "the hobbit!", 1.0},
		{"abc", "", 0.0},
		{"kitten", "sitting", 1.0 - 3.0/7.0},
	}

	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %.3f, want %.3f", tt.a, tt.b, got, tt.expected)
		}
	}
}
