package enrich

import (
	"cmp"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/normalize"
)

const (
	ReasonExactTitle  = "exact_title"
	ReasonTitleAuthor = "title_author"
	ReasonFuzzy       = "fuzzy"
	ReasonWeak        = "weak"
)

// Score fills ConfidenceScore and MatchReason on each record by comparing the
// query against the record's title, and against title plus authors
func Score(query string, records []models.MetaRecord) {
	q := normalize.Comparable(query)
	for i := range records {
		rec := &records[i]
		title := normalize.Comparable(rec.Title)
		if q != "" && title == q {
			rec.ConfidenceScore, rec.MatchReason = 1.0, ReasonExactTitle
			continue
		}

		byTitle := normalize.Similarity(q, title)
		byTitleAuthor := normalize.Similarity(q, title+" "+strings.Join(rec.Authors, " "))
		score := max(byTitle, byTitleAuthor)

		switch {
		case len(rec.Authors) > 0 && byTitleAuthor > byTitle && byTitleAuthor >= 0.8:
			rec.MatchReason = ReasonTitleAuthor
		case score >= 0.5:
			rec.MatchReason = ReasonFuzzy
		default:
			rec.MatchReason = ReasonWeak
		}
		rec.ConfidenceScore = score
	}
}

// SortByHierarchy orders records by their source's position in hierarchy,
// keeping each source's own order. Sources not in hierarchy go last.
func SortByHierarchy(records []models.MetaRecord, hierarchy []string) {
	rank := make(map[string]int, len(hierarchy))
	for i, id := range hierarchy {
		rank[id] = i
	}
	position := func(id string) int {
		if r, ok := rank[id]; ok {
			return r
		}
		return len(hierarchy)
	}
	slices.SortStableFunc(records, func(a, b models.MetaRecord) int {
		return cmp.Compare(position(a.Source.ID), position(b.Source.ID))
	})
}

// SortByScore orders records by descending confidence, ties keeping their current order
func SortByScore(records []models.MetaRecord) {
	slices.SortStableFunc(records, func(a, b models.MetaRecord) int {
		return cmp.Compare(b.ConfidenceScore, a.ConfidenceScore)
	})
}
