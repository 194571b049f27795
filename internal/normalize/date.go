package normalize

import (
	"regexp"
	"strings"
	"time"
)

type precision int

const (
	precisionYear precision = iota
	precisionMonth
	precisionDay
)

type dateLayout struct {
	layout    string
	precision precision
}

// Tried in order; the first layout that parses decides the output precision.
var dateLayouts = []dateLayout{
	{"2006-01-02", precisionDay},
	{"2006-01", precisionMonth},
	{"2006", precisionYear},
	{"2006/01/02", precisionDay},
	{"2006/01", precisionMonth},
	{"2006/1/2", precisionDay},
	{"2006-1-2", precisionDay},
	{"2006-01-02T15:04:05", precisionDay},
	{"2006-01-02T15:04:05.999999999", precisionDay},
	{"2006-01-02T15:04:05-07:00", precisionDay},
	{"2006-01-02T15:04", precisionDay},
	{"2006-01-02 15:04:05", precisionDay},
	{"January 2, 2006", precisionDay},
	{"January 2 2006", precisionDay},
	{"Jan 2, 2006", precisionDay},
	{"Jan. 2, 2006", precisionDay},
	{"Jan 2 2006", precisionDay},
	{"2 January 2006", precisionDay},
	{"2 Jan 2006", precisionDay},
	{"January 2006", precisionMonth},
	{"Jan 2006", precisionMonth},
	{"Jan. 2006", precisionMonth},
	{"January, 2006", precisionMonth},
}

// catalog dates glue letters to the year, as in "c2010" or "p1998"
var bareYearRe = regexp.MustCompile(`(?:^|\D)(\d{4})(?:\D|$)`)

// Date normalizes a loosely formatted publication date to YYYY, YYYY-MM or
// YYYY-MM-DD, whichever is the most precise the input supports. When no layout
// matches, a four digit year not part of a longer number anywhere in the input is used. Returns ""
// when nothing usable is found.
func Date(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "Z")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}

	for _, l := range dateLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		switch l.precision {
		case precisionDay:
			return t.Format("2006-01-02")
		case precisionMonth:
			return t.Format("2006-01")
		default:
			return t.Format("2006")
		}
	}

	if m := bareYearRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// Year returns the leading year of a canonical date, or "" if there is none
func Year(date string) string {
	d := Date(date)
	if len(d) < 4 {
		return ""
	}
	return d[:4]
}
