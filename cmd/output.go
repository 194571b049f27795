package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/bookmeta/internal/dispatch"
	"github.com/lehigh-university-libraries/bookmeta/internal/models"
)

// render writes v as JSON or YAML, or hands off to text for the human format
func render(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case "text":
		return text(w)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printRecord(w io.Writer, i int, rec models.MetaRecord) {
	fmt.Fprintf(w, "[%d] %s (%s)\n", i, rec.Title, rec.Source.ID)
	if len(rec.Authors) > 0 {
		fmt.Fprintf(w, "    Authors:   %s\n", strings.Join(rec.Authors, "; "))
	}
	if rec.Publisher != "" || rec.PublishedDate != "" {
		fmt.Fprintf(w, "    Published: %s %s\n", rec.Publisher, rec.PublishedDate)
	}
	if rec.Series != "" {
		fmt.Fprintf(w, "    Series:    %s #%g\n", rec.Series, rec.SeriesIndex)
	}
	if len(rec.Languages) > 0 {
		fmt.Fprintf(w, "    Languages: %s\n", strings.Join(rec.Languages, ", "))
	}
	for _, key := range []string{"isbn", "oclc", "lccn"} {
		if v := rec.Identifiers[key]; v != "" {
			fmt.Fprintf(w, "    %-10s %s\n", strings.ToUpper(key)+":", v)
		}
	}
	if rec.URL != "" {
		fmt.Fprintf(w, "    URL:       %s\n", rec.URL)
	}
	if rec.MatchReason != "" {
		fmt.Fprintf(w, "    Match:     %.0f%% %s\n", rec.ConfidenceScore*100, rec.MatchReason)
	}
}

func printOutcomes(w io.Writer, outcomes []dispatch.Outcome) {
	fmt.Fprintln(w, "Sources:")
	for _, o := range outcomes {
		line := fmt.Sprintf("  %-12s %-10s %3d records  %s", o.Source, o.State, o.Records, o.Elapsed.Round(time.Millisecond))
		if o.Err != nil {
			line += "  " + o.Err.Error()
		}
		fmt.Fprintln(w, line)
	}
}
