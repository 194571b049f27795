package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookmeta/internal/enrich"
)

func newFetchCmd() *cobra.Command {
	var (
		format string
		locale string
	)

	cmd := &cobra.Command{
		Use:   "fetch QUERY...",
		Short: "Return the first record from the highest ranked source that has one",
		Long: `Walks enabled sources one at a time in hierarchy order and prints the first
record found. Does nothing when auto_fetch is disabled in the settings file.`,
		Example: `  bookmeta fetch "Die Verwandlung" Kafka --locale de`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			return withApp(true, func(a *app) error {
				rec, ok := a.service.AutoFetch(cmd.Context(), enrich.Request{Query: query, Locale: locale})
				if !ok {
					return fmt.Errorf("%w for %q", enrich.ErrNotFound, query)
				}
				return render(cmd.OutOrStdout(), format, rec, func(w io.Writer) error {
					printRecord(w, 1, rec)
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, yaml)")
	cmd.Flags().StringVar(&locale, "locale", "en", "Locale for language names")

	return cmd
}
