package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookmeta/internal/enrich"
)

func newExploreCmd() *cobra.Command {
	var (
		format string
		locale string
		user   string
		rank   bool
	)

	cmd := &cobra.Command{
		Use:   "explore QUERY...",
		Short: "Search every eligible source in parallel",
		Long: `Queries every enabled source at once and prints all candidate records,
ordered by the source hierarchy. Sources that fail or run out of time are
skipped; with --verbose a per-source report is printed as well.`,
		Example: `  # Search by title and author
  bookmeta explore "The Dispossessed" Le Guin

  # Search by ISBN, German language names, best matches first
  bookmeta explore 9780060125639 --locale de --rank

  # Apply a user's source preferences
  bookmeta explore "Der Process" --user alice --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			query := strings.Join(args, " ")

			return withApp(true, func(a *app) error {
				result := a.service.Explore(cmd.Context(), enrich.Request{
					Query:  query,
					Locale: locale,
					User:   user,
				})
				if rank {
					enrich.SortByScore(result.Records)
				}

				return render(cmd.OutOrStdout(), format, result, func(w io.Writer) error {
					if len(result.Records) == 0 {
						fmt.Fprintf(w, "No metadata found for %q\n", query)
					}
					for i, rec := range result.Records {
						printRecord(w, i+1, rec)
					}
					if verbose {
						fmt.Fprintln(w)
						printOutcomes(w, result.Outcomes)
					}
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, yaml)")
	cmd.Flags().StringVar(&locale, "locale", "en", "Locale for language names")
	cmd.Flags().StringVar(&user, "user", "", "Apply this user's source preferences")
	cmd.Flags().BoolVar(&rank, "rank", false, "Order by match confidence instead of source hierarchy")

	return cmd
}
