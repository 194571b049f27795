package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookmeta/internal/enrich"
)

func newEnrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich BOOK_ID...",
		Short: "Look up and apply metadata for stored books",
		Long: `For each book, searches with its title and first author, takes the first
record in hierarchy order and merges it using the smart_merge setting.
Books without a match are reported and skipped.`,
		Example: `  bookmeta enrich 42 43 44`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(a *app) error {
				var failed int
				for i, id := range args {
					slog.Info("Enriching book", "id", id, "progress", fmt.Sprintf("%d/%d", i+1, len(args)))

					enrichment, err := a.service.AutoEnrich(cmd.Context(), id)
					switch {
					case errors.Is(err, enrich.ErrNotFound):
						fmt.Fprintf(cmd.OutOrStdout(), "%s: no metadata found\n", id)
						continue
					case err != nil:
						slog.Error("Failed to enrich book", "id", id, "err", err)
						failed++
						continue
					}

					if !enrichment.Changed {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: already up to date (%s)\n", id, enrichment.Record.Source.ID)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: updated %s from %s\n", id, strings.Join(enrichment.Fields, ", "), enrichment.Record.Source.ID)
				}

				if failed > 0 {
					return fmt.Errorf("%d of %d books failed", failed, len(args))
				}
				return nil
			})
		},
	}

	return cmd
}
