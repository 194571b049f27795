package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "bookmeta",
		Short: "Book metadata lookup across catalogs, APIs and offline datasets",
		Long: `Bookmeta searches a configurable set of metadata sources for a book and
merges the chosen record onto a stored catalog entry.

Sources are queried in parallel when exploring, or one after another in
hierarchy order when fetching automatically. Source order and enablement
come from the settings file (BOOKMETA_SETTINGS).`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging and per-source outcome reports")

	// Add subcommands
	cmd.AddCommand(newSourcesCmd())
	cmd.AddCommand(newExploreCmd())
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newApplyCmd())
	cmd.AddCommand(newEnrichCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDatasetCmd())

	return cmd
}
