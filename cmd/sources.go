package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookmeta/internal/policy"
)

func newSourcesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List metadata sources and whether they can be queried",
		Long: `Lists every built-in source in hierarchy order with its registry state
(inactive when a credential or dataset is missing) and its enablement in the
settings file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(a *app) error {
				type row struct {
					ID          string `json:"id" yaml:"id"`
					Description string `json:"description" yaml:"description"`
					Active      bool   `json:"active" yaml:"active"`
					Enabled     bool   `json:"enabled" yaml:"enabled"`
				}

				reg := a.service.Registry
				current := a.settings.Current()
				var rows []row
				for _, p := range policy.Ordered(reg, current.Hierarchy) {
					info := p.Info()
					rows = append(rows, row{
						ID:          info.ID,
						Description: info.Description,
						Active:      reg.Active(info.ID),
						Enabled:     current.GloballyEnabled(info.ID),
					})
				}

				return render(cmd.OutOrStdout(), format, rows, func(w io.Writer) error {
					for i, r := range rows {
						fmt.Fprintf(w, "%d. %-12s %-32s active=%-5v enabled=%v\n", i+1, r.ID, r.Description, r.Active, r.Enabled)
					}
					fmt.Fprintf(w, "\nauto_fetch=%v smart_merge=%v\n", current.AutoFetch, current.SmartMerge)
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, yaml)")

	return cmd
}
