package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"internify/internal/api"
)

func newSearchCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <role>",
		Short: "Search postings; --pick N hands one to compose",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			pick, _ := cmd.Flags().GetInt("pick")

			page, err := mountDashboard(cmd.Context(), app(), limit)
			if err != nil {
				return err
			}
			results, err := page.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for i, p := range results {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, p.Title, p.Company, p.Location)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if pick <= 0 {
				return nil
			}
			if err := page.Select(pick - 1); err != nil {
				return fmt.Errorf("pick %d: %w", pick, err)
			}
			if err := page.Continue(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Selected %q. Run `internify compose` next.\n", results[pick-1].Title)
			return nil
		},
	}
	cmd.Flags().Int("limit", api.DefaultSearchLimit, fmt.Sprintf("Maximum results (1-%d)", api.MaxSearchLimit))
	cmd.Flags().Int("pick", 0, "Select result N for the email step")
	return cmd
}
