package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kubilitics/promits/internal/ai"
	"github.com/kubilitics/promits/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show promits build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "promits %s (commit %s, built %s)\n", version.Version, version.Commit, version.BuildDate)
			return nil
		},
	}
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List supported models and list prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODEL\tINPUT $/MTOK\tOUTPUT $/MTOK\tDEFAULT")
			for _, m := range ai.Models() {
				in, out := m.Rates()
				def := ""
				if m == ai.DefaultModel {
					def = "*"
				}
				fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%s\n", m, in, out, def)
			}
			return tw.Flush()
		},
	}
}
