package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/makit/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the timestamp database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, _ := cmd.Flags().GetBool("records")
			return c.app.Clean(cmd.Context(), app.CleanOptions{
				Options: options(cmd),
				Records: records,
			})
		},
	}

	cmd.Flags().Bool("records", false, "Also remove dynamic dependency records")

	return cmd
}
