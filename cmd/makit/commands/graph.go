package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph [targets...]",
		Short: "Make the given targets and print their dependency trees",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Graph(cmd.Context(), args, options(cmd))
		},
	}
}
