package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newMakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "make [targets...]",
		Short: "Make the given targets, or the first declared target",
		Args:  cobra.ArbitraryArgs,
		RunE:  c.runMake,
	}
}

func (c *CLI) runMake(cmd *cobra.Command, args []string) error {
	return c.app.Make(cmd.Context(), args, options(cmd))
}
