package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [target]",
		Short: "Make a target and remake it whenever its sources change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) == 1 {
				target = args[0]
			}
			return c.app.Watch(cmd.Context(), target, options(cmd))
		},
	}
}
