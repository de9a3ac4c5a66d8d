package cli

import (
	"github.com/spf13/cobra"
)

func newRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the MCP daemon",
		RunE:  runRestart,
	}
}

func runRestart(cmd *cobra.Command, args []string) error {
	if daemonIsRunningFn() {
		if err := runStop(cmd, args); err != nil {
			return err
		}
	}
	return runStart(cmd, false)
}
