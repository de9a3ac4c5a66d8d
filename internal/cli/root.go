package cli

import (
	"github.com/spf13/cobra"

	"github.com/lydakis/mcpd/internal/daemon"
)

// Seams for tests.
var (
	daemonIsRunningFn       = daemon.IsRunning
	daemonRunFn             = daemon.Run
	daemonStartBackgroundFn = daemon.StartBackground
	daemonStopFn            = daemon.Stop
	daemonStatusFn          = daemon.CurrentStatus
)

// Execute runs the mcpd command tree.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mcpd",
		Short:         "Manage the MCP daemon",
		Long:          "mcpd runs a single background daemon that holds live sessions to the\nconfigured MCP servers and answers requests from local clients over a\nUnix socket.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newStartCmd(),
		newStopCmd(),
		newStatusCmd(),
		newRestartCmd(),
		newLogCmd(),
		newVersionCmd(),
	)

	return rootCmd
}
