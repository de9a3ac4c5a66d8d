package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lydakis/mcpd/internal/daemon"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the MCP daemon",
		RunE:  runStop,
	}
}

func runStop(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	res, err := daemonStopFn()
	if errors.Is(err, daemon.ErrNotRunning) {
		fmt.Fprintln(out, color.YellowString("MCP daemon is not running"))
		return nil
	}
	if err != nil {
		return fmt.Errorf("stopping MCP daemon: %w", err)
	}

	fmt.Fprintln(out, color.GreenString("Sent SIGTERM to MCP daemon process with PID %d", res.PID))
	if !res.Terminated {
		fmt.Fprintln(out, color.RedString("Process did not terminate after 5 seconds. You may need to kill it manually with 'kill -9 %d'", res.PID))
		return nil
	}
	fmt.Fprintln(out, color.GreenString("MCP daemon process terminated"))
	return nil
}
