package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lydakis/mcpd/internal/daemon"
	"github.com/lydakis/mcpd/internal/paths"
)

func newStartCmd() *cobra.Command {
	var foreground bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the MCP daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStart(cmd, foreground)
		},
	}
	cmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in the foreground instead of daemonizing")

	return cmd
}

func runStart(cmd *cobra.Command, foreground bool) error {
	out := cmd.OutOrStdout()

	if daemonIsRunningFn() {
		fmt.Fprintln(out, color.YellowString("MCP daemon is already running"))
		return nil
	}

	if foreground {
		fmt.Fprintln(out, color.GreenString("Starting MCP daemon in foreground"))
		fmt.Fprintf(out, "Socket: %s\n", daemon.SocketPath())
		fmt.Fprintf(out, "Log file: %s\n", paths.LogPath())
		if err := daemonRunFn(); err != nil {
			return err
		}
		fmt.Fprintln(out, color.YellowString("MCP daemon stopped"))
		return nil
	}

	fmt.Fprintln(out, color.GreenString("Starting MCP daemon in background"))
	fmt.Fprintf(out, "Socket: %s\n", daemon.SocketPath())
	fmt.Fprintf(out, "Log file: %s\n", paths.LogPath())

	pid, err := daemonStartBackgroundFn()
	if err != nil {
		return fmt.Errorf("starting MCP daemon: %w", err)
	}
	fmt.Fprintln(out, color.GreenString("MCP daemon started with PID %d", pid))
	return nil
}
