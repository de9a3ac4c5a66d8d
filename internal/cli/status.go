package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show MCP daemon status",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	st := daemonStatusFn()
	if !st.Running {
		fmt.Fprintln(out, color.YellowString("MCP daemon is not running"))
		return nil
	}

	fmt.Fprintln(out, color.GreenString("MCP daemon is running"))
	fmt.Fprintf(out, "PID: %d\n", st.PID)
	fmt.Fprintf(out, "Socket: %s\n", st.SocketPath)
	fmt.Fprintf(out, "Log file: %s\n", st.LogPath)

	if len(st.Servers) == 0 {
		fmt.Fprintln(out, color.YellowString("No MCP servers connected"))
		return nil
	}

	fmt.Fprintln(out, "Connected MCP servers:")
	for _, name := range st.Servers {
		fmt.Fprintf(out, "  %s\n", name)
	}
	return nil
}
