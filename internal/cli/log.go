package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lydakis/mcpd/internal/paths"
)

var followInterval = 500 * time.Millisecond

func newLogCmd() *cobra.Command {
	var (
		lines  int
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the MCP daemon log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLog(cmd, lines, follow)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of log lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing the log as it grows")

	return cmd
}

func runLog(cmd *cobra.Command, lines int, follow bool) error {
	out := cmd.OutOrStdout()
	logPath := paths.LogPath()

	f, err := os.Open(logPath)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(out, color.YellowString("Log file not found: %s", logPath))
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading log file: %w", err)
	}
	defer f.Close()

	if err := printLastLines(out, f, lines); err != nil {
		return fmt.Errorf("reading log file: %w", err)
	}
	if !follow {
		return nil
	}
	return followFile(cmd.Context(), out, f)
}

// printLastLines writes the final n lines of f and leaves the read
// offset at the end of the file.
func printLastLines(w io.Writer, f *os.File, n int) error {
	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	content := strings.TrimSuffix(string(data), "\n")
	if content == "" {
		return nil
	}

	lines := strings.Split(content, "\n")
	if n >= 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}

// followFile copies anything appended to f until ctx is cancelled.
func followFile(ctx context.Context, w io.Writer, f *os.File) error {
	ticker := time.NewTicker(followInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := io.Copy(w, f); err != nil {
				return fmt.Errorf("reading log file: %w", err)
			}
		}
	}
}
