package main

import (
	"fmt"
	"os"

	"github.com/lydakis/mcpd/internal/cli"
	"github.com/lydakis/mcpd/internal/daemon"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "__daemon" {
		if err := daemon.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "mcpd daemon: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
