package mcpconn

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/lydakis/mcpd/internal/config"
	mcpclient "github.com/mark3labs/mcp-go/client"
)

var lookPathFn = exec.LookPath

// connectStdio spawns the configured command and opens an MCP session over
// its standard streams. The config's env entries are appended after the
// daemon's own environment, so config values win on key collision.
func connectStdio(ctx context.Context, name string, scfg config.ServerConfig) (*Session, error) {
	command := strings.TrimSpace(scfg.Command)
	if _, err := lookPathFn(command); err != nil {
		return nil, fmt.Errorf("required runtime %q not found in PATH", command)
	}

	env := make([]string, 0, len(scfg.Env))
	for k, v := range scfg.Env {
		env = append(env, k+"="+v)
	}

	c, err := mcpclient.NewStdioMCPClient(command, env, scfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("creating stdio client: %w", err)
	}

	if _, err := c.Initialize(ctx, initializeRequest()); err != nil {
		c.Close()
		return nil, fmt.Errorf("initializing: %w", err)
	}

	return newClientSession(name, KindStdio, c), nil
}
