package mcpconn

import (
	"context"
	"fmt"

	"github.com/lydakis/mcpd/internal/config"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
)

// connectSSE opens a long-lived event-stream connection to the configured
// URL and performs the MCP initialize exchange over it. Config-declared
// headers merge over the stream defaults, so a server entry can replace any
// of them.
func connectSSE(ctx context.Context, name string, scfg config.ServerConfig) (*Session, error) {
	headers := map[string]string{
		"Accept":        "text/event-stream",
		"Cache-Control": "no-cache",
	}
	if scfg.Token != "" {
		headers = setHeader(headers, "Authorization", "Bearer "+scfg.Token)
	}
	headers = mergeHeaders(headers, scfg.Headers)

	c, err := mcpclient.NewSSEMCPClient(scfg.URL, transport.WithHeaders(headers))
	if err != nil {
		return nil, fmt.Errorf("creating SSE client: %w", err)
	}

	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("starting SSE stream: %w", err)
	}

	if _, err := c.Initialize(ctx, initializeRequest()); err != nil {
		c.Close()
		return nil, fmt.Errorf("initializing: %w", err)
	}

	return newClientSession(name, KindSSE, c), nil
}
