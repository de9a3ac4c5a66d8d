package mcpconn

import (
	"context"
	"fmt"

	"github.com/lydakis/mcpd/internal/config"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

var (
	connectStdioFn = connectStdio
	connectSSEFn   = connectSSE
)

// Connect establishes a session to one declared server, choosing the
// transport from the config shape. On failure every partially-acquired
// resource is released and an error is returned; the caller decides whether
// that is fatal.
func Connect(ctx context.Context, name string, scfg config.ServerConfig) (*Session, error) {
	switch {
	case scfg.IsStdio():
		return connectStdioFn(ctx, name, scfg)
	case scfg.IsSSE():
		return connectSSEFn(ctx, name, scfg)
	default:
		return nil, fmt.Errorf("server %s: no command or url configured", name)
	}
}

func initializeRequest() mcp.InitializeRequest {
	return mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: "2025-11-25",
			ClientInfo: mcp.Implementation{
				Name:    "mcpd",
				Version: "0.1.0",
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	}
}

func newClientSession(name, kind string, c *mcpclient.Client) *Session {
	return &Session{
		Name: name,
		Kind: kind,
		ListToolsFn: func(ctx context.Context) ([]mcp.Tool, error) {
			result, err := c.ListTools(ctx, mcp.ListToolsRequest{})
			if err != nil {
				return nil, err
			}
			return result.Tools, nil
		},
		ListResourcesFn: func(ctx context.Context) ([]mcp.Resource, error) {
			result, err := c.ListResources(ctx, mcp.ListResourcesRequest{})
			if err != nil {
				return nil, err
			}
			return result.Resources, nil
		},
		ListResourceTemplatesFn: func(ctx context.Context) ([]mcp.ResourceTemplate, error) {
			result, err := c.ListResourceTemplates(ctx, mcp.ListResourceTemplatesRequest{})
			if err != nil {
				return nil, err
			}
			return result.ResourceTemplates, nil
		},
		CallToolFn: func(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error) {
			return c.CallTool(ctx, mcp.CallToolRequest{
				Params: mcp.CallToolParams{
					Name:      tool,
					Arguments: args,
				},
			})
		},
		CloseFn: c.Close,
	}
}
