package mcpconn

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// Transport kinds.
const (
	KindStdio = "stdio"
	KindSSE   = "sse"
)

// ToolInfo is the wire-shaped tool descriptor served to clients.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ResourceInfo is the wire-shaped resource descriptor served to clients.
type ResourceInfo struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MIMEType    string `json:"mimeType"`
}

// ResourceTemplateInfo is the wire-shaped resource template descriptor
// served to clients.
type ResourceTemplateInfo struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MIMEType    string `json:"mimeType"`
}

// Session is one live connection to an MCP server. The function fields hold
// the transport operations; tests substitute fakes in their place. A Session
// placed in the registry stays valid until the daemon shuts down.
type Session struct {
	Name string
	Kind string

	ListToolsFn             func(ctx context.Context) ([]mcp.Tool, error)
	ListResourcesFn         func(ctx context.Context) ([]mcp.Resource, error)
	ListResourceTemplatesFn func(ctx context.Context) ([]mcp.ResourceTemplate, error)
	CallToolFn              func(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error)
	CloseFn                 func() error
}

// ListTools returns the server's tools as wire descriptors.
func (s *Session) ListTools(ctx context.Context) ([]ToolInfo, error) {
	tools, err := s.ListToolsFn(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]ToolInfo, len(tools))
	for i, t := range tools {
		schema, _ := marshalInputSchema(t)
		infos[i] = ToolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		}
	}
	return infos, nil
}

// ListResources returns the server's resources as wire descriptors.
func (s *Session) ListResources(ctx context.Context) ([]ResourceInfo, error) {
	resources, err := s.ListResourcesFn(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]ResourceInfo, len(resources))
	for i, r := range resources {
		infos[i] = ResourceInfo{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MIMEType,
		}
	}
	return infos, nil
}

// ListResourceTemplates returns the server's resource templates as wire
// descriptors.
func (s *Session) ListResourceTemplates(ctx context.Context) ([]ResourceTemplateInfo, error) {
	templates, err := s.ListResourceTemplatesFn(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]ResourceTemplateInfo, len(templates))
	for i, tpl := range templates {
		infos[i] = ResourceTemplateInfo{
			URITemplate: rawURITemplate(tpl),
			Name:        tpl.Name,
			Description: tpl.Description,
			MIMEType:    tpl.MIMEType,
		}
	}
	return infos, nil
}

// CallTool invokes a tool on the server.
func (s *Session) CallTool(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error) {
	return s.CallToolFn(ctx, tool, args)
}

// Close releases the session's transport.
func (s *Session) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

func marshalInputSchema(t mcp.Tool) (json.RawMessage, error) {
	if len(t.RawInputSchema) > 0 {
		return t.RawInputSchema, nil
	}
	return json.Marshal(t.InputSchema)
}

func rawURITemplate(tpl mcp.ResourceTemplate) string {
	if tpl.URITemplate == nil {
		return ""
	}
	return tpl.URITemplate.Raw()
}
