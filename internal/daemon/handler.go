package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lydakis/mcpd/internal/ipc"
	"github.com/lydakis/mcpd/internal/mcpconn"
	"github.com/lydakis/mcpd/internal/registry"
	"github.com/lydakis/mcpd/internal/response"
)

// Handler answers IPC requests against the session registry. It never
// mutates the registry and never lets an operation failure escape as
// anything other than an error response.
type Handler struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// NewHandler creates a request handler over the given registry.
func NewHandler(reg *registry.Registry, logger *slog.Logger) *Handler {
	return &Handler{reg: reg, logger: logger}
}

// Handle dispatches one decoded request to its operation.
func (h *Handler) Handle(ctx context.Context, req *ipc.Request) *ipc.Response {
	switch req.Type {
	case ipc.TypeExecuteTool:
		return h.executeTool(ctx, req)
	case ipc.TypeListServers:
		return h.listServers()
	case ipc.TypeListServerTools:
		return h.listServerTools(ctx, req.ServerName)
	case ipc.TypeListServerResourceTemplates:
		return h.listServerResourceTemplates(ctx, req.ServerName)
	case ipc.TypeListServerResources:
		return h.listServerResources(ctx, req.ServerName)
	default:
		return ipc.Errorf("Unknown request type: %q", req.Type)
	}
}

func (h *Handler) executeTool(ctx context.Context, req *ipc.Request) *ipc.Response {
	if req.ServerName == "" || req.ToolName == "" {
		return ipc.Errorf("Missing required fields (server_name, tool_name)")
	}

	sess, ok := h.reg.Get(req.ServerName)
	if !ok {
		return ipc.Errorf("MCP server '%s' not found or not connected", req.ServerName)
	}

	args, err := decodeArguments(req.Arguments)
	if err != nil {
		return ipc.Errorf("Error executing MCP tool: %v", err)
	}

	h.logger.Info("executing tool", "server", req.ServerName, "tool", req.ToolName)
	result, err := sess.CallTool(ctx, req.ToolName, args)
	if err != nil {
		h.logger.Error("tool call failed", "server", req.ServerName, "tool", req.ToolName, "error", err)
		return ipc.Errorf("Error executing MCP tool: %v", err)
	}

	text, found := response.Text(result)
	if !found {
		return ipc.Success("No text content found in result")
	}
	return ipc.Success(text)
}

func (h *Handler) listServers() *ipc.Response {
	return marshalListPayload(h.reg.Names())
}

func (h *Handler) listServerTools(ctx context.Context, server string) *ipc.Response {
	sess, errResp := h.lookupListTarget(server)
	if errResp != nil {
		return errResp
	}

	tools, err := sess.ListTools(ctx)
	if err != nil {
		return ipc.Errorf("Error listing tools: %v", err)
	}
	return marshalListPayload(tools)
}

func (h *Handler) listServerResourceTemplates(ctx context.Context, server string) *ipc.Response {
	sess, errResp := h.lookupListTarget(server)
	if errResp != nil {
		return errResp
	}

	templates, err := sess.ListResourceTemplates(ctx)
	if err != nil {
		return ipc.Errorf("Error listing resource templates: %v", err)
	}
	return marshalListPayload(templates)
}

func (h *Handler) listServerResources(ctx context.Context, server string) *ipc.Response {
	sess, errResp := h.lookupListTarget(server)
	if errResp != nil {
		return errResp
	}

	resources, err := sess.ListResources(ctx)
	if err != nil {
		return ipc.Errorf("Error listing resources: %v", err)
	}
	return marshalListPayload(resources)
}

func (h *Handler) lookupListTarget(server string) (*mcpconn.Session, *ipc.Response) {
	if server == "" {
		return nil, ipc.Errorf("Missing server_name parameter")
	}
	sess, ok := h.reg.Get(server)
	if !ok {
		return nil, ipc.Errorf("Server '%s' not found or not connected", server)
	}
	return sess, nil
}

// marshalListPayload JSON-encodes a list result into the response content.
// Clients decode the content string a second time to recover the array;
// existing clients depend on this double encoding.
func marshalListPayload(v any) *ipc.Response {
	data, err := json.Marshal(v)
	if err != nil {
		return ipc.Errorf("Error encoding response: %v", err)
	}
	return ipc.Success(string(data))
}

func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("decoding arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
