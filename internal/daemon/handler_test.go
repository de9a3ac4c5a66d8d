package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/lydakis/mcpd/internal/ipc"
	"github.com/lydakis/mcpd/internal/mcpconn"
	"github.com/lydakis/mcpd/internal/registry"
	"github.com/mark3labs/mcp-go/mcp"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func textResult(items ...string) *mcp.CallToolResult {
	result := &mcp.CallToolResult{}
	for _, item := range items {
		result.Content = append(result.Content, mcp.TextContent{Type: "text", Text: item})
	}
	return result
}

func TestHandleExecuteToolJoinsTextContent(t *testing.T) {
	reg := registry.New()
	var gotTool string
	var gotArgs map[string]any
	reg.Add(&mcpconn.Session{
		Name: "weather",
		Kind: mcpconn.KindStdio,
		CallToolFn: func(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error) {
			gotTool = tool
			gotArgs = args
			return textResult("Sunny", "72F"), nil
		},
	})
	h := NewHandler(reg, discardLogger())

	resp := h.Handle(context.Background(), &ipc.Request{
		Type:       ipc.TypeExecuteTool,
		ServerName: "weather",
		ToolName:   "get_forecast",
		Arguments:  json.RawMessage(`{"city":"SF"}`),
	})

	if !resp.IsSuccess() {
		t.Fatalf("response = %+v, want success", resp)
	}
	if resp.Content != "Sunny\n72F" {
		t.Fatalf("content = %q, want %q", resp.Content, "Sunny\n72F")
	}
	if gotTool != "get_forecast" {
		t.Fatalf("tool = %q, want get_forecast", gotTool)
	}
	if !reflect.DeepEqual(gotArgs, map[string]any{"city": "SF"}) {
		t.Fatalf("arguments = %#v, want city=SF", gotArgs)
	}
}

func TestHandleExecuteToolMissingFields(t *testing.T) {
	reg := registry.New()
	h := NewHandler(reg, discardLogger())

	tests := []struct {
		name string
		req  *ipc.Request
	}{
		{"no server_name", &ipc.Request{Type: ipc.TypeExecuteTool, ToolName: "get_forecast"}},
		{"no tool_name", &ipc.Request{Type: ipc.TypeExecuteTool, ServerName: "weather"}},
		{"neither", &ipc.Request{Type: ipc.TypeExecuteTool}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.Handle(context.Background(), tt.req)
			if resp.Status != ipc.StatusError {
				t.Fatalf("status = %q, want error", resp.Status)
			}
			if resp.Error != "Missing required fields (server_name, tool_name)" {
				t.Fatalf("error = %q, want missing-fields message", resp.Error)
			}
		})
	}
}

func TestHandleExecuteToolUnknownServer(t *testing.T) {
	h := NewHandler(registry.New(), discardLogger())

	resp := h.Handle(context.Background(), &ipc.Request{
		Type:       ipc.TypeExecuteTool,
		ServerName: "weather",
		ToolName:   "get_forecast",
	})

	if resp.Status != ipc.StatusError {
		t.Fatalf("status = %q, want error", resp.Status)
	}
	if resp.Error != "MCP server 'weather' not found or not connected" {
		t.Fatalf("error = %q, want not-connected message", resp.Error)
	}
}

func TestHandleExecuteToolNoTextContentIsStillSuccess(t *testing.T) {
	reg := registry.New()
	reg.Add(&mcpconn.Session{
		Name: "files",
		CallToolFn: func(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{}, nil
		},
	})
	h := NewHandler(reg, discardLogger())

	resp := h.Handle(context.Background(), &ipc.Request{
		Type:       ipc.TypeExecuteTool,
		ServerName: "files",
		ToolName:   "read_file",
	})

	if !resp.IsSuccess() {
		t.Fatalf("response = %+v, want success", resp)
	}
	if resp.Content != "No text content found in result" {
		t.Fatalf("content = %q, want no-text message", resp.Content)
	}
}

func TestHandleExecuteToolErrorKeepsSessionUsable(t *testing.T) {
	reg := registry.New()
	calls := 0
	reg.Add(&mcpconn.Session{
		Name: "flaky",
		CallToolFn: func(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("upstream exploded")
			}
			return textResult("recovered"), nil
		},
	})
	h := NewHandler(reg, discardLogger())

	req := &ipc.Request{Type: ipc.TypeExecuteTool, ServerName: "flaky", ToolName: "poke"}

	first := h.Handle(context.Background(), req)
	if first.Status != ipc.StatusError {
		t.Fatalf("first status = %q, want error", first.Status)
	}
	if first.Error != "Error executing MCP tool: upstream exploded" {
		t.Fatalf("first error = %q, want wrapped message", first.Error)
	}

	second := h.Handle(context.Background(), req)
	if !second.IsSuccess() || second.Content != "recovered" {
		t.Fatalf("second response = %+v, want recovered success", second)
	}
}

func TestHandleExecuteToolUndecodableArguments(t *testing.T) {
	reg := registry.New()
	reg.Add(&mcpconn.Session{
		Name: "weather",
		CallToolFn: func(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error) {
			t.Fatal("CallTool invoked despite undecodable arguments")
			return nil, nil
		},
	})
	h := NewHandler(reg, discardLogger())

	resp := h.Handle(context.Background(), &ipc.Request{
		Type:       ipc.TypeExecuteTool,
		ServerName: "weather",
		ToolName:   "get_forecast",
		Arguments:  json.RawMessage(`"not-an-object"`),
	})

	if resp.Status != ipc.StatusError {
		t.Fatalf("status = %q, want error", resp.Status)
	}
	if resp.Error == "" || resp.Error[:24] != "Error executing MCP tool" {
		t.Fatalf("error = %q, want executing-tool prefix", resp.Error)
	}
}

func TestHandleListServersEmptyRegistry(t *testing.T) {
	h := NewHandler(registry.New(), discardLogger())

	resp := h.Handle(context.Background(), &ipc.Request{Type: ipc.TypeListServers})
	if !resp.IsSuccess() {
		t.Fatalf("response = %+v, want success", resp)
	}
	if resp.Content != "[]" {
		t.Fatalf("content = %q, want empty JSON array", resp.Content)
	}
}

func TestHandleListServersSortedAndIdempotent(t *testing.T) {
	reg := registry.New()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		reg.Add(&mcpconn.Session{Name: name})
	}
	h := NewHandler(reg, discardLogger())

	want := []string{"alpha", "mid", "zeta"}
	for i := 0; i < 2; i++ {
		resp := h.Handle(context.Background(), &ipc.Request{Type: ipc.TypeListServers})
		if !resp.IsSuccess() {
			t.Fatalf("call %d response = %+v, want success", i+1, resp)
		}

		// The content is itself a JSON-encoded array string.
		var names []string
		if err := json.Unmarshal([]byte(resp.Content), &names); err != nil {
			t.Fatalf("call %d content %q is not a JSON array: %v", i+1, resp.Content, err)
		}
		if !reflect.DeepEqual(names, want) {
			t.Fatalf("call %d names = %v, want %v", i+1, names, want)
		}
	}
}

func TestHandleListServerToolsEncodesDescriptors(t *testing.T) {
	reg := registry.New()
	reg.Add(&mcpconn.Session{
		Name: "github",
		ListToolsFn: func(ctx context.Context) ([]mcp.Tool, error) {
			return []mcp.Tool{
				{
					Name:           "search_repos",
					Description:    "Search repositories",
					RawInputSchema: json.RawMessage(`{"type":"object"}`),
				},
			}, nil
		},
	})
	h := NewHandler(reg, discardLogger())

	resp := h.Handle(context.Background(), &ipc.Request{
		Type:       ipc.TypeListServerTools,
		ServerName: "github",
	})
	if !resp.IsSuccess() {
		t.Fatalf("response = %+v, want success", resp)
	}

	var tools []mcpconn.ToolInfo
	if err := json.Unmarshal([]byte(resp.Content), &tools); err != nil {
		t.Fatalf("content %q is not a JSON array: %v", resp.Content, err)
	}
	if len(tools) != 1 || tools[0].Name != "search_repos" || tools[0].Description != "Search repositories" {
		t.Fatalf("tools = %+v, want single search_repos descriptor", tools)
	}
	if string(tools[0].InputSchema) != `{"type":"object"}` {
		t.Fatalf("inputSchema = %s, want raw schema", tools[0].InputSchema)
	}
}

func TestHandleListServerResourceTemplatesEncodesDescriptors(t *testing.T) {
	reg := registry.New()
	reg.Add(&mcpconn.Session{
		Name: "notes",
		ListResourceTemplatesFn: func(ctx context.Context) ([]mcp.ResourceTemplate, error) {
			return []mcp.ResourceTemplate{
				mcp.NewResourceTemplate("note://{id}", "note", mcp.WithTemplateDescription("One note"), mcp.WithTemplateMIMEType("text/plain")),
			}, nil
		},
	})
	h := NewHandler(reg, discardLogger())

	resp := h.Handle(context.Background(), &ipc.Request{
		Type:       ipc.TypeListServerResourceTemplates,
		ServerName: "notes",
	})
	if !resp.IsSuccess() {
		t.Fatalf("response = %+v, want success", resp)
	}

	var templates []mcpconn.ResourceTemplateInfo
	if err := json.Unmarshal([]byte(resp.Content), &templates); err != nil {
		t.Fatalf("content %q is not a JSON array: %v", resp.Content, err)
	}
	want := mcpconn.ResourceTemplateInfo{
		URITemplate: "note://{id}",
		Name:        "note",
		Description: "One note",
		MIMEType:    "text/plain",
	}
	if len(templates) != 1 || templates[0] != want {
		t.Fatalf("templates = %+v, want %+v", templates, want)
	}
}

func TestHandleListServerResourcesEncodesDescriptors(t *testing.T) {
	reg := registry.New()
	reg.Add(&mcpconn.Session{
		Name: "notes",
		ListResourcesFn: func(ctx context.Context) ([]mcp.Resource, error) {
			return []mcp.Resource{
				{URI: "note://welcome", Name: "welcome", Description: "Welcome note", MIMEType: "text/plain"},
			}, nil
		},
	})
	h := NewHandler(reg, discardLogger())

	resp := h.Handle(context.Background(), &ipc.Request{
		Type:       ipc.TypeListServerResources,
		ServerName: "notes",
	})
	if !resp.IsSuccess() {
		t.Fatalf("response = %+v, want success", resp)
	}

	var resources []mcpconn.ResourceInfo
	if err := json.Unmarshal([]byte(resp.Content), &resources); err != nil {
		t.Fatalf("content %q is not a JSON array: %v", resp.Content, err)
	}
	want := mcpconn.ResourceInfo{
		URI:         "note://welcome",
		Name:        "welcome",
		Description: "Welcome note",
		MIMEType:    "text/plain",
	}
	if len(resources) != 1 || resources[0] != want {
		t.Fatalf("resources = %+v, want %+v", resources, want)
	}
}

func TestHandleListRequestsRequireServerName(t *testing.T) {
	h := NewHandler(registry.New(), discardLogger())

	for _, typ := range []string{
		ipc.TypeListServerTools,
		ipc.TypeListServerResourceTemplates,
		ipc.TypeListServerResources,
	} {
		t.Run(typ, func(t *testing.T) {
			resp := h.Handle(context.Background(), &ipc.Request{Type: typ})
			if resp.Status != ipc.StatusError {
				t.Fatalf("status = %q, want error", resp.Status)
			}
			if resp.Error != "Missing server_name parameter" {
				t.Fatalf("error = %q, want missing-parameter message", resp.Error)
			}
		})
	}
}

func TestHandleListRequestsUnknownServer(t *testing.T) {
	h := NewHandler(registry.New(), discardLogger())

	for _, typ := range []string{
		ipc.TypeListServerTools,
		ipc.TypeListServerResourceTemplates,
		ipc.TypeListServerResources,
	} {
		t.Run(typ, func(t *testing.T) {
			resp := h.Handle(context.Background(), &ipc.Request{Type: typ, ServerName: "ghost"})
			if resp.Status != ipc.StatusError {
				t.Fatalf("status = %q, want error", resp.Status)
			}
			if resp.Error != "Server 'ghost' not found or not connected" {
				t.Fatalf("error = %q, want not-connected message", resp.Error)
			}
		})
	}
}

func TestHandleListRequestsReportOperationErrors(t *testing.T) {
	reg := registry.New()
	reg.Add(&mcpconn.Session{
		Name: "broken",
		ListToolsFn: func(ctx context.Context) ([]mcp.Tool, error) {
			return nil, errors.New("stream reset")
		},
		ListResourceTemplatesFn: func(ctx context.Context) ([]mcp.ResourceTemplate, error) {
			return nil, errors.New("stream reset")
		},
		ListResourcesFn: func(ctx context.Context) ([]mcp.Resource, error) {
			return nil, errors.New("stream reset")
		},
	})
	h := NewHandler(reg, discardLogger())

	tests := []struct {
		typ  string
		want string
	}{
		{ipc.TypeListServerTools, "Error listing tools: stream reset"},
		{ipc.TypeListServerResourceTemplates, "Error listing resource templates: stream reset"},
		{ipc.TypeListServerResources, "Error listing resources: stream reset"},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			resp := h.Handle(context.Background(), &ipc.Request{Type: tt.typ, ServerName: "broken"})
			if resp.Status != ipc.StatusError {
				t.Fatalf("status = %q, want error", resp.Status)
			}
			if resp.Error != tt.want {
				t.Fatalf("error = %q, want %q", resp.Error, tt.want)
			}
		})
	}
}

func TestHandleUnknownRequestType(t *testing.T) {
	h := NewHandler(registry.New(), discardLogger())

	tests := []struct {
		name string
		typ  string
		want string
	}{
		{"missing type", "", `Unknown request type: ""`},
		{"unrecognized type", "bogus", `Unknown request type: "bogus"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.Handle(context.Background(), &ipc.Request{Type: tt.typ})
			if resp.Status != ipc.StatusError {
				t.Fatalf("status = %q, want error", resp.Status)
			}
			if resp.Error != tt.want {
				t.Fatalf("error = %q, want %q", resp.Error, tt.want)
			}
		})
	}
}
