package ipc

import (
	"encoding/json"
	"fmt"
)

// Request types understood by the daemon.
const (
	TypeExecuteTool                 = "execute_tool"
	TypeListServers                 = "list_servers"
	TypeListServerTools             = "list_server_tools"
	TypeListServerResourceTemplates = "list_server_resource_templates"
	TypeListServerResources         = "list_server_resources"
)

// Request is sent from a client to the daemon over the Unix socket,
// one JSON document per line.
type Request struct {
	Type       string          `json:"type"`
	ServerName string          `json:"server_name,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
}

// Response is sent from the daemon back to the client, one JSON document
// per line. Exactly one of Content/Error is meaningful, keyed by Status.
// For list-type requests Content is itself a JSON-encoded array string that
// the client decodes a second time.
type Response struct {
	Status  string `json:"status"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Success builds a success response carrying content.
func Success(content string) *Response {
	return &Response{Status: StatusSuccess, Content: content}
}

// Errorf builds an error response with a formatted message.
func Errorf(format string, args ...any) *Response {
	return &Response{Status: StatusError, Error: fmt.Sprintf(format, args...)}
}

// IsSuccess reports whether the response carries a success status.
func (r *Response) IsSuccess() bool {
	return r != nil && r.Status == StatusSuccess
}
