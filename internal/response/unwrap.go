package response

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Text extracts every text content item from an MCP CallToolResult and joins
// them with newlines. found is false when the result held no text items;
// non-text items (images, embedded resources) are ignored.
func Text(result *mcp.CallToolResult) (text string, found bool) {
	if result == nil {
		return "", false
	}

	var parts []string
	for _, content := range result.Content {
		if t, ok := textOf(content); ok {
			parts = append(parts, t)
		}
	}
	if parts == nil {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}

func textOf(content mcp.Content) (string, bool) {
	switch c := content.(type) {
	case mcp.TextContent:
		return c.Text, true
	case *mcp.TextContent:
		return c.Text, true
	default:
		// Content implementations outside this package still identify
		// text items by their wire shape.
		var typed struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		raw, err := json.Marshal(content)
		if err != nil || json.Unmarshal(raw, &typed) != nil {
			return "", false
		}
		if typed.Type != "text" {
			return "", false
		}
		return typed.Text, true
	}
}
