package daemonclient

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/lydakis/mcpd/internal/config"
	"github.com/lydakis/mcpd/internal/ipc"
	"github.com/lydakis/mcpd/internal/mcpconn"
	"github.com/lydakis/mcpd/internal/paths"
)

const defaultReadTimeout = 10 * time.Second

// Options configures a Client. Zero values fall back to the config file,
// the MCPD_POOL_SIZE / MCPD_BUFFER_SIZE environment overrides and the
// built-in defaults, in that order.
type Options struct {
	SocketPath  string
	PoolSize    int
	BufferSize  int
	ReadTimeout time.Duration
}

// Client talks to the daemon over its Unix socket. Every failure comes back
// as an error-status Response, never as a Go error, so callers render one
// shape regardless of where the exchange broke down.
type Client struct {
	socketPath  string
	bufferSize  int
	readTimeout time.Duration
	pool        *Pool
}

// New creates a daemon client.
func New(opts Options) *Client {
	socketPath := opts.SocketPath
	if socketPath == "" {
		socketPath = defaultSocketPath()
	}
	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = envInt("MCPD_POOL_SIZE", config.DefaultPoolSize)
	}
	bufferSize := opts.BufferSize
	if bufferSize <= 0 {
		bufferSize = envInt("MCPD_BUFFER_SIZE", config.DefaultBufferSize)
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}

	return &Client{
		socketPath:  socketPath,
		bufferSize:  bufferSize,
		readTimeout: readTimeout,
		pool:        NewPool(socketPath, poolSize),
	}
}

// SendRequest performs one framed request/response exchange with the
// daemon. The pooled connection is always released before returning.
func (c *Client) SendRequest(req *ipc.Request) *ipc.Response {
	if _, err := os.Stat(c.socketPath); err != nil {
		return ipc.Errorf("MCP daemon socket not found. Make sure the daemon is running.")
	}

	conn, err := c.pool.Get()
	if err != nil {
		return ipc.Errorf("Communication error: %v", err)
	}
	resp, broken := c.exchange(conn, req)
	c.pool.Put(conn, broken)
	return resp
}

// exchange writes the framed request and reads chunks until the
// accumulated buffer parses as one complete response document. The second
// return value reports whether the connection must be discarded.
func (c *Client) exchange(conn net.Conn, req *ipc.Request) (*ipc.Response, bool) {
	payload, err := json.Marshal(req)
	if err != nil {
		return ipc.Errorf("Communication error: %v", err), false
	}
	payload = append(payload, '\n')
	if _, err := conn.Write(payload); err != nil {
		return ipc.Errorf("Communication error: %v", err), true
	}

	var buf []byte
	chunk := make([]byte, c.bufferSize)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return ipc.Errorf("Communication error: %v", err), true
		}
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			var resp ipc.Response
			if jerr := json.Unmarshal(buf, &resp); jerr == nil {
				conn.SetReadDeadline(time.Time{})
				return &resp, false
			}
			// Partial document; keep reading.
		}
		if err != nil {
			conn.SetReadDeadline(time.Time{})
			switch {
			case errors.Is(err, os.ErrDeadlineExceeded):
				if len(buf) > 0 {
					return ipc.Errorf("Timeout waiting for complete response from MCP daemon"), true
				}
				return ipc.Errorf("Timeout waiting for response from MCP daemon"), true
			case errors.Is(err, io.EOF):
				if len(buf) > 0 {
					var resp ipc.Response
					if jerr := json.Unmarshal(buf, &resp); jerr != nil {
						return ipc.Errorf("Invalid JSON response: %v", jerr), true
					}
					return &resp, true
				}
				return ipc.Errorf("No response from MCP daemon"), true
			default:
				return ipc.Errorf("Communication error: %v", err), true
			}
		}
	}
}

// ExecuteTool invokes a tool on a connected server and returns the raw
// response. A nil argument map is sent as an empty object.
func (c *Client) ExecuteTool(serverName, toolName string, args map[string]any) *ipc.Response {
	if args == nil {
		args = map[string]any{}
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return ipc.Errorf("Communication error: %v", err)
	}
	return c.SendRequest(&ipc.Request{
		Type:       ipc.TypeExecuteTool,
		ServerName: serverName,
		ToolName:   toolName,
		Arguments:  payload,
	})
}

// ListServers returns the connected server names, or an empty slice when
// the daemon is unreachable or reports an error.
func (c *Client) ListServers() []string {
	resp := c.SendRequest(&ipc.Request{Type: ipc.TypeListServers})
	names := []string{}
	decodeListContent(resp, &names)
	return names
}

// ListServerTools returns a server's tool descriptors, or an empty slice on
// any error.
func (c *Client) ListServerTools(serverName string) []mcpconn.ToolInfo {
	resp := c.SendRequest(&ipc.Request{Type: ipc.TypeListServerTools, ServerName: serverName})
	tools := []mcpconn.ToolInfo{}
	decodeListContent(resp, &tools)
	return tools
}

// ListServerResourceTemplates returns a server's resource template
// descriptors, or an empty slice on any error.
func (c *Client) ListServerResourceTemplates(serverName string) []mcpconn.ResourceTemplateInfo {
	resp := c.SendRequest(&ipc.Request{Type: ipc.TypeListServerResourceTemplates, ServerName: serverName})
	templates := []mcpconn.ResourceTemplateInfo{}
	decodeListContent(resp, &templates)
	return templates
}

// ListServerResources returns a server's resource descriptors, or an empty
// slice on any error.
func (c *Client) ListServerResources(serverName string) []mcpconn.ResourceInfo {
	resp := c.SendRequest(&ipc.Request{Type: ipc.TypeListServerResources, ServerName: serverName})
	resources := []mcpconn.ResourceInfo{}
	decodeListContent(resp, &resources)
	return resources
}

// Close releases the pool's idle connections.
func (c *Client) Close() {
	c.pool.CloseAll()
}

// decodeListContent unwraps the JSON-encoded array carried inside a
// successful response's content field.
func decodeListContent(resp *ipc.Response, v any) {
	if resp == nil || !resp.IsSuccess() || resp.Content == "" {
		return
	}
	// List payloads arrive double-encoded; ignore undecodable content and
	// leave the empty collection in place.
	_ = json.Unmarshal([]byte(resp.Content), v)
}

func defaultSocketPath() string {
	cfg, err := config.Load()
	if err != nil {
		return paths.SocketPath()
	}
	return cfg.Daemon.SocketPath
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
