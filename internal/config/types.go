package config

// Config is the top-level mcpd configuration.
type Config struct {
	Servers map[string]ServerConfig `toml:"servers"`
	Daemon  DaemonConfig            `toml:"daemon"`
}

// ServerConfig describes how to connect to a single MCP server.
type ServerConfig struct {
	// Stdio transport
	Command string            `toml:"command"`
	Args    []string          `toml:"args"`
	Env     map[string]string `toml:"env"`

	// SSE transport
	URL     string            `toml:"url"`
	Token   string            `toml:"token"`
	Headers map[string]string `toml:"headers"`

	// Tool names that callers may invoke without interactive confirmation.
	// Loaded for clients; the daemon itself never consults it.
	AutoConfirm []string `toml:"auto_confirm"`
}

// DaemonConfig holds daemon process settings.
type DaemonConfig struct {
	SocketPath     string `toml:"socket_path"`
	LogLevel       string `toml:"log_level"`
	PoolSize       int    `toml:"pool_size"`
	BufferSize     int    `toml:"buffer_size"`
	ConnectDelayMS int    `toml:"connect_delay_ms"`
}

// IsStdio returns true if the server uses stdio transport.
func (s ServerConfig) IsStdio() bool {
	return s.Command != ""
}

// IsSSE returns true if the server uses the SSE transport.
func (s ServerConfig) IsSSE() bool {
	return s.URL != ""
}
