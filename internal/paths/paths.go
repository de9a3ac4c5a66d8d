package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// osName is swapped in tests to exercise the darwin layout.
var osName = runtime.GOOS

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	h, _ := os.UserHomeDir()
	return h
}

func xdgDir(envVar, fallbackSuffix string) string {
	if v := os.Getenv(envVar); v != "" {
		return filepath.Join(v, "mcpd")
	}
	return filepath.Join(homeDir(), fallbackSuffix, "mcpd")
}

// ConfigDir returns the mcpd config directory. MCPD_CONFIG_DIR overrides;
// otherwise $XDG_CONFIG_HOME/mcpd.
func ConfigDir() string {
	if v := os.Getenv("MCPD_CONFIG_DIR"); v != "" {
		return v
	}
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the mcpd per-user data directory, where the daemon keeps
// its socket, pid file and logs. MCPD_DATA_DIR overrides; on darwin the
// default is ~/Library/Application Support/mcpd, elsewhere $XDG_DATA_HOME/mcpd.
func DataDir() string {
	if v := os.Getenv("MCPD_DATA_DIR"); v != "" {
		return v
	}
	if osName == "darwin" {
		return filepath.Join(homeDir(), "Library", "Application Support", "mcpd")
	}
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// LogDir returns the daemon log directory (~/Library/Logs/mcpd on darwin,
// DataDir()/logs elsewhere).
func LogDir() string {
	if osName == "darwin" && os.Getenv("MCPD_DATA_DIR") == "" {
		return filepath.Join(homeDir(), "Library", "Logs", "mcpd")
	}
	return filepath.Join(DataDir(), "logs")
}

// ConfigFile returns the path to config.toml.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// SocketPath returns the path to the daemon Unix socket.
func SocketPath() string {
	return filepath.Join(DataDir(), "mcp_daemon.sock")
}

// PIDPath returns the path to the daemon pid file.
func PIDPath() string {
	return filepath.Join(DataDir(), "mcp_daemon.pid")
}

// LogPath returns the path to the daemon log file.
func LogPath() string {
	return filepath.Join(LogDir(), "mcp_daemon.log")
}

// LockPath returns the path to the file lock serializing daemon spawns.
func LockPath() string {
	return filepath.Join(DataDir(), "mcp_daemon.lock")
}

// EnsureDir creates a directory and parents if needed.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0700)
}
