package paths

import (
	"path/filepath"
	"testing"
)

func TestDataDirPrefersOverrideEnv(t *testing.T) {
	t.Setenv("MCPD_DATA_DIR", "/tmp/mcpd-data")
	t.Setenv("XDG_DATA_HOME", "/tmp/data-home")

	got := DataDir()
	if got != "/tmp/mcpd-data" {
		t.Fatalf("DataDir() = %q, want %q", got, "/tmp/mcpd-data")
	}
}

func TestDataDirUsesXDGDataHome(t *testing.T) {
	t.Setenv("MCPD_DATA_DIR", "")
	t.Setenv("XDG_DATA_HOME", "/tmp/data-home")
	t.Setenv("HOME", "/tmp/home")

	got := DataDir()
	want := filepath.Join("/tmp/data-home", "mcpd")
	if got != want {
		t.Fatalf("DataDir() = %q, want %q", got, want)
	}
}

func TestDataDirFallsBackToHomeLocalShare(t *testing.T) {
	t.Setenv("MCPD_DATA_DIR", "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "/tmp/home")

	got := DataDir()
	want := filepath.Join("/tmp/home", ".local", "share", "mcpd")
	if got != want {
		t.Fatalf("DataDir() = %q, want %q", got, want)
	}
}

func TestDataDirOnDarwinUsesApplicationSupport(t *testing.T) {
	t.Setenv("MCPD_DATA_DIR", "")
	t.Setenv("HOME", "/tmp/home")
	oldOS := osName
	osName = "darwin"
	defer func() { osName = oldOS }()

	got := DataDir()
	want := filepath.Join("/tmp/home", "Library", "Application Support", "mcpd")
	if got != want {
		t.Fatalf("DataDir() = %q, want %q", got, want)
	}
}

func TestLogDirOnDarwinUsesLibraryLogs(t *testing.T) {
	t.Setenv("MCPD_DATA_DIR", "")
	t.Setenv("HOME", "/tmp/home")
	oldOS := osName
	osName = "darwin"
	defer func() { osName = oldOS }()

	got := LogDir()
	want := filepath.Join("/tmp/home", "Library", "Logs", "mcpd")
	if got != want {
		t.Fatalf("LogDir() = %q, want %q", got, want)
	}
}

func TestLogDirNestsUnderDataDir(t *testing.T) {
	t.Setenv("MCPD_DATA_DIR", "/tmp/mcpd-data")

	got := LogDir()
	want := filepath.Join("/tmp/mcpd-data", "logs")
	if got != want {
		t.Fatalf("LogDir() = %q, want %q", got, want)
	}
}

func TestSocketAndPIDPathsLiveInDataDir(t *testing.T) {
	t.Setenv("MCPD_DATA_DIR", "/tmp/mcpd-data")

	if got, want := SocketPath(), filepath.Join("/tmp/mcpd-data", "mcp_daemon.sock"); got != want {
		t.Fatalf("SocketPath() = %q, want %q", got, want)
	}
	if got, want := PIDPath(), filepath.Join("/tmp/mcpd-data", "mcp_daemon.pid"); got != want {
		t.Fatalf("PIDPath() = %q, want %q", got, want)
	}
}

func TestConfigFileUsesConfigDirOverride(t *testing.T) {
	t.Setenv("MCPD_CONFIG_DIR", "/tmp/mcpd-config")

	got := ConfigFile()
	want := filepath.Join("/tmp/mcpd-config", "config.toml")
	if got != want {
		t.Fatalf("ConfigFile() = %q, want %q", got, want)
	}
}
