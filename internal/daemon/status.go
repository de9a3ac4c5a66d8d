package daemon

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lydakis/mcpd/internal/config"
	"github.com/lydakis/mcpd/internal/daemonclient"
	"github.com/lydakis/mcpd/internal/paths"
	"golang.org/x/sys/unix"
)

// ErrNotRunning reports that no daemon process was found to act on.
var ErrNotRunning = errors.New("MCP daemon is not running")

var (
	stopWait               = 5 * time.Second
	stopPollInterval       = 100 * time.Millisecond
	killFn                 = unix.Kill
	listConnectedServersFn = listConnectedServers
)

// Status describes the daemon process as seen from outside.
type Status struct {
	Running    bool
	PID        int
	SocketPath string
	LogPath    string
	Servers    []string
}

// StopResult reports how a Stop attempt went. Terminated is false when the
// process survived the bounded wait; escalation is left to the operator.
type StopResult struct {
	PID        int
	Terminated bool
}

// SocketPath resolves the effective daemon socket path, honoring a
// socket_path override in the config file.
func SocketPath() string {
	cfg, err := config.Load()
	if err != nil {
		return paths.SocketPath()
	}
	return cfg.Daemon.SocketPath
}

// IsRunning reports whether a daemon is up: either the recorded pid answers
// a signal-0 probe or something is accepting on the socket.
func IsRunning() bool {
	if pid, err := readPIDFile(); err == nil && processAlive(pid) {
		return true
	}
	return isListeningFn(SocketPath())
}

// Stop sends SIGTERM to the recorded daemon process and waits a bounded
// time for it to exit. On termination the stale pid and socket files are
// removed.
func Stop() (*StopResult, error) {
	if !IsRunning() {
		return nil, ErrNotRunning
	}

	pid, err := readPIDFile()
	if err != nil {
		return nil, fmt.Errorf("reading pid file: %w", err)
	}

	if err := killFn(pid, unix.SIGTERM); err != nil {
		if errors.Is(err, unix.ESRCH) {
			// The recorded process is already gone; clear its leftovers.
			removeRuntimeFiles()
			return &StopResult{PID: pid, Terminated: true}, nil
		}
		return nil, fmt.Errorf("signaling pid %d: %w", pid, err)
	}

	deadline := time.Now().Add(stopWait)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			removeRuntimeFiles()
			return &StopResult{PID: pid, Terminated: true}, nil
		}
		sleepFn(stopPollInterval)
	}
	return &StopResult{PID: pid, Terminated: false}, nil
}

// CurrentStatus gathers liveness, runtime paths and, when the daemon is up,
// the connected server names via a list_servers round-trip.
func CurrentStatus() Status {
	st := Status{
		SocketPath: SocketPath(),
		LogPath:    paths.LogPath(),
	}
	if !IsRunning() {
		return st
	}

	st.Running = true
	if pid, err := readPIDFile(); err == nil {
		st.PID = pid
	}
	st.Servers = listConnectedServersFn(st.SocketPath)
	return st
}

func listConnectedServers(socketPath string) []string {
	c := daemonclient.New(daemonclient.Options{SocketPath: socketPath})
	defer c.Close()
	return c.ListServers()
}

// processAlive reports whether a signal-0 probe reaches the process. EPERM
// means the process exists but belongs to another user, which still counts
// as alive.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := killFn(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func writePIDFile(pid int) error {
	if err := paths.EnsureDir(paths.DataDir()); err != nil {
		return err
	}
	return os.WriteFile(paths.PIDPath(), []byte(strconv.Itoa(pid)+"\n"), 0600)
}

func readPIDFile() (int, error) {
	data, err := os.ReadFile(paths.PIDPath())
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid file %s: %w", paths.PIDPath(), err)
	}
	return pid, nil
}

func removeRuntimeFiles() {
	os.Remove(paths.PIDPath())
	os.Remove(SocketPath())
}
