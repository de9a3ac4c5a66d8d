package daemon

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/lydakis/mcpd/internal/paths"
)

var (
	startupWait        = 5 * time.Second
	isListeningFn      = isListening
	spawnProcessFn     = spawnProcess
	acquireSpawnLockFn = acquireSpawnLock
	execCommandFn      = exec.Command
)

// StartBackground spawns a detached daemon process, records its pid and
// waits for the socket to accept connections. Concurrent starts are
// serialized by a file lock so exactly one daemon survives; a caller that
// loses the race gets the winner's pid.
func StartBackground() (int, error) {
	if err := paths.EnsureDir(paths.DataDir()); err != nil {
		return 0, fmt.Errorf("creating data dir: %w", err)
	}

	release, err := acquireSpawnLockFn(paths.LockPath())
	if err != nil {
		return 0, fmt.Errorf("acquiring spawn lock: %w", err)
	}
	defer release() //nolint:errcheck

	socketPath := SocketPath()

	// A concurrent start may have won the lock first.
	if pid, err := readPIDFile(); err == nil && processAlive(pid) && isListeningFn(socketPath) {
		return pid, nil
	}

	pid, err := spawnProcessFn()
	if err != nil {
		return 0, err
	}
	if err := writePIDFile(pid); err != nil {
		return 0, fmt.Errorf("writing pid file: %w", err)
	}
	if err := waitForSocket(socketPath, startupWait); err != nil {
		return 0, err
	}
	return pid, nil
}

func acquireSpawnLock(path string) (func() error, error) {
	fl := flock.New(path)
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	return fl.Unlock, nil
}

// spawnProcess re-execs the current binary with the __daemon sentinel in a
// new session, standard streams pointed at /dev/null.
func spawnProcess() (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("finding executable: %w", err)
	}

	cmd, closeStreams, err := newDaemonCommand(exe)
	if err != nil {
		return 0, err
	}
	defer closeStreams()

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("spawning daemon: %w", err)
	}
	pid := cmd.Process.Pid

	// Reap the child if it ever exits; the CLI process itself is gone long
	// before a healthy daemon stops.
	go cmd.Wait() //nolint:errcheck
	return pid, nil
}

func newDaemonCommand(exe string) (*exec.Cmd, func(), error) {
	cmd := execCommandFn(exe, "__daemon")
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", os.DevNull, err)
	}

	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd, func() {
		_ = devNull.Close()
	}, nil
}

func waitForSocket(socketPath string, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if isListeningFn(socketPath) {
			return nil
		}
		sleepFn(50 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not start within %s", wait)
}

func isListening(socketPath string) bool {
	conn, err := net.DialTimeout("unix", socketPath, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
