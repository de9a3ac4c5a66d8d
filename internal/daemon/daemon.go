package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/lydakis/mcpd/internal/cleanup"
	"github.com/lydakis/mcpd/internal/config"
	"github.com/lydakis/mcpd/internal/ipc"
	"github.com/lydakis/mcpd/internal/mcpconn"
	"github.com/lydakis/mcpd/internal/paths"
	"github.com/lydakis/mcpd/internal/registry"
)

var (
	connectFn       = mcpconn.Connect
	sleepFn         = time.Sleep
	notifySignalsFn = func(ch chan<- os.Signal) {
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	}
)

// Run starts the daemon process. Called when argv[1] == "__daemon".
func Run() error {
	for _, dir := range []string{paths.DataDir(), paths.LogDir()} {
		if err := paths.EnsureDir(dir); err != nil {
			return fmt.Errorf("creating daemon dirs: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logFile, err := os.OpenFile(paths.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	return run(cfg, newLogger(logFile, cfg.Daemon.LogLevel))
}

// run is the daemon main loop: write the pid file, bind the socket, connect
// to every configured server, serve until a termination signal arrives, then
// tear everything down. Only a failure to bind the socket is fatal.
func run(cfg *config.Config, logger *slog.Logger) error {
	if err := writePIDFile(os.Getpid()); err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}
	defer os.Remove(paths.PIDPath())

	if verr := config.Validate(cfg); verr != nil {
		logger.Warn("configuration problems", "error", verr)
	}

	reg := registry.New()
	scope := cleanup.NewScope()
	handler := NewHandler(reg, logger.With("component", "handler"))

	srv := ipc.NewServer(cfg.Daemon.SocketPath, handler.Handle, logger.With("component", "ipc"))
	if err := srv.Listen(); err != nil {
		return err
	}
	logger.Info("daemon listening", "socket", cfg.Daemon.SocketPath, "pid", os.Getpid())

	connectAll(context.Background(), cfg, reg, scope, logger.With("component", "connect"))

	srv.Serve()

	sigCh := make(chan os.Signal, 1)
	notifySignalsFn(sigCh)
	defer signal.Stop(sigCh)
	sig := <-sigCh
	logger.Info("shutting down", "signal", fmt.Sprint(sig))

	// Shutdown order: stop admitting clients, close every session so stuck
	// tool calls unblock, then wait out the remaining connections.
	srv.StopAccepting()
	if err := scope.CloseAll(); err != nil {
		logger.Warn("closing sessions", "error", err)
	}
	reg.Clear()
	srv.Stop()
	logger.Info("daemon stopped")
	return nil
}

// connectAll runs the startup connection sequence: every configured server
// is tried in turn, with a fixed delay between successive attempts so
// freshly spawned servers do not pile up. One server failing never aborts
// the rest; it is just absent from the registry.
func connectAll(ctx context.Context, cfg *config.Config, reg *registry.Registry, scope *cleanup.Scope, logger *slog.Logger) {
	names := make([]string, 0, len(cfg.Servers))
	for name := range cfg.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	delay := time.Duration(cfg.Daemon.ConnectDelayMS) * time.Millisecond
	for i, name := range names {
		if i > 0 {
			sleepFn(delay)
		}

		scfg := cfg.Servers[name]
		if err := config.ValidateServer(name, scfg); err != nil {
			logger.Warn("skipping invalid server config", "server", name, "error", err)
			continue
		}

		logger.Info("connecting to MCP server", "server", name, "transport", transportKind(scfg))
		sess, err := connectFn(ctx, name, scfg)
		if err != nil {
			logger.Error("connection failed", "server", name, "error", err)
			continue
		}

		reg.Add(sess)
		scope.Register("session "+name, sess.Close)
		logger.Info("connected to MCP server", "server", name)
	}
}

func transportKind(scfg config.ServerConfig) string {
	if scfg.IsSSE() {
		return mcpconn.KindSSE
	}
	return mcpconn.KindStdio
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
