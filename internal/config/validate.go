package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks configuration invariants and returns actionable errors.
// All problems are reported at once via errors.Join.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	names := make([]string, 0, len(cfg.Servers))
	for name := range cfg.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		errs = append(errs, validateServer(name, cfg.Servers[name])...)
	}
	errs = append(errs, validateDaemon(cfg.Daemon)...)

	return errors.Join(errs...)
}

// ValidateServer checks a single server entry, as the daemon does per server
// before attempting a connection.
func ValidateServer(name string, srv ServerConfig) error {
	return errors.Join(validateServer(name, srv)...)
}

func validateServer(name string, srv ServerConfig) []error {
	var errs []error

	hasCommand := strings.TrimSpace(srv.Command) != ""
	hasURL := strings.TrimSpace(srv.URL) != ""

	switch {
	case hasCommand && hasURL:
		errs = append(errs, fmt.Errorf("servers.%s: configure either command (stdio) or url (sse), not both", name))
	case !hasCommand && !hasURL:
		errs = append(errs, fmt.Errorf("servers.%s: missing transport, set command (stdio) or url (sse)", name))
	}

	if hasURL {
		if _, err := url.ParseRequestURI(srv.URL); err != nil {
			errs = append(errs, fmt.Errorf("servers.%s.url: invalid URL %q: %w", name, srv.URL, err))
		}
	}

	if srv.Token != "" && !hasURL {
		errs = append(errs, fmt.Errorf("servers.%s.token: only valid for url (sse) servers", name))
	}
	if len(srv.Headers) > 0 && !hasURL {
		errs = append(errs, fmt.Errorf("servers.%s.headers: only valid for url (sse) servers", name))
	}

	return errs
}

func validateDaemon(d DaemonConfig) []error {
	var errs []error

	if d.LogLevel != "" && !logLevels[d.LogLevel] {
		errs = append(errs, fmt.Errorf("daemon.log_level: unknown level %q, use debug, info, warn or error", d.LogLevel))
	}
	if d.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("daemon.pool_size: must be > 0, got %d", d.PoolSize))
	}
	if d.BufferSize < 0 {
		errs = append(errs, fmt.Errorf("daemon.buffer_size: must be > 0, got %d", d.BufferSize))
	}
	if d.ConnectDelayMS < 0 {
		errs = append(errs, fmt.Errorf("daemon.connect_delay_ms: must be >= 0, got %d", d.ConnectDelayMS))
	}

	return errs
}
