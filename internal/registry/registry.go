package registry

import (
	"sort"
	"sync"

	"github.com/lydakis/mcpd/internal/mcpconn"
)

// Registry is the single point of truth for which MCP servers are currently
// connected. It is written only during the daemon's startup connection
// sequence and when it shuts down; request handlers only read it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*mcpconn.Session
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{sessions: make(map[string]*mcpconn.Session)}
}

// Add registers a session under its server name, replacing any previous
// entry with that name.
func (r *Registry) Add(sess *mcpconn.Session) {
	r.mu.Lock()
	r.sessions[sess.Name] = sess
	r.mu.Unlock()
}

// Get looks up a session by server name. A miss is a normal "server not
// connected" condition, not an error.
func (r *Registry) Get(name string) (*mcpconn.Session, bool) {
	r.mu.RLock()
	sess, ok := r.sessions[name]
	r.mu.RUnlock()
	return sess, ok
}

// Names returns the connected server names, sorted. The result is never nil
// so it always encodes as a JSON array.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of connected servers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Clear removes every session. Closing them is the cleanup scope's job.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.sessions = make(map[string]*mcpconn.Session)
	r.mu.Unlock()
}
