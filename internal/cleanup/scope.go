package cleanup

import (
	"errors"
	"fmt"
	"sync"
)

// Scope owns closers for resources acquired in arbitrary order and releases
// all of them at shutdown. A failed close never blocks the remaining
// closers; failures are collected and reported together.
type Scope struct {
	mu      sync.Mutex
	entries []entry
}

type entry struct {
	name  string
	close func() error
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// Register adds a closer under a diagnostic name.
func (s *Scope) Register(name string, close func() error) {
	s.mu.Lock()
	s.entries = append(s.entries, entry{name: name, close: close})
	s.mu.Unlock()
}

// Len returns the number of registered closers.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// CloseAll releases every registered resource, last acquired first. Each
// closer runs exactly once; errors are joined into the returned error.
// Calling CloseAll again without intervening Registers is a no-op.
func (s *Scope) CloseAll() error {
	s.mu.Lock()
	entries := s.entries
	s.entries = nil
	s.mu.Unlock()

	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.close == nil {
			continue
		}
		if err := e.close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", e.name, err))
		}
	}
	return errors.Join(errs...)
}
