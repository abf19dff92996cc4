package facts

import (
	"context"
	"sync"
)

// Static is a Provider whose facts are set in-process. It backs the
// "static" redundancy source and is the test double for the engine.
type Static struct {
	mu    sync.RWMutex
	facts RedundancyContext
}

// NewStatic creates a Static provider holding facts
func NewStatic(facts RedundancyContext) *Static {
	if facts.Role == "" {
		facts.Role = RoleUnknown
	}
	return &Static{facts: facts}
}

// Refresh is a no-op
func (*Static) Refresh(context.Context) error {
	return nil
}

// Facts returns the current snapshot
func (s *Static) Facts() RedundancyContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facts
}

// SetRole replaces the role
func (s *Static) SetRole(role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts.Role = role
}

// SetRedundancyEnabled replaces the redundancy flag
func (s *Static) SetRedundancyEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts.RedundancyEnabled = enabled
}

// SetSiblingAddress replaces the sibling address, empty means unreachable
func (s *Static) SetSiblingAddress(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts.SiblingAddress = addr
}
