package session

import (
	"sync"

	"github.com/ggoodman/katulong-mcp-host/internal/jsonrpc"
)

// Set is the registry of live sessions keyed by id.
type Set struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{sessions: make(map[string]*Session)}
}

// Add indexes s under its id.
func (cs *Set) Add(s *Session) {
	cs.mu.Lock()
	cs.sessions[s.ID()] = s
	cs.mu.Unlock()
}

// Remove drops the session with the given id and reports whether it was
// present.
func (cs *Set) Remove(id string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.sessions[id]; !ok {
		return false
	}
	delete(cs.sessions, id)
	return true
}

// Lookup returns the live session with the given id.
func (cs *Set) Lookup(id string) (*Session, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	s, ok := cs.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (cs *Set) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.sessions)
}

// Broadcast enqueues msg on every live session and returns how many
// accepted it. Each session gets its own copy of the bytes.
func (cs *Set) Broadcast(msg jsonrpc.Message) int {
	cs.mu.RLock()
	targets := make([]*Session, 0, len(cs.sessions))
	for _, s := range cs.sessions {
		targets = append(targets, s)
	}
	cs.mu.RUnlock()

	n := 0
	for _, s := range targets {
		if s.Send(append(jsonrpc.Message(nil), msg...)) {
			n++
		}
	}
	return n
}

// CloseAll closes and removes every session.
func (cs *Set) CloseAll() {
	cs.mu.Lock()
	targets := cs.sessions
	cs.sessions = make(map[string]*Session)
	cs.mu.Unlock()

	for _, s := range targets {
		s.Close()
	}
}
