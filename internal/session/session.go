// Package session tracks live WebSocket connections: each Session owns an
// identity and an outbound queue, and a Set indexes the live sessions so
// that responses and broadcasts can reach them.
package session

import (
	"sync/atomic"

	"github.com/ggoodman/katulong-mcp-host/internal/jsonrpc"
	"github.com/google/uuid"
)

// State is the lifecycle stage of a connection.
type State int32

const (
	StateConnected State = iota
	StateStreaming
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session is the server-side handle of one connection.
type Session struct {
	id         string
	remoteAddr string
	queue      *Queue
	state      atomic.Int32
}

// New allocates a session with a fresh random id.
func New(remoteAddr string) *Session {
	return &Session{
		id:         uuid.NewString(),
		remoteAddr: remoteAddr,
		queue:      NewQueue(),
	}
}

func (s *Session) ID() string         { return s.id }
func (s *Session) RemoteAddr() string { return s.remoteAddr }
func (s *Session) Queue() *Queue      { return s.queue }

// State returns the current lifecycle stage.
func (s *Session) State() State { return State(s.state.Load()) }

// Advance moves the session forward to next. Transitions never go
// backwards; it reports whether the state changed.
func (s *Session) Advance(next State) bool {
	for {
		cur := s.state.Load()
		if State(cur) >= next {
			return false
		}
		if s.state.CompareAndSwap(cur, int32(next)) {
			return true
		}
	}
}

// Send enqueues msg for the writer. It reports false once the session is
// closed.
func (s *Session) Send(msg jsonrpc.Message) bool {
	return s.queue.Push(msg)
}

// Close marks the session closed and releases its queue. Only the first call
// has any effect.
func (s *Session) Close() bool {
	s.Advance(StateClosed)
	return s.queue.Close()
}
