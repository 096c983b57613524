package session

import (
	"context"
	"testing"

	"github.com/ggoodman/katulong-mcp-host/internal/jsonrpc"
)

func TestSession_IdentityAndStates(t *testing.T) {
	t.Parallel()
	a := New("127.0.0.1:1")
	b := New("127.0.0.1:2")
	if a.ID() == "" || a.ID() == b.ID() {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a.ID(), b.ID())
	}
	if a.State() != StateConnected {
		t.Fatalf("expected connected, got %s", a.State())
	}
	if !a.Advance(StateStreaming) {
		t.Fatalf("expected transition to streaming")
	}
	if a.Advance(StateConnected) {
		t.Fatalf("transitions must not go backwards")
	}
	if !a.Close() {
		t.Fatalf("first Close should report true")
	}
	if a.Close() {
		t.Fatalf("second Close should report false")
	}
	if a.State() != StateClosed {
		t.Fatalf("expected closed, got %s", a.State())
	}
	if a.Send(jsonrpc.Message("x")) {
		t.Fatalf("send after close accepted")
	}
}

func TestSet_AddLookupRemove(t *testing.T) {
	t.Parallel()
	cs := NewSet()
	s := New("peer")
	cs.Add(s)

	if cs.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", cs.Len())
	}
	got, ok := cs.Lookup(s.ID())
	if !ok || got != s {
		t.Fatalf("lookup failed")
	}
	if !cs.Remove(s.ID()) {
		t.Fatalf("expected remove to report presence")
	}
	if cs.Remove(s.ID()) {
		t.Fatalf("second remove should report absence")
	}
	if _, ok := cs.Lookup(s.ID()); ok {
		t.Fatalf("session still present")
	}
}

func TestSet_BroadcastReachesEverySession(t *testing.T) {
	t.Parallel()
	cs := NewSet()
	a, b, c := New("a"), New("b"), New("c")
	cs.Add(a)
	cs.Add(b)
	cs.Add(c)
	c.Close()

	n := cs.Broadcast(jsonrpc.Message(`{"jsonrpc":"2.0","method":"ping"}`))
	if n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}
	for _, s := range []*Session{a, b} {
		msg, err := s.Queue().Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if string(msg) != `{"jsonrpc":"2.0","method":"ping"}` {
			t.Fatalf("unexpected message %s", msg)
		}
	}
}

func TestSet_CloseAll(t *testing.T) {
	t.Parallel()
	cs := NewSet()
	a, b := New("a"), New("b")
	cs.Add(a)
	cs.Add(b)

	cs.CloseAll()

	if cs.Len() != 0 {
		t.Fatalf("expected empty set")
	}
	if a.State() != StateClosed || b.State() != StateClosed {
		t.Fatalf("expected sessions closed")
	}
}
