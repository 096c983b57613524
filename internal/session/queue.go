package session

import (
	"context"
	"errors"
	"sync"

	"github.com/ggoodman/katulong-mcp-host/internal/jsonrpc"
)

// ErrQueueClosed is returned by Next once the queue has been closed.
var ErrQueueClosed = errors.New("session: outbound queue closed")

// Queue is an unbounded FIFO of outbound messages with a single consumer.
// Producers never block; Close discards anything not yet consumed.
type Queue struct {
	mu     sync.Mutex
	items  []jsonrpc.Message
	closed bool

	ready chan struct{} // capacity 1, signalled on push
	done  chan struct{} // closed by Close
	once  sync.Once
}

// NewQueue returns an empty open queue.
func NewQueue() *Queue {
	return &Queue{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Push appends msg. It reports false if the queue is already closed.
func (q *Queue) Push(msg jsonrpc.Message) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// Next blocks until a message is available, the queue is closed or ctx is
// done. Messages are returned in push order.
func (q *Queue) Next(ctx context.Context) (jsonrpc.Message, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, ErrQueueClosed
		}
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return msg, nil
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-q.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of pending messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close closes the queue and drops pending messages. It reports whether this
// call performed the close.
func (q *Queue) Close() bool {
	closed := false
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.items = nil
		q.mu.Unlock()
		close(q.done)
		closed = true
	})
	return closed
}

// Done is closed once the queue is closed.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}
