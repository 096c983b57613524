package registry

import "sync"

// ChangeNotifier is a small in-process pub-sub for change events. Each
// subscriber gets a channel with capacity 1; signals that arrive while one is
// already pending are coalesced so a slow consumer never blocks Notify.
type ChangeNotifier struct {
	subscribers   []chan struct{}
	subscribersMu sync.RWMutex
	closed        bool
}

// Notify signals every subscriber that the watched set changed.
func (cn *ChangeNotifier) Notify() {
	cn.subscribersMu.RLock()
	defer cn.subscribersMu.RUnlock()

	if cn.closed {
		return
	}

	for _, ch := range cn.subscribers {
		select {
		case ch <- struct{}{}:
		default:
			// a signal is already pending
		}
	}
}

// Close closes every subscriber channel. Subsequent calls are no-ops.
func (cn *ChangeNotifier) Close() {
	cn.subscribersMu.Lock()
	if cn.closed {
		cn.subscribersMu.Unlock()
		return
	}
	cn.closed = true
	subs := cn.subscribers
	cn.subscribers = nil
	cn.subscribersMu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
}

// Subscriber returns a channel that receives a signal whenever Notify is
// called. After Close the returned channel is already closed.
func (cn *ChangeNotifier) Subscriber() <-chan struct{} {
	cn.subscribersMu.Lock()
	defer cn.subscribersMu.Unlock()

	if cn.closed {
		ch := make(chan struct{})
		close(ch)
		return ch
	}

	ch := make(chan struct{}, 1)
	cn.subscribers = append(cn.subscribers, ch)
	return ch
}
