// Package registry holds the host's named definition documents. The host
// keeps two independent registries, one for tools and one for resources;
// both are written by the control surface and read by every connection.
package registry

import (
	"encoding/json"
	"sync"
)

// Registry is a concurrency-safe name to document map with last-write-wins
// semantics. Documents are opaque JSON and are returned verbatim.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]json.RawMessage

	changes ChangeNotifier
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]json.RawMessage)}
}

// Put inserts or replaces the document stored under name. The document is
// copied, so the caller may reuse doc afterwards. Subscribers are signalled
// once the new value is visible to List.
func (r *Registry) Put(name string, doc json.RawMessage) {
	cp := make(json.RawMessage, len(doc))
	copy(cp, doc)

	r.mu.Lock()
	r.entries[name] = cp
	r.mu.Unlock()

	r.changes.Notify()
}

// Get returns the document stored under name.
func (r *Registry) Get(name string) (json.RawMessage, bool) {
	r.mu.RLock()
	doc, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return append(json.RawMessage(nil), doc...), true
}

// List returns a snapshot of every stored document in unspecified order. An
// empty registry yields an empty, non-nil slice.
func (r *Registry) List() []json.RawMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]json.RawMessage, 0, len(r.entries))
	for _, doc := range r.entries {
		out = append(out, append(json.RawMessage(nil), doc...))
	}
	return out
}

// Len returns the number of stored documents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Subscribe returns a channel that is signalled after every Put. Bursts of
// puts may be coalesced into a single signal. The channel is closed by Close.
func (r *Registry) Subscribe() <-chan struct{} {
	return r.changes.Subscriber()
}

// Close stops change notifications. Stored documents remain readable.
func (r *Registry) Close() {
	r.changes.Close()
}
