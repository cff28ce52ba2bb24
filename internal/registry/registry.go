// Package registry maps user identities to their live transport endpoints.
package registry

import (
	"sync"
)

// Endpoint is one live connection owned by a user (one device or tab).
type Endpoint interface {
	ID() string
	// Send queues a frame for delivery. It returns false when the frame was
	// dropped because the endpoint is closed or cannot keep up.
	Send(frame []byte) bool
}

// Registry holds the identity → endpoint set mapping. All mutations go
// through its mutex.
type Registry struct {
	mu      sync.RWMutex
	entries map[int]map[string]Endpoint
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[int]map[string]Endpoint)}
}

// Register adds ep under userID. Registering the same endpoint twice is a
// no-op. first is true when userID had no endpoint before the call.
func (r *Registry) Register(userID int, ep Endpoint) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.entries[userID]
	if !ok {
		set = make(map[string]Endpoint)
		r.entries[userID] = set
	}
	first = len(set) == 0
	set[ep.ID()] = ep
	return first
}

// Unregister removes ep from userID. When the set becomes empty the entry is
// evicted and last is true. Unknown endpoints are ignored.
func (r *Registry) Unregister(userID int, ep Endpoint) (last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.entries[userID]
	if !ok {
		return false
	}
	if _, ok := set[ep.ID()]; !ok {
		return false
	}
	delete(set, ep.ID())
	if len(set) == 0 {
		delete(r.entries, userID)
		return true
	}
	return false
}

// Resolve returns the union of live endpoints of userIDs. Identities with no
// endpoint are skipped.
func (r *Registry) Resolve(userIDs []int) []Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int]struct{}, len(userIDs))
	var out []Endpoint
	for _, id := range userIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		for _, ep := range r.entries[id] {
			out = append(out, ep)
		}
	}
	return out
}

// EndpointCounts returns the number of live endpoints held by each identity.
func (r *Registry) EndpointCounts() map[int]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]int, len(r.entries))
	for id, eps := range r.entries {
		out[id] = len(eps)
	}
	return out
}
