package browser

import (
	"sync"
)

// Registry maps an opaque client identifier to that client's Browser. A
// client observes the same Browser, and therefore the same cursor state,
// across tool invocations until the session is explicitly removed.
//
// Sessions are never evicted implicitly: they live for the process lifetime
// unless a teardown call removes them. Unbounded growth under many
// concurrent clients is a known trade-off carried from the original design.
type Registry struct {
	factory BackendFactory

	mu       sync.RWMutex
	browsers map[string]*Browser
}

func NewRegistry(factory BackendFactory) *Registry {
	return &Registry{
		factory:  factory,
		browsers: make(map[string]*Browser),
	}
}

// GetOrCreate returns the existing Browser for clientID or constructs one
// from the backend factory. At most one Browser exists per client at any
// time; repeated calls return the identical instance.
func (r *Registry) GetOrCreate(clientID string) (*Browser, error) {
	r.mu.RLock()
	br, ok := r.browsers[clientID]
	r.mu.RUnlock()
	if ok {
		return br, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if br, ok := r.browsers[clientID]; ok {
		return br, nil
	}

	backend, err := r.factory()
	if err != nil {
		return nil, err
	}
	br = NewBrowser(backend)
	r.browsers[clientID] = br
	return br, nil
}

// Remove discards the stored Browser for clientID; no-op when absent.
// In-flight operations on the removed Browser complete or fail on their own.
func (r *Registry) Remove(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.browsers, clientID)
}

// Count reports how many client sessions currently exist.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.browsers)
}
