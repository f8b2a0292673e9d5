package server

import "sync"

// Registry tracks connected clients by session id. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client, 64)}
}

// Register adds a client.
func (r *Registry) Register(id string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[id] = c
}

// Unregister removes a client.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

// Count returns the number of connected clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Get returns the client of a session.
func (r *Registry) Get(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

// ForEach calls fn for every client until fn returns false.
func (r *Registry) ForEach(fn func(id string, c *Client) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, c := range r.clients {
		if !fn(id, c) {
			return
		}
	}
}
