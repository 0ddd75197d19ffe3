package session

import (
	"context"
	"sync"
)

// MemoryRegistry keeps sessions in process memory. This is the server
// default — it matches the session lifetime to the server lifetime, so a
// restart cannot leave the registry claiming sessions whose vector data may
// have been torn down.
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryRegistry returns an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{sessions: make(map[string]Session)}
}

// Insert registers a new session.
func (r *MemoryRegistry) Insert(_ context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

// Lookup returns the session with the given ID.
func (r *MemoryRegistry) Lookup(_ context.Context, id string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

// Remove deletes the session with the given ID.
func (r *MemoryRegistry) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Len returns the number of registered sessions.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close is a no-op for the in-memory registry.
func (r *MemoryRegistry) Close() error { return nil }
