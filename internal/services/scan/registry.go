// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package scan

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Registry keeps the scan sessions of concurrent users. Idle sessions expire
// and the oldest are evicted when the registry is full.
type Registry[T any] struct {
	sessions *expirable.LRU[string, *Session[T]]
	mu       sync.Mutex
}

// NewRegistry creates a registry with room for size sessions living ttl each.
func NewRegistry[T any](size int, ttl time.Duration) *Registry[T] {
	return &Registry[T]{
		sessions: expirable.NewLRU[string, *Session[T]](size, func(_ string, s *Session[T]) {
			s.Terminate()
		}, ttl),
	}
}

// Session returns the session for key, creating an idle one if needed.
func (r *Registry[T]) Session(key string) *Session[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions.Get(key); ok {
		return s
	}
	s := NewSession[T]()
	r.sessions.Add(key, s)
	return s
}

// Peek returns the session for key without creating or refreshing it.
func (r *Registry[T]) Peek(key string) (*Session[T], bool) {
	return r.sessions.Peek(key)
}

// Remove terminates and forgets the session for key.
func (r *Registry[T]) Remove(key string) {
	r.sessions.Remove(key)
}

// Len returns the number of live sessions.
func (r *Registry[T]) Len() int {
	return r.sessions.Len()
}
