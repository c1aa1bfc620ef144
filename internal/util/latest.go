package util

import "sync"

// Latest holds the most recently stored value behind a stable handle, so a
// callback scheduled earlier can read current state instead of a captured copy.
type Latest[T any] struct {
	mu sync.RWMutex
	v  T
}

func NewLatest[T any](v T) *Latest[T] {
	return &Latest[T]{v: v}
}

func (l *Latest[T]) Load() T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v
}

func (l *Latest[T]) Store(v T) {
	l.mu.Lock()
	l.v = v
	l.mu.Unlock()
}
