// Package mailbox hands values from one goroutine to another, latest value wins.
package mailbox

import (
	"context"
	"sync"
)

// Mailbox is a single-slot buffer where the latest item always wins.
// It is NOT a queue: Put overwrites an item nobody has taken yet, so a slow
// consumer only ever sees the most recent state.
type Mailbox[T any] struct {
	mu     sync.Mutex
	item   *T
	notify chan struct{}
}

// New creates an empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{notify: make(chan struct{}, 1)}
}

// Put stores v, replacing any item not yet taken. It never blocks.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.item = &v
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Take blocks until an item is available or ctx is done.
func (m *Mailbox[T]) Take(ctx context.Context) (T, error) {
	for {
		if v := m.TryTake(); v != nil {
			return *v, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-m.notify:
		}
	}
}

// TryTake returns the item if present, or nil if empty. It never blocks.
func (m *Mailbox[T]) TryTake() *T {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := m.item
	m.item = nil
	return v
}

// HasItem reports whether an item is waiting.
func (m *Mailbox[T]) HasItem() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.item != nil
}
