package reactive

import (
	"sync"

	"launchdash/domain/core"
)

// Cell is an observable value. Subscribers are called synchronously, in
// subscription order, every time the value changes. Concurrent writes are
// serialized: each Set notifies all subscribers before the next Set stores its
// value, so subscribers see changes in the order the cell took them. A
// subscriber must not call Set on the cell that notified it.
type Cell[T comparable] struct {
	writeMu     sync.Mutex
	mu          sync.Mutex
	value       T
	subscribers []subscriber[T]
}

type subscriber[T comparable] struct {
	id core.ID
	fn func(T)
}

// NewCell creates a cell holding an initial value
func NewCell[T comparable](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Get returns the current value
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set stores a new value and notifies subscribers. Setting an equal value is a
// no-op; the return value reports whether subscribers were notified.
func (c *Cell[T]) Set(value T) bool {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	if c.value == value {
		c.mu.Unlock()
		return false
	}
	c.value = value
	subs := make([]subscriber[T], len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(value)
	}
	return true
}

// Subscribe registers fn for future changes and returns a function that removes it
func (c *Cell[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	id := core.NewID()

	c.mu.Lock()
	c.subscribers = append(c.subscribers, subscriber[T]{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subscribers {
			if s.id == id {
				c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Map derives an output from one cell. fn runs on every change of the source and
// its result is handed to emit.
func Map[A comparable, R any](src *Cell[A], fn func(A) R, emit func(R)) (unsubscribe func()) {
	return src.Subscribe(func(a A) {
		emit(fn(a))
	})
}

// Combine derives an output from two cells. fn runs with the latest value of both
// whenever either changes. Writers of a and b must be serialized by the caller
// for the last emission to reflect the latest pair.
func Combine[A, B comparable, R any](a *Cell[A], b *Cell[B], fn func(A, B) R, emit func(R)) (unsubscribe func()) {
	unsubA := a.Subscribe(func(av A) {
		emit(fn(av, b.Get()))
	})
	unsubB := b.Subscribe(func(bv B) {
		emit(fn(a.Get(), bv))
	})
	return func() {
		unsubA()
		unsubB()
	}
}
