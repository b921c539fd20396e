/*
Package mutable defers changes of a live object to the goroutine that
owns it.

Any goroutine can Put a mutation. The owner calls Drain between units of
work and applies every queued mutation in the order they were put, each
exactly once, followed immediately by its cleanup.
*/
package mutable

import "sync"

type (
	// Mutation is a change of T. Cleanup is optional and runs right after
	// Apply on the draining goroutine.
	Mutation[T any] struct {
		Apply   func(T)
		Cleanup func()
	}

	// Queue holds mutations until they are drained.
	Queue[T any] struct {
		mu       sync.Mutex
		pending  []Mutation[T]
		draining []Mutation[T]
	}
)

// NewQueue returns a queue with room for n pending mutations.
func NewQueue[T any](n int) *Queue[T] {
	return &Queue[T]{
		pending:  make([]Mutation[T], 0, n),
		draining: make([]Mutation[T], 0, n),
	}
}

// Put appends m to the queue. It blocks only for the time it takes
// another Put or a Drain to swap the queue.
func (q *Queue[T]) Put(m Mutation[T]) {
	q.mu.Lock()
	q.pending = append(q.pending, m)
	q.mu.Unlock()
}

// Drain applies pending mutations to target and returns how many were
// applied. When a producer holds the lock Drain returns 0 right away and
// the mutations are applied by the next call.
func (q *Queue[T]) Drain(target T) int {
	if !q.mu.TryLock() {
		return 0
	}
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return 0
	}
	q.pending, q.draining = q.draining[:0], q.pending
	q.mu.Unlock()

	for i := range q.draining {
		m := &q.draining[i]
		if m.Apply != nil {
			m.Apply(target)
		}
		if m.Cleanup != nil {
			m.Cleanup()
		}
		*m = Mutation[T]{}
	}
	return len(q.draining)
}

// Len returns number of pending mutations.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
