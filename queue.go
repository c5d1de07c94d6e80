// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lockfree

import (
	"sync/atomic"

	"github.com/petenewcomb/lockfree-go/internal/nodes"
	"github.com/petenewcomb/lockfree-go/internal/spin"
)

// Queue is an unbounded lock-free FIFO queue. Any number of goroutines may
// push and pop concurrently.
//
// Values pushed by one goroutine are popped in the order that goroutine pushed
// them. Values pushed concurrently by different goroutines have no defined
// relative order.
//
// Internally, pushes go onto a push list in LIFO order and pops come off a
// separate pop list. When the pop list runs dry, one popping goroutine at a
// time detaches the whole push list, reverses it and installs it as the new
// pop list. That step is guarded by a spin lock, so a pop can wait for another
// goroutine's refill, but pushes never wait and pops never wait while the pop
// list has nodes.
//
// The zero value is an empty queue ready for use; use [NewQueue] to pre-warm
// its free list or set its spin limit. A Queue must not be copied after first
// use.
type Queue[T any] struct {
	pool       nodes.Pool[T]
	pushList   nodes.Chain[T]
	popList    nodes.List[T]
	refillLock spin.Lock
	spinLimit  int

	// length counts values pushed and not yet popped. It is raised before a
	// value is linked and lowered after it is unlinked, so it never reads zero
	// while a value is in the queue, even mid-refill when the values are in
	// neither list.
	length atomic.Int64
}

// NewQueue returns an empty queue with cfg.InitialCapacity nodes on its free
// list.
func NewQueue[T any](cfg Config) *Queue[T] {
	cfg.validate()
	q := &Queue[T]{
		spinLimit: cfg.SpinLimit,
	}
	q.pool.Reserve(cfg.InitialCapacity)
	return q
}

// Push adds v to the back of the queue.
func (q *Queue[T]) Push(v T) {
	q.length.Add(1)
	q.pushList.Push(q.pool.Arena(), q.pool.Occupy(v))
}

// Pop removes and returns the value at the front of the queue. It returns the
// zero value and false if the queue is empty.
func (q *Queue[T]) Pop() (T, bool) {
	r := q.popList.Pop(q.pool.Arena())
	if r == nodes.Nil {
		r = q.refill()
		if r == nodes.Nil {
			return *new(T), false
		}
	}
	v := q.pool.Vacate(r)
	q.length.Add(-1)
	return v, true
}

// refill moves the push list to the pop list and returns the oldest node,
// which it keeps for the caller instead of installing it. Returns nodes.Nil if
// both lists are empty.
func (q *Queue[T]) refill() nodes.Ref {
	a := q.pool.Arena()

	q.refillLock.Lock(q.spinLimit)
	defer q.refillLock.Unlock()

	// Another goroutine may have refilled while this one waited for the lock.
	if r := q.popList.Pop(a); r != nodes.Nil {
		return r
	}

	r := q.pushList.Detach()
	if r == nodes.Nil {
		return nodes.Nil
	}
	r = nodes.Reverse(a, r)
	if rest := a.Node(r).Prev(); rest != nodes.Nil {
		q.popList.Refill(rest)
	}
	return r
}

// Clear pops every value in the queue and returns how many there were. Values
// pushed concurrently with Clear may or may not be removed.
func (q *Queue[T]) Clear() int {
	n := 0
	for {
		if _, ok := q.Pop(); !ok {
			return n
		}
		n++
	}
}

// Empty reports whether the queue held no values at the moment of the call. It
// never reports true while a value is in the queue; it may report false while
// a push or pop is still in progress.
func (q *Queue[T]) Empty() bool {
	return q.length.Load() == 0
}

// Allocated returns the number of nodes the queue has allocated over its
// lifetime, including pre-warmed ones.
func (q *Queue[T]) Allocated() int {
	return q.pool.Allocated()
}
