// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lockfree

import "github.com/petenewcomb/lockfree-go/internal/nodes"

// Stack is an unbounded lock-free LIFO stack. Any number of goroutines may
// push and pop concurrently.
//
// Values are copied in by [Stack.Push] and copied out by [Stack.Pop]. The zero
// value is an empty stack ready for use; use [NewStack] to pre-warm its free
// list. A Stack must not be copied after first use.
type Stack[T any] struct {
	pool   nodes.Pool[T]
	active nodes.List[T]
}

// NewStack returns an empty stack with cfg.InitialCapacity nodes on its free
// list.
func NewStack[T any](cfg Config) *Stack[T] {
	cfg.validate()
	s := &Stack[T]{}
	s.pool.Reserve(cfg.InitialCapacity)
	return s
}

// Push adds v to the top of the stack.
func (s *Stack[T]) Push(v T) {
	s.active.Push(s.pool.Arena(), s.pool.Occupy(v))
}

// Pop removes and returns the value at the top of the stack. It returns the
// zero value and false if the stack is empty.
func (s *Stack[T]) Pop() (T, bool) {
	r := s.active.Pop(s.pool.Arena())
	if r == nodes.Nil {
		return *new(T), false
	}
	return s.pool.Vacate(r), true
}

// Clear pops every value on the stack and returns how many there were. Values
// pushed concurrently with Clear may or may not be removed.
func (s *Stack[T]) Clear() int {
	n := 0
	for {
		if _, ok := s.Pop(); !ok {
			return n
		}
		n++
	}
}

// Empty reports whether the stack was empty at the moment of the call.
func (s *Stack[T]) Empty() bool {
	return s.active.Empty()
}

// Allocated returns the number of nodes the stack has allocated over its
// lifetime, including pre-warmed ones. It stops growing once the stack's
// working set fits in its free list.
func (s *Stack[T]) Allocated() int {
	return s.pool.Allocated()
}
