// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package nodes

import (
	"sync/atomic"

	"github.com/petenewcomb/lockfree-go/internal/cerr"
)

// List is a lock-free LIFO chain of nodes whose head is a tagged [Head]. Nodes
// may be pushed and popped one at a time by any number of goroutines.
//
// The sequence number is incremented by every push and every refill and is
// left unchanged by pops. A (Ref, sequence) pair therefore never recurs at the
// head, which is what keeps a stale pop from succeeding. The sequence is 32
// bits wide, so a pop would need to stall across 2^32 pushes, ending with the
// same node on top, to be fooled.
//
// The zero value is an empty list.
type List[T any] struct {
	head atomic.Uint64
}

func (l *List[T]) Push(a *Arena[T], r Ref) {
	n := a.Node(r)
	top := Head(l.head.Load())
	for {
		n.SetPrev(top.Ref())
		if l.head.CompareAndSwap(uint64(top), uint64(MakeHead(r, top.Seq()+1))) {
			return
		}
		top = Head(l.head.Load())
	}
}

// Pop detaches the top node and returns its Ref, or returns [Nil] if the list
// is empty.
func (l *List[T]) Pop(a *Arena[T]) Ref {
	for {
		top := Head(l.head.Load())
		r := top.Ref()
		if r == Nil {
			return Nil
		}
		// If another goroutine pops r first, this read may observe a link
		// written by r's next owner; the compare-and-swap then fails because
		// the head word has changed.
		prev := a.Node(r).Prev()
		if l.head.CompareAndSwap(uint64(top), uint64(MakeHead(prev, top.Seq()))) {
			return r
		}
	}
}

// Refill makes the chain starting at r the entire content of the list. The
// list must be empty and no other goroutine may refill it concurrently;
// concurrent pops are allowed. Violations panic with [cerr.RefillNotEmpty] or
// [cerr.ConcurrentRefill].
func (l *List[T]) Refill(r Ref) {
	l.refillFrom(Head(l.head.Load()), r)
}

// refillFrom installs r against an already loaded head.
func (l *List[T]) refillFrom(top Head, r Ref) {
	if top.Ref() != Nil {
		panic(cerr.RefillNotEmpty)
	}
	// Pops never modify an empty head, so the only way this can fail is
	// another refill or push racing with this one.
	if !l.head.CompareAndSwap(uint64(top), uint64(MakeHead(r, top.Seq()+1))) {
		panic(cerr.ConcurrentRefill)
	}
}

func (l *List[T]) Empty() bool {
	return Head(l.head.Load()).Ref() == Nil
}

// Chain is a lock-free LIFO chain of nodes that can be pushed one node at a
// time but only emptied all at once with [Chain.Detach]. Since nothing ever
// pops a single node, the head needs no sequence number: a push's
// compare-and-swap succeeds only if the head still names the node the new node
// was linked to, and that is all the push relies on.
//
// The zero value is an empty chain.
type Chain[T any] struct {
	head atomic.Uint32
}

func (c *Chain[T]) Push(a *Arena[T], r Ref) {
	n := a.Node(r)
	top := c.head.Load()
	for {
		n.SetPrev(Ref(top))
		if c.head.CompareAndSwap(top, uint32(r)) {
			return
		}
		top = c.head.Load()
	}
}

// Detach empties the chain and returns what was its most recently pushed
// node, or [Nil].
func (c *Chain[T]) Detach() Ref {
	return Ref(c.head.Swap(uint32(Nil)))
}

func (c *Chain[T]) Empty() bool {
	return Ref(c.head.Load()) == Nil
}

// Reverse reverses the links of the detached chain starting at r in place and
// returns the new first node, which was the last node of the original chain.
// The caller must own every node of the chain.
func Reverse[T any](a *Arena[T], r Ref) Ref {
	reversed := Nil
	for r != Nil {
		n := a.Node(r)
		prev := n.Prev()
		n.SetPrev(reversed)
		reversed, r = r, prev
	}
	return reversed
}
