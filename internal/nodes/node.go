// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package nodes

import (
	"sync/atomic"

	"github.com/petenewcomb/lockfree-go/internal/cerr"
)

// Ref names a node in an [Arena]. The zero Ref is [Nil]; any other value is
// the node's arena index plus one.
type Ref uint32

const Nil Ref = 0

// State is the ownership state of a node.
type State uint32

const (
	// Fresh nodes have been carved from the arena but never handed out.
	Fresh State = iota
	// OnFreeList nodes belong to a [Pool] and have a vacant slot.
	OnFreeList
	// OnActiveList nodes belong to a stack or queue and have an occupied slot.
	OnActiveList
	// InFlight nodes are held by exactly one goroutine in the middle of an
	// operation and are reachable from no list.
	InFlight
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case OnFreeList:
		return "on-free-list"
	case OnActiveList:
		return "on-active-list"
	case InFlight:
		return "in-flight"
	default:
		return "invalid"
	}
}

// Node is one element slot plus the link to the node below it in whatever
// list currently holds it.
//
// The link is atomic because a goroutine popping a list reads the link of the
// node it believes to be on top before its compare-and-swap, and by then the
// node may have been popped, recycled and relinked by another goroutine. The
// read value is discarded when the compare-and-swap fails, but the read itself
// must not race. The slot is accessed only by the node's current owner.
type Node[T any] struct {
	prev  atomic.Uint32
	state atomic.Uint32
	slot  Slot[T]
}

func (n *Node[T]) Prev() Ref {
	return Ref(n.prev.Load())
}

func (n *Node[T]) SetPrev(r Ref) {
	n.prev.Store(uint32(r))
}

func (n *Node[T]) State() State {
	return State(n.state.Load())
}

// Transition moves the node from one ownership state to another, panicking
// with [cerr.NodeOwnership] if the node was not in the expected state.
func (n *Node[T]) Transition(from, to State) {
	if !n.state.CompareAndSwap(uint32(from), uint32(to)) {
		panic(cerr.NodeOwnership)
	}
}

// Fill stores a copy of v in the node's slot.
func (n *Node[T]) Fill(v T) {
	n.slot.Fill(v)
}

// Take removes and returns the value in the node's slot.
func (n *Node[T]) Take() T {
	return n.slot.Take()
}

func (n *Node[T]) Occupied() bool {
	return n.slot.Occupied()
}
