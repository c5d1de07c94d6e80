// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package nodes

import "github.com/petenewcomb/lockfree-go/internal/cerr"

// Pool recycles nodes through a lock-free free list so that steady-state
// pushes and pops never allocate. When the free list is empty, [Pool.Acquire]
// falls back to carving a new node from the pool's arena.
//
// The zero value is an empty pool ready for use.
type Pool[T any] struct {
	arena Arena[T]
	free  List[T]
}

// Reserve carves n new nodes onto the free list.
func (p *Pool[T]) Reserve(n int) {
	for range n {
		p.Release(p.arena.Carve())
	}
}

// Acquire returns a node in the [InFlight] state with a vacant slot. It never
// returns [Nil].
func (p *Pool[T]) Acquire() Ref {
	if r := p.free.Pop(&p.arena); r != Nil {
		p.arena.Node(r).Transition(OnFreeList, InFlight)
		return r
	}
	return p.arena.Carve()
}

// Release returns an [InFlight] node with a vacant slot to the free list.
func (p *Pool[T]) Release(r Ref) {
	n := p.arena.Node(r)
	if n.Occupied() {
		panic(cerr.SlotOccupied)
	}
	n.Transition(InFlight, OnFreeList)
	p.free.Push(&p.arena, r)
}

// Arena returns the arena that backs the pool, for lists that link the pool's
// nodes.
func (p *Pool[T]) Arena() *Arena[T] {
	return &p.arena
}

func (p *Pool[T]) Node(r Ref) *Node[T] {
	return p.arena.Node(r)
}

// Allocated returns the number of nodes the pool has ever carved.
func (p *Pool[T]) Allocated() int {
	return p.arena.Carved()
}

// Chunks returns the number of raw allocations the pool's arena has made.
func (p *Pool[T]) Chunks() int {
	return p.arena.Chunks()
}

// Occupy acquires a node, fills its slot with v and marks it [OnActiveList],
// ready to be linked into a stack or queue.
func (p *Pool[T]) Occupy(v T) Ref {
	r := p.Acquire()
	n := p.arena.Node(r)
	n.Fill(v)
	n.Transition(InFlight, OnActiveList)
	return r
}

// Vacate takes the value out of a node just unlinked from a stack or queue and
// releases the node to the free list.
func (p *Pool[T]) Vacate(r Ref) T {
	n := p.arena.Node(r)
	n.Transition(OnActiveList, InFlight)
	v := n.Take()
	p.Release(r)
	return v
}
