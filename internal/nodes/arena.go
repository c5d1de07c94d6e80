// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package nodes

import (
	"math/bits"
	"sync/atomic"

	"github.com/petenewcomb/lockfree-go/internal/cerr"
)

const (
	firstChunkBits = 6
	firstChunkSize = 1 << firstChunkBits
	maxChunks      = 26
)

// MaxNodes is the number of nodes a single arena can carve. Chunk k holds
// firstChunkSize<<k nodes, so maxChunks chunks hold firstChunkSize*(2^maxChunks-1)
// nodes, which keeps every index plus one within a uint32.
const MaxNodes uint64 = firstChunkSize * (1<<maxChunks - 1)

// Arena is append-only node storage. Nodes are carved by index with an atomic
// counter, and the chunk holding an index is allocated on demand and published
// with a compare-and-swap, so growing the arena never takes a lock and never
// moves an existing node. Chunk sizes double so that the directory stays a
// small fixed array.
//
// The zero value is an empty arena ready for use.
type Arena[T any] struct {
	next      atomic.Uint64
	installed atomic.Int64
	chunks    [maxChunks]atomic.Pointer[[]Node[T]]
}

// locate maps an arena index to its chunk and the offset within that chunk.
func locate(i uint64) (int, uint64) {
	j := i + firstChunkSize
	k := bits.Len64(j) - 1 - firstChunkBits
	return k, j - (firstChunkSize << k)
}

// Carve returns a node that has never been used before, in the [InFlight]
// state. Panics with [cerr.CapacityExceeded] once [MaxNodes] have been carved.
func (a *Arena[T]) Carve() Ref {
	i := a.next.Add(1) - 1
	if i >= MaxNodes {
		panic(cerr.CapacityExceeded)
	}
	k, offset := locate(i)
	n := &a.chunk(k)[offset]
	n.Transition(Fresh, InFlight)
	return Ref(i + 1)
}

func (a *Arena[T]) chunk(k int) []Node[T] {
	if p := a.chunks[k].Load(); p != nil {
		return *p
	}
	c := make([]Node[T], firstChunkSize<<k)
	if a.chunks[k].CompareAndSwap(nil, &c) {
		a.installed.Add(1)
		return c
	}
	// Another goroutine carving from the same chunk installed it first.
	return *a.chunks[k].Load()
}

// Node returns the node named by r, which must have been returned by Carve.
func (a *Arena[T]) Node(r Ref) *Node[T] {
	k, offset := locate(uint64(r) - 1)
	return &(*a.chunks[k].Load())[offset]
}

// Carved returns the number of nodes carved so far.
func (a *Arena[T]) Carved() int {
	return int(min(a.next.Load(), MaxNodes))
}

// Chunks returns the number of chunk allocations the arena has made.
func (a *Arena[T]) Chunks() int {
	return int(a.installed.Load())
}
