// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package nodes

import (
	"testing"

	"github.com/petenewcomb/lockfree-go/internal/cerr"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLocateChunkBoundaries(t *testing.T) {
	chk := require.New(t)

	cases := []struct {
		index  uint64
		chunk  int
		offset uint64
	}{
		{0, 0, 0},
		{63, 0, 63},
		{64, 1, 0},
		{191, 1, 127},
		{192, 2, 0},
		{MaxNodes - 1, maxChunks - 1, firstChunkSize<<(maxChunks-1) - 1},
	}
	for _, c := range cases {
		k, offset := locate(c.index)
		chk.Equal(c.chunk, k, "chunk of index %d", c.index)
		chk.Equal(c.offset, offset, "offset of index %d", c.index)
	}
}

func TestLocateIsABijection(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		i := rapid.Uint64Range(0, MaxNodes-1).Draw(t, "index")
		k, offset := locate(i)
		require.GreaterOrEqual(t, k, 0)
		require.Less(t, k, maxChunks)
		require.Less(t, offset, uint64(firstChunkSize)<<k)

		// Recompute the index from the chunk and offset: chunk k starts after
		// all the nodes of chunks 0 through k-1.
		start := uint64(firstChunkSize) * (uint64(1)<<k - 1)
		require.Equal(t, i, start+offset)
	})
}

func TestCarveBeyondCapacityPanics(t *testing.T) {
	var a Arena[int]
	a.next.Store(MaxNodes)
	require.PanicsWithValue(t, cerr.CapacityExceeded, func() { a.Carve() })
	require.Equal(t, int(MaxNodes), a.Carved())
}

func TestListSequenceAdvancesOnPushAndRefillOnly(t *testing.T) {
	chk := require.New(t)
	var a Arena[int]
	var l List[int]
	seq := func() uint32 { return Head(l.head.Load()).Seq() }

	r1, r2 := a.Carve(), a.Carve()
	l.Push(&a, r1)
	chk.Equal(uint32(1), seq())
	first := l.head.Load()
	l.Push(&a, r2)
	chk.Equal(uint32(2), seq())

	chk.Equal(r2, l.Pop(&a))
	chk.Equal(uint32(2), seq())
	chk.Equal(r1, l.Pop(&a))
	chk.Equal(uint32(2), seq())
	chk.Equal(Nil, l.Pop(&a))
	chk.Equal(uint32(2), seq())

	l.Refill(r1)
	chk.Equal(uint32(3), seq())
	chk.Equal(r1, l.Pop(&a))
	l.Push(&a, r1)
	chk.Equal(uint32(4), seq())

	// The same node back on top carries a different head word.
	chk.Equal(Head(first).Ref(), Head(l.head.Load()).Ref())
	chk.NotEqual(first, l.head.Load())
}

// A push landing between Refill's load of the head and its compare-and-swap
// must be detected rather than overwritten.
func TestListRefillDetectsConcurrentChange(t *testing.T) {
	chk := require.New(t)
	var a Arena[int]
	var l List[int]

	stale := Head(l.head.Load())
	pushed := a.Carve()
	l.Push(&a, pushed)

	chk.PanicsWithValue(cerr.ConcurrentRefill, func() { l.refillFrom(stale, a.Carve()) })
	chk.Equal(pushed, Head(l.head.Load()).Ref())
}
