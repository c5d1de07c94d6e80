// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package nodes_test

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gammazero/deque"
	"github.com/petenewcomb/lockfree-go/internal/cerr"
	"github.com/petenewcomb/lockfree-go/internal/nodes"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestHeadPacking(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := nodes.Ref(rapid.Uint32().Draw(t, "ref"))
		seq := rapid.Uint32().Draw(t, "seq")
		h := nodes.MakeHead(r, seq)
		require.Equal(t, r, h.Ref())
		require.Equal(t, seq, h.Seq())
	})
}

func TestSlot(t *testing.T) {
	chk := require.New(t)

	var s nodes.Slot[*int]
	chk.False(s.Occupied())
	chk.PanicsWithValue(cerr.SlotVacant, func() { s.Take() })

	v := new(int)
	s.Fill(v)
	chk.True(s.Occupied())
	chk.PanicsWithValue(cerr.SlotOccupied, func() { s.Fill(new(int)) })

	chk.Same(v, s.Take())
	chk.False(s.Occupied())
}

func TestArenaCarve(t *testing.T) {
	chk := require.New(t)

	var a nodes.Arena[int]
	chk.Equal(0, a.Carved())
	chk.Equal(0, a.Chunks())

	seen := make(map[nodes.Ref]bool)
	for range 200 {
		r := a.Carve()
		chk.NotEqual(nodes.Nil, r)
		chk.False(seen[r])
		seen[r] = true
		chk.Equal(nodes.InFlight, a.Node(r).State())
	}
	chk.Equal(200, a.Carved())
	// 64 + 128 < 200 <= 64 + 128 + 256
	chk.Equal(3, a.Chunks())
}

func TestArenaNodesDoNotMove(t *testing.T) {
	chk := require.New(t)

	var a nodes.Arena[int]
	first := a.Carve()
	p := a.Node(first)
	for range 1000 {
		a.Carve()
	}
	chk.Same(p, a.Node(first))
}

func TestArenaConcurrentCarve(t *testing.T) {
	chk := require.New(t)

	var a nodes.Arena[int]
	numGoroutines := max(2, runtime.NumCPU())
	const perGoroutine = 1000

	refs := make([][]nodes.Ref, numGoroutines)
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for id := range numGoroutines {
		go func() {
			defer wg.Done()
			for range perGoroutine {
				refs[id] = append(refs[id], a.Carve())
			}
		}()
	}
	wg.Wait()

	seen := make(map[nodes.Ref]bool)
	for _, rs := range refs {
		for _, r := range rs {
			chk.False(seen[r], "ref %d carved twice", r)
			seen[r] = true
			chk.Equal(nodes.InFlight, a.Node(r).State())
		}
	}
	chk.Equal(numGoroutines*perGoroutine, a.Carved())
}

func TestNodeTransition(t *testing.T) {
	chk := require.New(t)

	var a nodes.Arena[int]
	n := a.Node(a.Carve())
	n.Transition(nodes.InFlight, nodes.OnActiveList)
	chk.Equal(nodes.OnActiveList, n.State())
	chk.PanicsWithValue(cerr.NodeOwnership, func() {
		n.Transition(nodes.InFlight, nodes.OnFreeList)
	})
	chk.Equal(nodes.OnActiveList, n.State())
	chk.Equal("on-active-list", n.State().String())
}

func TestListLIFO(t *testing.T) {
	chk := require.New(t)

	var a nodes.Arena[int]
	var l nodes.List[int]
	chk.True(l.Empty())
	chk.Equal(nodes.Nil, l.Pop(&a))

	r1, r2, r3 := a.Carve(), a.Carve(), a.Carve()
	l.Push(&a, r1)
	l.Push(&a, r2)
	l.Push(&a, r3)
	chk.False(l.Empty())

	chk.Equal(r3, l.Pop(&a))
	chk.Equal(r2, l.Pop(&a))
	chk.Equal(r1, l.Pop(&a))
	chk.Equal(nodes.Nil, l.Pop(&a))
	chk.True(l.Empty())
}

func TestListRefill(t *testing.T) {
	chk := require.New(t)

	var a nodes.Arena[int]
	var c nodes.Chain[int]
	r1, r2, r3 := a.Carve(), a.Carve(), a.Carve()
	c.Push(&a, r1)
	c.Push(&a, r2)
	c.Push(&a, r3)

	head := c.Detach()
	chk.Equal(r3, head)
	chk.True(c.Empty())
	chk.Equal(nodes.Nil, c.Detach())

	// Reversal turns most-recent-first into oldest-first.
	head = nodes.Reverse(&a, head)
	chk.Equal(r1, head)

	var l nodes.List[int]
	l.Refill(head)
	chk.Equal(r1, l.Pop(&a))
	chk.Equal(r2, l.Pop(&a))
	chk.Equal(r3, l.Pop(&a))
	chk.Equal(nodes.Nil, l.Pop(&a))
}

func TestListRefillNotEmptyPanics(t *testing.T) {
	var a nodes.Arena[int]
	var l nodes.List[int]
	l.Push(&a, a.Carve())
	require.PanicsWithValue(t, cerr.RefillNotEmpty, func() { l.Refill(a.Carve()) })
}

func TestReverseSingleNode(t *testing.T) {
	chk := require.New(t)

	var a nodes.Arena[int]
	r := a.Carve()
	chk.Equal(r, nodes.Reverse(&a, r))
	chk.Equal(nodes.Nil, a.Node(r).Prev())
	chk.Equal(nodes.Nil, nodes.Reverse(&a, nodes.Nil))
}

func TestPoolRecycles(t *testing.T) {
	chk := require.New(t)

	var p nodes.Pool[string]
	p.Reserve(4)
	chk.Equal(4, p.Allocated())

	for range 100 {
		r := p.Acquire()
		n := p.Node(r)
		chk.Equal(nodes.InFlight, n.State())
		n.Fill("x")
		chk.Equal("x", n.Take())
		p.Release(r)
		chk.Equal(nodes.OnFreeList, n.State())
	}
	chk.Equal(4, p.Allocated())

	// Draining the free list falls back to the arena.
	var held []nodes.Ref
	for range 6 {
		held = append(held, p.Acquire())
	}
	chk.Equal(6, p.Allocated())
	for _, r := range held {
		p.Release(r)
	}
	chk.Equal(6, p.Allocated())
}

func TestPoolReleaseChecks(t *testing.T) {
	chk := require.New(t)

	var p nodes.Pool[int]
	r := p.Acquire()
	p.Node(r).Fill(1)
	chk.PanicsWithValue(cerr.SlotOccupied, func() { p.Release(r) })
	p.Node(r).Take()
	p.Release(r)
	chk.PanicsWithValue(cerr.NodeOwnership, func() { p.Release(r) })
}

// TestListWithRapid compares a List against a deque used as a stack.
func TestListWithRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var p nodes.Pool[int]
		var l nodes.List[int]
		var model deque.Deque[int]

		t.Repeat(map[string]func(*rapid.T){
			"push": func(t *rapid.T) {
				v := rapid.Int().Draw(t, "value")
				r := p.Acquire()
				p.Node(r).Fill(v)
				l.Push(p.Arena(), r)
				model.PushBack(v)
			},
			"pop": func(t *rapid.T) {
				r := l.Pop(p.Arena())
				if model.Len() == 0 {
					require.Equal(t, nodes.Nil, r)
					return
				}
				require.NotEqual(t, nodes.Nil, r)
				require.Equal(t, model.PopBack(), p.Node(r).Take())
				p.Release(r)
			},
			"": func(t *rapid.T) {
				require.Equal(t, model.Len() == 0, l.Empty())
				require.LessOrEqual(t, model.Len(), p.Allocated())
			},
		})
	})
}

func TestListConcurrentConservation(t *testing.T) {
	chk := require.New(t)

	var p nodes.Pool[int]
	var l nodes.List[int]
	numGoroutines := max(2, runtime.NumCPU())
	iterations := 100_000
	if testing.Short() {
		iterations /= 10
	}

	received := make([]atomic.Int32, numGoroutines*iterations)

	var ready sync.WaitGroup
	ready.Add(numGoroutines)
	startCh := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for id := range numGoroutines {
		go func() {
			defer wg.Done()
			ready.Done()
			<-startCh
			// Each goroutine alternates between pushing its own values and
			// popping whatever is on top, so nodes are recycled constantly.
			for i := range iterations {
				r := p.Acquire()
				p.Node(r).Fill(id*iterations + i)
				p.Node(r).Transition(nodes.InFlight, nodes.OnActiveList)
				l.Push(p.Arena(), r)

				r = l.Pop(p.Arena())
				if r == nodes.Nil {
					continue
				}
				p.Node(r).Transition(nodes.OnActiveList, nodes.InFlight)
				received[p.Node(r).Take()].Add(1)
				p.Release(r)
			}
		}()
	}
	ready.Wait()
	close(startCh)
	wg.Wait()

	for r := l.Pop(p.Arena()); r != nodes.Nil; r = l.Pop(p.Arena()) {
		p.Node(r).Transition(nodes.OnActiveList, nodes.InFlight)
		received[p.Node(r).Take()].Add(1)
		p.Release(r)
	}

	for i := range received {
		chk.Equal(int32(1), received[i].Load(), "value %d", i)
	}
	// Every goroutine pushes before it pops, so at most one node per goroutine
	// is ever outside the free list. Allow slack for carves that race with a
	// release.
	chk.LessOrEqual(p.Allocated(), 2*numGoroutines)
}

func TestPoolOccupyVacate(t *testing.T) {
	chk := require.New(t)

	var p nodes.Pool[[]byte]
	v := []byte("payload")
	r := p.Occupy(v)
	n := p.Node(r)
	chk.Equal(nodes.OnActiveList, n.State())
	chk.True(n.Occupied())

	chk.Equal(v, p.Vacate(r))
	chk.Equal(nodes.OnFreeList, n.State())
	chk.False(n.Occupied())

	// A node that is not on an active list cannot be vacated.
	chk.PanicsWithValue(cerr.NodeOwnership, func() { p.Vacate(r) })
}
