// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package overlap records when goroutines enter and leave critical sections
// and reconstructs, after the fact, how many were inside at once.
//
// Each goroutine appends to its own [Track], so recording needs no
// synchronization beyond one atomic increment per event. That increment hands
// out tickets from a counter shared by the whole [Recorder], which places all
// events in a single order consistent with happens-before: if one goroutine
// left a critical section before another entered, the exit's ticket is the
// smaller. [Recorder.Summarize] merges the tracks by ticket and replays them.
package overlap

import (
	"cmp"
	"sync/atomic"

	"github.com/addrummond/heap"
	"github.com/gammazero/deque"
)

type Mode uint8

const (
	Shared Mode = iota
	Exclusive
)

type Event struct {
	Ticket uint64
	Mode   Mode
	Enter  bool
}

type Recorder struct {
	ticket atomic.Uint64
	tracks []*Track
}

// Track is one goroutine's event log. It must only be used by one goroutine
// at a time.
type Track struct {
	r      *Recorder
	events deque.Deque[Event]
}

// NewTrack adds a track to the recorder. It must not be called concurrently
// with other recorder methods; create all tracks before starting the
// goroutines that use them.
func (r *Recorder) NewTrack() *Track {
	t := &Track{r: r}
	r.tracks = append(r.tracks, t)
	return t
}

// Enter must be called just after the critical section is entered.
func (t *Track) Enter(mode Mode) {
	t.events.PushBack(Event{Ticket: t.r.ticket.Add(1), Mode: mode, Enter: true})
}

// Exit must be called just before the critical section is left.
func (t *Track) Exit(mode Mode) {
	t.events.PushBack(Event{Ticket: t.r.ticket.Add(1), Mode: mode})
}

func (t *Track) Len() int {
	return t.events.Len()
}

type Summary struct {
	// Sections is the number of critical sections entered.
	Sections int
	// MaxShared is the largest number of shared holders seen at once.
	MaxShared int
	// MaxExclusive is the largest number of exclusive holders seen at once.
	MaxExclusive int
	// Conflicts counts entries made while an incompatible holder was inside:
	// any entry during an exclusive hold, or an exclusive entry during a
	// shared hold.
	Conflicts int
	// Unbalanced counts exits without a matching entry, and entries still
	// open at the end of the recording.
	Unbalanced int
}

type cursor struct {
	event Event
	track int
}

func (a *cursor) Cmp(b *cursor) int {
	return cmp.Compare(a.event.Ticket, b.event.Ticket)
}

// Summarize consumes the recorded events, merging every track in ticket
// order. It must be called after all goroutines using the tracks have
// finished.
func (r *Recorder) Summarize() Summary {
	var h heap.Heap[cursor, heap.Min]
	advance := func(i int) {
		t := r.tracks[i]
		if t.events.Len() > 0 {
			heap.PushOrderable(&h, cursor{event: t.events.PopFront(), track: i})
		}
	}
	for i := range r.tracks {
		advance(i)
	}

	var s Summary
	var shared, exclusive int
	for {
		c, ok := heap.PopOrderable(&h)
		if !ok {
			break
		}
		advance(c.track)

		e := c.event
		switch {
		case e.Enter && e.Mode == Shared:
			s.Sections++
			if exclusive > 0 {
				s.Conflicts++
			}
			shared++
			s.MaxShared = max(s.MaxShared, shared)
		case e.Enter && e.Mode == Exclusive:
			s.Sections++
			if exclusive > 0 || shared > 0 {
				s.Conflicts++
			}
			exclusive++
			s.MaxExclusive = max(s.MaxExclusive, exclusive)
		case e.Mode == Shared:
			if shared == 0 {
				s.Unbalanced++
				continue
			}
			shared--
		default:
			if exclusive == 0 {
				s.Unbalanced++
				continue
			}
			exclusive--
		}
	}
	s.Unbalanced += shared + exclusive
	return s
}
