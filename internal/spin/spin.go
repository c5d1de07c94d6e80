// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package spin provides the busy-wait building blocks shared by the lock-free
// structures: a spin counter that optionally yields the processor, and a
// test-and-set lock built on it.
package spin

import (
	"runtime"
	"sync/atomic"

	"github.com/petenewcomb/lockfree-go/internal/cerr"
)

// DefaultLimit is the number of consecutive spins after which a [Backoff] with
// a zero Limit yields the processor.
const DefaultLimit = 64

// Backoff counts consecutive unsuccessful attempts within a spin loop. After
// every Limit spins it calls [runtime.Gosched], which lets other goroutines run
// when there are more runnable goroutines than processors. A zero Limit means
// [DefaultLimit]; a negative Limit never yields, leaving a pure busy-spin.
//
// The zero value is ready to use. A Backoff must not be shared between
// goroutines.
type Backoff struct {
	Limit  int
	spins  int
	yields int
}

// Spin records one unsuccessful attempt, yielding if the limit was reached.
func (b *Backoff) Spin() {
	b.spins++
	limit := b.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > 0 && b.spins >= limit {
		b.spins = 0
		b.yields++
		runtime.Gosched()
	}
}

// Yields returns how many times Spin has yielded the processor.
func (b *Backoff) Yields() int {
	return b.yields
}

// Reset clears the spin count but keeps the yield tally.
func (b *Backoff) Reset() {
	b.spins = 0
}

// Lock is a single-owner test-and-set spin lock. Acquisition never parks the
// goroutine in the scheduler; at most it yields according to its [Backoff]
// limit. The zero value is an unlocked lock.
type Lock struct {
	held atomic.Bool
}

// Lock spins until the lock is acquired. The limit is passed to the [Backoff]
// driving the wait.
func (l *Lock) Lock(limit int) {
	b := Backoff{Limit: limit}
	for !l.TryLock() {
		// Wait for the holder to clear the flag before trying the CAS again
		// so that waiters don't keep the cache line in exclusive state.
		for l.held.Load() {
			b.Spin()
		}
	}
}

// TryLock acquires the lock if it is free and reports whether it did.
func (l *Lock) TryLock() bool {
	return l.held.CompareAndSwap(false, true)
}

// Unlock releases the lock. Unlocking a lock that is not held panics with
// [cerr.NotLocked].
func (l *Lock) Unlock() {
	if !l.held.Swap(false) {
		panic(cerr.NotLocked)
	}
}
