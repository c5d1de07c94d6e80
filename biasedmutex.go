// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lockfree

import (
	"sync"
	"sync/atomic"

	"github.com/petenewcomb/lockfree-go/internal/cerr"
	"github.com/petenewcomb/lockfree-go/internal/spin"
)

// exclusiveBias is added to a BiasedSharedMutex's counter while it is claimed
// exclusively. Shared holders are limited to maxSharedHolders so that a counter
// in [exclusiveBias+maxSharedHolders, 0) can be recognized as an underflow
// rather than an exclusive claim.
const (
	exclusiveBias    = -1 << 30
	maxSharedHolders = 1 << 29
)

// BiasedSharedMutex is a spinning readers-writer lock that keeps all of its
// state in a single counter. A non-negative counter is the number of shared
// holders. An exclusive claimant adds a large negative bias to a non-negative
// counter, after which every new shared entrant sees a negative result from its
// own increment, backs it out and waits. The claimant owns the mutex once the
// counter has drained to exactly the bias.
//
// Unlock removes the bias by addition rather than storing zero, so that
// increments made by shared entrants that have not yet backed out are not lost.
//
// [SharedMutex] is the better-understood design and should be preferred;
// BiasedSharedMutex trades its separate flag for one fewer atomic access on the
// shared path. It supports fewer than 2^29 concurrent shared holders and is not
// fair in either direction.
//
// The zero value is an unlocked mutex. A BiasedSharedMutex must not be copied
// after first use.
type BiasedSharedMutex struct {
	counter   atomic.Int32
	spinLimit int
}

var _ RWLocker = (*BiasedSharedMutex)(nil)

// NewBiasedSharedMutex returns an unlocked mutex that waits with cfg.SpinLimit.
func NewBiasedSharedMutex(cfg Config) *BiasedSharedMutex {
	return &BiasedSharedMutex{spinLimit: cfg.SpinLimit}
}

// Lock acquires the mutex exclusively.
func (m *BiasedSharedMutex) Lock() {
	b := spin.Backoff{Limit: m.spinLimit}
	for {
		n := m.counter.Load()
		if n >= 0 && m.counter.CompareAndSwap(n, n+exclusiveBias) {
			break
		}
		b.Spin()
	}

	b.Reset()
	for {
		n := m.counter.Load()
		if n == exclusiveBias {
			return
		}
		if n < exclusiveBias {
			panic(cerr.SharedCounterUnderflow)
		}
		b.Spin()
	}
}

// Unlock releases exclusive ownership. It panics with [ErrNotLocked] if the
// mutex was not held exclusively.
func (m *BiasedSharedMutex) Unlock() {
	n := m.counter.Add(-exclusiveBias)
	switch {
	case n < 0:
		panic(cerr.SharedCounterUnderflow)
	case n >= -exclusiveBias:
		// The counter was non-negative, so no bias was applied.
		m.counter.Add(exclusiveBias)
		panic(cerr.NotLocked)
	}
}

// LockShared acquires the mutex in shared mode.
func (m *BiasedSharedMutex) LockShared() {
	b := spin.Backoff{Limit: m.spinLimit}
	for {
		if m.counter.Add(1) > 0 {
			return
		}
		// An exclusive claim is in progress or held. Back out so that a
		// claimant waiting for the counter to drain can finish.
		m.counter.Add(-1)
		for m.counter.Load() < 0 {
			b.Spin()
		}
	}
}

// UnlockShared releases one shared hold. It panics with
// [ErrSharedCounterUnderflow] if the counter falls below its minimum.
func (m *BiasedSharedMutex) UnlockShared() {
	n := m.counter.Add(-1)
	if n < exclusiveBias || (n < 0 && n >= exclusiveBias+maxSharedHolders) {
		panic(cerr.SharedCounterUnderflow)
	}
}

// RLocker returns a [sync.Locker] whose Lock and Unlock methods call
// LockShared and UnlockShared.
func (m *BiasedSharedMutex) RLocker() sync.Locker {
	return sharedLocker{m}
}
