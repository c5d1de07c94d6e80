// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lockfree

import (
	"sync"
	"sync/atomic"

	"github.com/petenewcomb/lockfree-go/internal/cerr"
	"github.com/petenewcomb/lockfree-go/internal/spin"
)

// RWLocker is a readers-writer lock: either any number of shared holders or a
// single exclusive holder.
type RWLocker interface {
	sync.Locker
	LockShared()
	UnlockShared()
}

// SharedMutex is a spinning readers-writer lock. It keeps a count of shared
// holders and a separate exclusive flag.
//
// A goroutine entering in shared mode increments the count and then checks the
// flag. If the flag is set, it backs its increment out before waiting, since an
// exclusive claimant may be waiting for the count to drain, and starts over
// once the flag clears. A goroutine entering exclusively sets the flag, which
// turns away new shared entrants, and then waits for the count to reach zero.
//
// Neither mode is favored: a steady stream of shared holders can keep an
// exclusive claimant waiting indefinitely, and a busy exclusive holder can do
// the same to shared entrants.
//
// The zero value is an unlocked mutex. A SharedMutex must not be copied after
// first use.
type SharedMutex struct {
	shared    atomic.Int32
	exclusive atomic.Bool
	spinLimit int
}

var _ RWLocker = (*SharedMutex)(nil)

// NewSharedMutex returns an unlocked mutex that waits with cfg.SpinLimit.
func NewSharedMutex(cfg Config) *SharedMutex {
	return &SharedMutex{spinLimit: cfg.SpinLimit}
}

// Lock acquires the mutex exclusively.
func (m *SharedMutex) Lock() {
	b := spin.Backoff{Limit: m.spinLimit}
	for !m.exclusive.CompareAndSwap(false, true) {
		b.Spin()
	}

	// New shared entrants now back out, so the count can only fall.
	b.Reset()
	for {
		n := m.shared.Load()
		if n == 0 {
			return
		}
		if n < 0 {
			panic(cerr.SharedCounterUnderflow)
		}
		b.Spin()
	}
}

// Unlock releases exclusive ownership. It panics with [ErrNotLocked] if the
// mutex was not held exclusively.
func (m *SharedMutex) Unlock() {
	if !m.exclusive.Swap(false) {
		panic(cerr.NotLocked)
	}
}

// LockShared acquires the mutex in shared mode.
func (m *SharedMutex) LockShared() {
	b := spin.Backoff{Limit: m.spinLimit}
	for {
		m.increment()
		if !m.exclusive.Load() {
			return
		}
		m.UnlockShared()
		for m.exclusive.Load() {
			b.Spin()
		}
	}
}

func (m *SharedMutex) increment() {
	for {
		n := m.shared.Load()
		if n < 0 {
			panic(cerr.SharedCounterUnderflow)
		}
		if m.shared.CompareAndSwap(n, n+1) {
			return
		}
	}
}

// UnlockShared releases one shared hold. It panics with
// [ErrSharedCounterUnderflow] if there was none.
func (m *SharedMutex) UnlockShared() {
	if m.shared.Add(-1) < 0 {
		panic(cerr.SharedCounterUnderflow)
	}
}

// RLocker returns a [sync.Locker] whose Lock and Unlock methods call
// LockShared and UnlockShared.
func (m *SharedMutex) RLocker() sync.Locker {
	return sharedLocker{m}
}

type sharedLocker struct {
	m RWLocker
}

func (l sharedLocker) Lock() {
	l.m.LockShared()
}

func (l sharedLocker) Unlock() {
	l.m.UnlockShared()
}
