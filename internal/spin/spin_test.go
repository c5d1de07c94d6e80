// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package spin_test

import (
	"runtime"
	"sync"
	"testing"

	"github.com/petenewcomb/lockfree-go/internal/cerr"
	"github.com/petenewcomb/lockfree-go/internal/spin"
	"github.com/stretchr/testify/require"
)

func TestBackoffYieldsAtLimit(t *testing.T) {
	chk := require.New(t)

	b := spin.Backoff{Limit: 4}
	for range 3 {
		b.Spin()
	}
	chk.Equal(0, b.Yields())
	b.Spin()
	chk.Equal(1, b.Yields())
	for range 8 {
		b.Spin()
	}
	chk.Equal(3, b.Yields())
}

func TestBackoffZeroLimitUsesDefault(t *testing.T) {
	chk := require.New(t)

	var b spin.Backoff
	for range spin.DefaultLimit - 1 {
		b.Spin()
	}
	chk.Equal(0, b.Yields())
	b.Spin()
	chk.Equal(1, b.Yields())
}

func TestBackoffNegativeLimitNeverYields(t *testing.T) {
	b := spin.Backoff{Limit: -1}
	for range 10 * spin.DefaultLimit {
		b.Spin()
	}
	require.Equal(t, 0, b.Yields())
}

func TestBackoffReset(t *testing.T) {
	chk := require.New(t)

	b := spin.Backoff{Limit: 2}
	b.Spin()
	b.Reset()
	b.Spin()
	chk.Equal(0, b.Yields())
	b.Spin()
	chk.Equal(1, b.Yields())
}

func TestLockTryLock(t *testing.T) {
	chk := require.New(t)

	var l spin.Lock
	chk.True(l.TryLock())
	chk.False(l.TryLock())
	l.Unlock()
	chk.True(l.TryLock())
	l.Unlock()
}

func TestLockUnlockUnheldPanics(t *testing.T) {
	var l spin.Lock
	require.PanicsWithValue(t, cerr.NotLocked, l.Unlock)
}

func TestLockMutualExclusion(t *testing.T) {
	chk := require.New(t)

	var l spin.Lock
	numGoroutines := max(2, runtime.NumCPU())
	iterations := 10_000
	if testing.Short() {
		iterations /= 10
	}

	// Plain, non-atomic updates that the race detector would flag if the lock
	// failed to order them.
	counter := 0
	inside := 0
	maxInside := 0

	var ready sync.WaitGroup
	ready.Add(numGoroutines)
	startCh := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for range numGoroutines {
		go func() {
			defer wg.Done()
			ready.Done()
			<-startCh
			for range iterations {
				l.Lock(0)
				inside++
				maxInside = max(maxInside, inside)
				counter++
				inside--
				l.Unlock()
			}
		}()
	}

	ready.Wait()
	close(startCh)
	wg.Wait()

	chk.Equal(numGoroutines*iterations, counter)
	chk.Equal(1, maxInside)
}
