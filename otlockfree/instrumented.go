// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otlockfree

import (
	"time"

	lockfree "github.com/petenewcomb/lockfree-go"
)

// NewInstrumentedSharedMutex combines logging and metrics for a shared mutex
// into a single wrapper. Wait times are measured around the underlying mutex
// alone, so the logging adds nothing to them.
func NewInstrumentedSharedMutex(
	name string,
	m lockfree.RWLocker,
	slowThreshold time.Duration,
) (*LoggedSharedMutex, error) {
	// Apply wrappers inside-out: metrics first, then logging.
	metered, err := NewMeteredSharedMutex(name, m)
	if err != nil {
		return nil, err
	}
	return NewLoggedSharedMutex(name, metered, slowThreshold), nil
}
