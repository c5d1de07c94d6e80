// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lockfree

import "github.com/petenewcomb/lockfree-go/internal/spin"

// Config holds construction parameters shared by the structures in this
// package. A zero Config is valid: no pre-warmed nodes and the default spin
// limit.
type Config struct {
	// InitialCapacity is the number of nodes placed on a Stack's or Queue's
	// free list at construction, so that the first InitialCapacity pushes do
	// not allocate. Must not be negative. Ignored by the mutexes.
	InitialCapacity int

	// SpinLimit is the number of consecutive spins after which a waiting
	// operation yields the processor with runtime.Gosched. Zero selects the
	// default of 64. A negative value never yields, which is only appropriate
	// when every goroutine that touches the structure has a processor to
	// itself.
	SpinLimit int
}

var DefaultConfig = Config{
	InitialCapacity: 64,
	SpinLimit:       spin.DefaultLimit,
}

func (c *Config) validate() {
	if c.InitialCapacity < 0 {
		panic("initial capacity must not be negative")
	}
}
