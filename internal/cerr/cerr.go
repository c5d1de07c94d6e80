// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package cerr holds the constant error values that the lock-free structures
// panic with when they detect an impossible state. They live here rather than
// in the root package so that internal packages can raise them; the root
// package re-exports each one.
package cerr

type Error string

func (e Error) Error() string {
	return string(e)
}

// Violation is implemented by every error in this package. A violation means a
// synchronization defect, never a transient condition, so none of them is ever
// retried.
func (e Error) Violation() bool {
	return true
}

const (
	CapacityExceeded       = Error("node arena capacity exceeded")
	NodeOwnership          = Error("node ownership violated")
	SlotOccupied           = Error("fill of occupied slot")
	SlotVacant             = Error("take from vacant slot")
	RefillNotEmpty         = Error("refill called when pop list not empty")
	ConcurrentRefill       = Error("refill called by more than one goroutine at a time")
	SharedCounterUnderflow = Error("shared access counter below minimum")
	NotLocked              = Error("unlock of unlocked lock")
)
