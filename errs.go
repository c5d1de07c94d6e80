// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lockfree

import (
	"errors"

	"github.com/petenewcomb/lockfree-go/internal/cerr"
)

// Values that the structures in this package panic with when they detect a
// state that only a synchronization defect could produce.
const (
	ErrCapacityExceeded       = cerr.CapacityExceeded
	ErrNodeOwnership          = cerr.NodeOwnership
	ErrSlotOccupied           = cerr.SlotOccupied
	ErrSlotVacant             = cerr.SlotVacant
	ErrRefillNotEmpty         = cerr.RefillNotEmpty
	ErrConcurrentRefill       = cerr.ConcurrentRefill
	ErrSharedCounterUnderflow = cerr.SharedCounterUnderflow
	ErrNotLocked              = cerr.NotLocked
)

// IsProtocolViolation reports whether v, typically a value returned by
// recover, is one of the Err values of this package or an error wrapping one.
func IsProtocolViolation(v any) bool {
	err, ok := v.(error)
	if !ok {
		return false
	}
	var violation interface{ Violation() bool }
	return errors.As(err, &violation) && violation.Violation()
}
