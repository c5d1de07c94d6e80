// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package nodes

import "github.com/petenewcomb/lockfree-go/internal/cerr"

// Slot holds at most one value and knows whether it does. Filling an occupied
// slot or taking from a vacant one panics instead of silently overwriting or
// returning garbage.
//
// The zero value is a vacant slot.
type Slot[T any] struct {
	value    T
	occupied bool
}

func (s *Slot[T]) Fill(v T) {
	if s.occupied {
		panic(cerr.SlotOccupied)
	}
	s.value = v
	s.occupied = true
}

// Take returns the stored value and leaves the slot vacant. The slot's copy is
// overwritten with the zero value so that a recycled node does not keep
// whatever the value referenced reachable.
func (s *Slot[T]) Take() T {
	if !s.occupied {
		panic(cerr.SlotVacant)
	}
	v := s.value
	s.value = *new(T)
	s.occupied = false
	return v
}

func (s *Slot[T]) Occupied() bool {
	return s.occupied
}
