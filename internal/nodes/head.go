// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package nodes

// Head is a list head descriptor: the Ref of the top node in the low 32 bits
// and a sequence number in the high 32 bits, so that both are read and
// compared-and-swapped as one word.
type Head uint64

func MakeHead(r Ref, seq uint32) Head {
	return Head(uint64(seq)<<32 | uint64(r))
}

func (h Head) Ref() Ref {
	return Ref(uint32(h))
}

func (h Head) Seq() uint32 {
	return uint32(h >> 32)
}
