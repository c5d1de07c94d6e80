// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package nodes provides the node storage and node lists underneath the
// lock-free stack and queue.
//
// Nodes live in an [Arena]: chunked, index-addressed storage that never moves
// or frees a node once carved. Lists link nodes by [Ref] (an index plus one)
// rather than by pointer, and the lists whose nodes can be popped one at a time
// pair the head Ref with a sequence number in a single 64-bit word ([Head]).
// The sequence advances on every push, so a goroutine holding a stale head
// cannot complete a compare-and-swap against a node that was popped, recycled
// and pushed back in the meantime (the ABA hazard).
//
// Each node carries an explicit ownership state ([State]) and an explicit
// occupied/vacant element [Slot]. Every ownership transfer is a
// compare-and-swap on the state from its expected prior value, and a mismatch
// panics; it means two goroutines believed they owned the same node.
package nodes
