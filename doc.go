// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package lockfree provides concurrent data structures that coordinate
// goroutines using only atomic operations: an unbounded LIFO [Stack], an
// unbounded FIFO [Queue], and a readers-writer lock, [SharedMutex].
//
// They are meant for low-latency programs that run about as many busy
// goroutines as there are processors, where parking a goroutine in the
// scheduler costs more than spinning for a short while. No operation ever
// blocks on a channel, a [sync.Mutex] or the runtime's semaphores; contention
// is resolved by retrying compare-and-swap operations. Spin loops that can wait
// on another goroutine (the queue's refill step and the mutex's lock methods)
// call [runtime.Gosched] every [Config.SpinLimit] spins, which keeps them
// making progress when goroutines outnumber processors. Nothing here supports
// timeouts or cancellation, and no lock is fair.
//
// # Memory
//
// Stack and Queue keep their own free lists of nodes. A pop returns its node
// to the free list and the next push reuses it, so once a structure has grown
// to its working size, pushes and pops stop allocating. [Config.InitialCapacity]
// pre-warms the free list for programs that cannot afford allocation even
// while warming up. Nodes are addressed by index into append-only storage and
// list heads carry a sequence number, which rules out the ABA hazard that node
// reuse would otherwise create.
//
// Popping a value overwrites the structure's internal copy with the zero
// value, so popped values are not kept reachable by recycled nodes. Call
// [Stack.Clear] or [Queue.Clear] to drop everything still held.
//
// # Failures
//
// Pop on an empty structure returns false; that is not an error. States that
// can only arise from a synchronization defect, such as a negative reader
// count or two goroutines claiming the same node, panic with one of the Err
// values in this package. They are never retried. Use [IsProtocolViolation]
// to classify a recovered panic value.
//
// # Ordering
//
// Go's atomic operations are sequentially consistent, so every successful
// push happens before the pop that returns the pushed value, and every write
// made while holding a [SharedMutex] exclusively happens before any later
// shared or exclusive critical section on the same mutex.
package lockfree

//go:generate go run -C internal/cmd/chartgen . ../../../bench.txt
