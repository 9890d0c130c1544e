// File: chunkqueue/ring.go
// Package chunkqueue implements the chunk reference ring.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded ring with per-cell sequence numbers and atomic head/tail,
// padded to prevent false sharing. The sequence cells order every slot
// access, so a producer reclaiming the oldest element never races the
// consumer on cell memory.

package chunkqueue

import (
	"sync/atomic"

	"github.com/momentics/hioload-ipc/mempool"
)

type cell struct {
	sequence atomic.Uint64
	chunk    mempool.SharedChunk
}

type ring struct {
	head  atomic.Uint64
	_     [56]byte // Padding for hot/cold separation
	tail  atomic.Uint64
	_     [56]byte // Padding
	mask  uint64
	cells []cell
}

// newRing allocates a ring of at least capacity physical slots, rounded
// up to a power of two.
func newRing(capacity uint64) *ring {
	size := uint64(2)
	for size < capacity {
		size <<= 1
	}
	r := &ring{
		mask:  size - 1,
		cells: make([]cell, size),
	}
	for i := range r.cells {
		r.cells[i].sequence.Store(uint64(i))
	}
	return r
}

// enqueue appends item; returns false if the physical ring is full.
func (r *ring) enqueue(item mempool.SharedChunk) bool {
	for {
		tail := r.tail.Load()
		c := &r.cells[tail&r.mask]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(tail)

		if dif == 0 {
			if r.tail.CompareAndSwap(tail, tail+1) {
				c.chunk = item
				c.sequence.Store(tail + 1)
				return true
			}
		} else if dif < 0 {
			return false // full
		}
		// tail moved, retry
	}
}

// dequeue removes and returns the oldest item; ok false if empty.
func (r *ring) dequeue() (mempool.SharedChunk, bool) {
	for {
		head := r.head.Load()
		c := &r.cells[head&r.mask]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(head+1)

		if dif == 0 {
			if r.head.CompareAndSwap(head, head+1) {
				item := c.chunk
				c.chunk = mempool.SharedChunk{}
				c.sequence.Store(head + r.mask + 1)
				return item, true
			}
		} else if dif < 0 {
			return mempool.SharedChunk{}, false // empty
		}
		// head moved, retry
	}
}

// len returns the number of queued items.
func (r *ring) len() uint64 {
	head := r.head.Load()
	tail := r.tail.Load()
	if tail < head {
		return 0
	}
	return tail - head
}
