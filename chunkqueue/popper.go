// File: chunkqueue/popper.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package chunkqueue

import "github.com/momentics/hioload-ipc/mempool"

// Popper is the consumer-side view of a queue. Exactly one popper may
// drain a queue; that is the SPSC/MPSC contract.
type Popper struct {
	d *Data
}

// NewPopper wraps q.
func NewPopper(q *Data) Popper { return Popper{d: q} }

// TryPop removes the oldest chunk, FIFO. The returned handle carries
// its own reference; the consumer releases it when done.
func (p Popper) TryPop() (mempool.SharedChunk, bool) {
	return p.d.tryPop()
}

// Empty reports whether the queue holds no chunks.
func (p Popper) Empty() bool { return p.d.Empty() }

// Size returns the current number of queued chunks.
func (p Popper) Size() uint64 { return p.d.Size() }

// GetCurrentCapacity returns the configured queue capacity.
func (p Popper) GetCurrentCapacity() uint64 { return p.d.Capacity() }

// Queue exposes the underlying queue data.
func (p Popper) Queue() *Data { return p.d }
