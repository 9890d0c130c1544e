// File: chunkqueue/chunk_queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Data is the shared state of one subscriber queue. The logical
// capacity is enforced here, on top of the power-of-two physical ring,
// so getCurrentCapacity and the overflow point match the configured
// value exactly.

package chunkqueue

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-ipc/api"
	"github.com/momentics/hioload-ipc/mempool"
)

var queueIDCounter atomic.Uint64

// Data is one bounded chunk queue. Producers go through TryPush (or the
// distributor's policy-directed pushes), the single consumer through a
// Popper.
type Data struct {
	id         uint64
	capacity   uint64
	fullPolicy api.QueueFullPolicy
	variant    api.QueueVariant
	ring       *ring

	// producerMu serializes producers for the MPSC variant; the SPSC
	// variant never touches it.
	producerMu sync.Mutex

	// Blocking-push parking. waiters gates the popper-side signal so
	// the non-blocking paths stay lock-free.
	waitMu    sync.Mutex
	spaceCond *sync.Cond
	waiters   atomic.Int32
}

// NewData builds a queue from cfg.
func NewData(cfg api.ChunkQueueConfig) (*Data, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Data{
		id:         queueIDCounter.Add(1),
		capacity:   uint64(cfg.Capacity),
		fullPolicy: cfg.FullPolicy,
		variant:    cfg.Variant,
		ring:       newRing(uint64(cfg.Capacity)),
	}
	d.spaceCond = sync.NewCond(&d.waitMu)
	return d, nil
}

// ID returns the process-local queue identity, used for diagnostics.
func (d *Data) ID() uint64 { return d.id }

// FullPolicy returns the configured queue-full policy.
func (d *Data) FullPolicy() api.QueueFullPolicy { return d.fullPolicy }

// Variant returns the configured ring variant.
func (d *Data) Variant() api.QueueVariant { return d.variant }

// Capacity returns the configured capacity.
func (d *Data) Capacity() uint64 { return d.capacity }

// Size returns the current number of queued chunks.
func (d *Data) Size() uint64 { return d.ring.len() }

// Empty reports whether the queue holds no chunks.
func (d *Data) Empty() bool { return d.ring.len() == 0 }

func (d *Data) lockProducer() {
	if d.variant == api.SoFiMPSC {
		d.producerMu.Lock()
	}
}

func (d *Data) unlockProducer() {
	if d.variant == api.SoFiMPSC {
		d.producerMu.Unlock()
	}
}

// TryPush appends c under the queue's own full policy. Under
// DiscardOldestData a full queue reclaims its oldest entry and returns
// it to the caller (valid handle, caller owns it); under BlockProducer
// the call parks until the consumer frees a slot. The queue takes
// ownership of c's reference in every case.
func (d *Data) TryPush(c mempool.SharedChunk) (discarded mempool.SharedChunk, ok bool) {
	if d.fullPolicy == api.BlockProducer {
		d.PushBlocking(c)
		return mempool.SharedChunk{}, true
	}
	return d.PushDiscardOldest(c)
}

// PushDiscardOldest appends c, reclaiming the oldest entry when the
// queue is at capacity. The reclaimed handle is returned to the caller.
func (d *Data) PushDiscardOldest(c mempool.SharedChunk) (discarded mempool.SharedChunk, ok bool) {
	d.lockProducer()
	defer d.unlockProducer()
	if d.ring.len() >= d.capacity {
		if old, stole := d.ring.dequeue(); stole {
			discarded = old
		}
	}
	d.ring.enqueue(c)
	return discarded, true
}

// TryPushNoOverflow appends c only if the queue has free capacity.
func (d *Data) TryPushNoOverflow(c mempool.SharedChunk) bool {
	d.lockProducer()
	defer d.unlockProducer()
	if d.ring.len() >= d.capacity {
		return false
	}
	d.ring.enqueue(c)
	return true
}

// PushBlocking appends c, parking the caller until the consumer frees a
// slot. Only the popper unparks it; a queue that is never drained
// blocks forever, which is the contract of the blocking policies.
func (d *Data) PushBlocking(c mempool.SharedChunk) {
	d.lockProducer()
	defer d.unlockProducer()
	if d.ring.len() >= d.capacity {
		d.waiters.Add(1)
		d.waitMu.Lock()
		for d.ring.len() >= d.capacity {
			d.spaceCond.Wait()
		}
		d.waitMu.Unlock()
		d.waiters.Add(-1)
	}
	d.ring.enqueue(c)
}

// tryPop hands the oldest chunk to the consumer and unparks a blocked
// producer if one is waiting.
func (d *Data) tryPop() (mempool.SharedChunk, bool) {
	c, ok := d.ring.dequeue()
	if ok && d.waiters.Load() > 0 {
		d.waitMu.Lock()
		d.spaceCond.Signal()
		d.waitMu.Unlock()
	}
	return c, ok
}
