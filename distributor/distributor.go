// File: distributor/distributor.go
// Package distributor fans chunks out to subscriber queues.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A ChunkDistributor owns a bounded set of queue references and the
// publisher's history ring. Fan-out honors the publisher's
// subscriber-too-slow policy; history overflow is always silent and
// never confused with a slow subscriber.

package distributor

import (
	"fmt"

	"github.com/momentics/hioload-ipc/api"
	"github.com/momentics/hioload-ipc/chunkqueue"
	"github.com/momentics/hioload-ipc/mempool"
)

// Data is the shared state of one distributor.
type Data struct {
	lock            api.LockingPolicy
	tooSlowPolicy   api.SubscriberTooSlowPolicy
	maxQueues       uint32
	historyCapacity uint32
	queues          []*chunkqueue.Data
	history         []mempool.SharedChunk
}

// NewData builds distributor state. lock selects the threading policy;
// pass api.SingleThreadedPolicy{} for distributors owned by one thread.
func NewData(tooSlowPolicy api.SubscriberTooSlowPolicy, maxQueues, historyCapacity uint32, lock api.LockingPolicy) *Data {
	return &Data{
		lock:            lock,
		tooSlowPolicy:   tooSlowPolicy,
		maxQueues:       maxQueues,
		historyCapacity: historyCapacity,
		queues:          make([]*chunkqueue.Data, 0, maxQueues),
		history:         make([]mempool.SharedChunk, 0, historyCapacity),
	}
}

// TooSlowPolicy returns the configured subscriber-too-slow policy.
func (d *Data) TooSlowPolicy() api.SubscriberTooSlowPolicy { return d.tooSlowPolicy }

// HistoryCapacity returns the configured history ring capacity.
func (d *Data) HistoryCapacity() uint32 { return d.historyCapacity }

// ChunkDistributor operates on a Data.
type ChunkDistributor struct {
	d *Data
}

// New wraps data.
func New(data *Data) ChunkDistributor { return ChunkDistributor{d: data} }

// TryAddQueue registers q and replays up to requestedHistory retained
// chunks into it, oldest first. Adding an already registered queue is a
// no-op. Registration and history replay happen under one lock, so a
// late joiner observes either the replayed history or a concurrently
// delivered chunk, never a reordered interleaving.
func (c ChunkDistributor) TryAddQueue(q *chunkqueue.Data, requestedHistory uint64) error {
	if q == nil {
		return api.NewError(api.ErrCodeInvalidArgument, api.ErrInvalidConfig, "nil chunk queue")
	}
	d := c.d
	d.lock.Lock()
	defer d.lock.Unlock()

	for _, stored := range d.queues {
		if stored == q {
			return nil
		}
	}
	if uint32(len(d.queues)) >= d.maxQueues {
		api.ReportError(api.DistributorQueueContainerOverflow, api.SeverityModerate,
			fmt.Sprintf("queue container already holds %d queues", d.maxQueues))
		return api.NewError(api.ErrCodeCapacityExceeded, api.ErrQueueContainerOverflow,
			fmt.Sprintf("cannot add queue, container limit %d reached", d.maxQueues))
	}
	d.queues = append(d.queues, q)

	n := uint64(len(d.history))
	if requestedHistory < n {
		n = requestedHistory
	}
	for _, h := range d.history[uint64(len(d.history))-n:] {
		d.pushToQueue(q, h.Clone())
	}
	return nil
}

// RemoveQueue deregisters q; reports whether it was present.
func (c ChunkDistributor) RemoveQueue(q *chunkqueue.Data) bool {
	d := c.d
	d.lock.Lock()
	defer d.lock.Unlock()
	for i, stored := range d.queues {
		if stored == q {
			d.queues = append(d.queues[:i], d.queues[i+1:]...)
			return true
		}
	}
	return false
}

// HasStoredQueues reports whether any subscriber queue is registered.
func (c ChunkDistributor) HasStoredQueues() bool {
	c.d.lock.Lock()
	defer c.d.lock.Unlock()
	return len(c.d.queues) > 0
}

// DeliverToAllStoredQueues pushes one reference of c into every
// registered queue. c itself stays owned by the caller.
func (c ChunkDistributor) DeliverToAllStoredQueues(chunk mempool.SharedChunk) {
	d := c.d
	d.lock.Lock()
	defer d.lock.Unlock()
	for _, q := range d.queues {
		d.pushToQueue(q, chunk.Clone())
	}
}

// pushToQueue consumes cc's reference, honoring the too-slow policy.
func (d *Data) pushToQueue(q *chunkqueue.Data, cc mempool.SharedChunk) {
	if d.tooSlowPolicy == api.WaitForSubscriber {
		q.PushBlocking(cc)
		return
	}
	if discarded, _ := q.PushDiscardOldest(cc); discarded.IsValid() {
		discarded.Release()
	}
}

// AddToHistoryWithoutDelivery retains one reference of c in the history
// ring without touching any queue.
func (c ChunkDistributor) AddToHistoryWithoutDelivery(chunk mempool.SharedChunk) {
	d := c.d
	d.lock.Lock()
	defer d.lock.Unlock()
	d.pushHistory(chunk)
}

// PushHistory retains one reference of c in the history ring. Called by
// the sender on every delivered chunk when history is configured.
func (c ChunkDistributor) PushHistory(chunk mempool.SharedChunk) {
	c.AddToHistoryWithoutDelivery(chunk)
}

// pushHistory appends a clone; a full ring silently drops its oldest
// entry.
func (d *Data) pushHistory(chunk mempool.SharedChunk) {
	if d.historyCapacity == 0 {
		return
	}
	if uint32(len(d.history)) >= d.historyCapacity {
		oldest := d.history[0]
		copy(d.history, d.history[1:])
		d.history = d.history[:len(d.history)-1]
		oldest.Release()
	}
	d.history = append(d.history, chunk.Clone())
}

// HistorySize returns the number of retained chunks.
func (c ChunkDistributor) HistorySize() uint64 {
	c.d.lock.Lock()
	defer c.d.lock.Unlock()
	return uint64(len(c.d.history))
}

// ClearHistory releases every retained chunk.
func (c ChunkDistributor) ClearHistory() {
	d := c.d
	d.lock.Lock()
	defer d.lock.Unlock()
	for i := range d.history {
		d.history[i].Release()
	}
	d.history = d.history[:0]
}
