// File: sender/sender.go
// Package sender implements the publisher-side chunk state machine.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A ChunkSender tracks every chunk a publisher holds between allocation
// and send/release in a fixed in-flight table (array plus occupancy
// mask, nothing allocates on the publish path), retains the last sent
// chunk for in-place reuse, and hands delivered chunks to its
// distributor.
//
// Per in-flight slot:
//
//	Empty --TryAllocate--> Held
//	Held  --Release------> Empty
//	Held  --Send---------> Empty (chunk moves to lastSent/history/queues)
//	Held  --PushToHistory-> Empty (chunk moves to history only)
//
// Any other transition is reported to the error handler and leaves the
// state untouched.

package sender

import (
	"fmt"

	"github.com/momentics/hioload-ipc/api"
	"github.com/momentics/hioload-ipc/chunkqueue"
	"github.com/momentics/hioload-ipc/distributor"
	"github.com/momentics/hioload-ipc/mempool"
)

// Data is the shared state of one publisher port. It is single-writer:
// only the owning publisher thread mutates it.
type Data struct {
	distData *distributor.Data
	mgr      *mempool.MemoryManager

	inFlight []mempool.SharedChunk
	occupied uint64
	lastSent mempool.SharedChunk
	seq      uint64
}

// NewData validates cfg and builds sender state on mgr. lock selects
// the distributor's threading policy.
func NewData(mgr *mempool.MemoryManager, cfg api.ChunkSenderConfig, lock api.LockingPolicy) (*Data, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Data{
		distData: distributor.NewData(cfg.TooSlowPolicy, cfg.MaxQueues, cfg.HistoryCapacity, lock),
		mgr:      mgr,
		inFlight: make([]mempool.SharedChunk, cfg.MaxInFlight),
	}, nil
}

// ChunkSender operates on a Data.
type ChunkSender struct {
	d    *Data
	dist distributor.ChunkDistributor
}

// New wraps data.
func New(data *Data) ChunkSender {
	return ChunkSender{d: data, dist: distributor.New(data.distData)}
}

// TryAddQueue registers a subscriber queue, replaying up to
// requestedHistory retained chunks; see distributor.TryAddQueue.
func (s ChunkSender) TryAddQueue(q *chunkqueue.Data, requestedHistory uint64) error {
	return s.dist.TryAddQueue(q, requestedHistory)
}

// RemoveQueue deregisters a subscriber queue.
func (s ChunkSender) RemoveQueue(q *chunkqueue.Data) bool {
	return s.dist.RemoveQueue(q)
}

// freeSlot returns the lowest unoccupied in-flight slot, -1 when full.
func (d *Data) freeSlot() int {
	for i := range d.inFlight {
		if d.occupied&(1<<uint(i)) == 0 {
			return i
		}
	}
	return -1
}

// slotOf returns the in-flight slot holding h, -1 if h is not held.
func (d *Data) slotOf(h *mempool.ChunkHeader) int {
	for i := range d.inFlight {
		if d.occupied&(1<<uint(i)) != 0 && d.inFlight[i].Header() == h {
			return i
		}
	}
	return -1
}

// takeSlot moves the chunk out of slot i, freeing it.
func (d *Data) takeSlot(i int) mempool.SharedChunk {
	c := d.inFlight[i]
	d.inFlight[i] = mempool.SharedChunk{}
	d.occupied &^= 1 << uint(i)
	return c
}

// TryAllocate hands out a chunk for in-place payload construction. The
// hot path reuses the last sent chunk when the sender is its sole
// remaining owner and the new layout fits; otherwise a fresh chunk
// comes from the memory manager. Errors:
// api.ErrTooManyChunksAllocatedInParallel when the in-flight table is
// full, api.ErrNoMempoolsAvailable / api.ErrRunningOutOfChunks from the
// manager, api.ErrInvalidChunkParameters for bad alignments.
func (s ChunkSender) TryAllocate(origin api.UniquePortID, payloadSize, payloadAlignment, userHeaderSize, userHeaderAlignment uint32) (*mempool.ChunkHeader, error) {
	d := s.d
	settings, err := mempool.NewChunkSettings(payloadSize, payloadAlignment, userHeaderSize, userHeaderAlignment)
	if err != nil {
		return nil, err
	}
	slot := d.freeSlot()
	if slot < 0 {
		return nil, api.NewError(api.ErrCodeResourceExhausted, api.ErrTooManyChunksAllocatedInParallel,
			fmt.Sprintf("all %d in-flight slots occupied", len(d.inFlight)))
	}

	// Hot path: recycle the last sent chunk in place. It stays
	// referenced as the last sent chunk, so a subsequent
	// TryGetPreviousChunk still observes it.
	if d.lastSent.IsValid() && d.lastSent.ReuseFor(settings) {
		c := d.lastSent.Clone()
		h := c.Header()
		h.SetOriginID(origin)
		d.inFlight[slot] = c
		d.occupied |= 1 << uint(slot)
		return h, nil
	}

	c, err := d.mgr.GetChunkWithSettings(settings)
	if err != nil {
		return nil, err
	}
	h := c.Header()
	h.SetOriginID(origin)
	d.inFlight[slot] = c
	d.occupied |= 1 << uint(slot)
	return h, nil
}

// Release returns an unsent chunk. A header that is not in flight is
// reported to the error handler and nothing changes.
func (s ChunkSender) Release(h *mempool.ChunkHeader) {
	d := s.d
	i := d.slotOf(h)
	if i < 0 {
		api.ReportError(api.ChunkSenderInvalidChunkToFree, api.SeverityModerate,
			fmt.Sprintf("release of header %p that is not in flight", h))
		return
	}
	c := d.takeSlot(i)
	c.Release()
}

// Send stamps the next sequence number, retains the chunk in history
// (if configured), fans it out to every registered queue and keeps it
// as the last sent chunk. A header that is not in flight is reported to
// the error handler and nothing changes.
func (s ChunkSender) Send(h *mempool.ChunkHeader) {
	d := s.d
	i := d.slotOf(h)
	if i < 0 {
		api.ReportError(api.ChunkSenderInvalidChunkToSend, api.SeverityModerate,
			fmt.Sprintf("send of header %p that is not in flight", h))
		return
	}
	c := d.takeSlot(i)
	h.SetSequenceNumber(d.seq)
	d.seq++
	if d.distData.HistoryCapacity() > 0 {
		s.dist.PushHistory(c)
	}
	s.dist.DeliverToAllStoredQueues(c)
	old := d.lastSent
	d.lastSent = c
	old.Release()
}

// PushToHistory is Send without fan-out and without touching the
// last-sent slot: the chunk moves from in flight into the history ring
// only.
func (s ChunkSender) PushToHistory(h *mempool.ChunkHeader) {
	d := s.d
	i := d.slotOf(h)
	if i < 0 {
		api.ReportError(api.ChunkSenderInvalidChunkToPushToHistory, api.SeverityModerate,
			fmt.Sprintf("push to history of header %p that is not in flight", h))
		return
	}
	c := d.takeSlot(i)
	h.SetSequenceNumber(d.seq)
	d.seq++
	s.dist.AddToHistoryWithoutDelivery(c)
	c.Release()
}

// TryGetPreviousChunk borrows the last sent chunk's header, if any.
func (s ChunkSender) TryGetPreviousChunk() (*mempool.ChunkHeader, bool) {
	if !s.d.lastSent.IsValid() {
		return nil, false
	}
	return s.d.lastSent.Header(), true
}

// ReleaseAll drops every in-flight chunk, the last-sent chunk and the
// whole history. Registered queues stay registered; chunks already
// queued stay with their consumers. Used at publisher teardown.
func (s ChunkSender) ReleaseAll() {
	d := s.d
	for i := range d.inFlight {
		if d.occupied&(1<<uint(i)) != 0 {
			c := d.takeSlot(i)
			c.Release()
		}
	}
	d.lastSent.Release()
	s.dist.ClearHistory()
}
