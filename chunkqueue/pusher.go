// File: chunkqueue/pusher.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package chunkqueue

import "github.com/momentics/hioload-ipc/mempool"

// Pusher is the producer-side view of a queue. Distributors hold one
// per registered queue.
type Pusher struct {
	d *Data
}

// NewPusher wraps q.
func NewPusher(q *Data) Pusher { return Pusher{d: q} }

// Push appends c under the queue's own full policy; see Data.TryPush.
func (p Pusher) Push(c mempool.SharedChunk) (discarded mempool.SharedChunk, ok bool) {
	return p.d.TryPush(c)
}

// Queue exposes the underlying queue data.
func (p Pusher) Queue() *Data { return p.d }
