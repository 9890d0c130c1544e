// Package chunkqueue
// Author: momentics <momentics@gmail.com>
//
// Bounded queues of SharedChunk references between one distributor and
// one subscriber. The backing ring has safe-overflow semantics: pushing
// onto a full ring can reclaim the oldest element instead of failing,
// which keeps slow subscribers from wedging publishers. Producer-side
// concurrency is a construction-time choice (SPSC wait-free or MPSC
// with a producer mutex); the consumer side is always a single popper.
package chunkqueue
