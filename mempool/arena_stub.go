//go:build !linux

// File: mempool/arena_stub.go
// Package mempool
// Author: momentics <momentics@gmail.com>
//
// Portable arena fallback: plain heap memory, single-process only.

package mempool

// Arena is a flat byte range backing one segment's pools.
type Arena struct {
	mem []byte
}

// NewSharedArena allocates size bytes. Without mmap support the arena
// is process-private.
func NewSharedArena(size int) (*Arena, error) {
	return &Arena{mem: make([]byte, size)}, nil
}

// Bytes exposes the range.
func (a *Arena) Bytes() []byte { return a.mem }

// Allocator returns a fresh bump allocator over the whole range.
func (a *Arena) Allocator() *Allocator { return NewAllocator(a.mem) }

// Close releases the range.
func (a *Arena) Close() error {
	a.mem = nil
	return nil
}
