//go:build linux

// File: mempool/arena_linux.go
// Package mempool
// Author: momentics <momentics@gmail.com>
//
// Linux arena backing: an anonymous MAP_SHARED mapping, so pool storage
// carved from it survives fork and can be handed to child processes.

package mempool

import (
	"golang.org/x/sys/unix"
)

// Arena is a flat byte range backing one segment's pools.
type Arena struct {
	mem []byte
}

// NewSharedArena maps size bytes of anonymous shared memory.
func NewSharedArena(size int) (*Arena, error) {
	mem, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, err
	}
	return &Arena{mem: mem}, nil
}

// Bytes exposes the mapped range.
func (a *Arena) Bytes() []byte { return a.mem }

// Allocator returns a fresh bump allocator over the whole range.
func (a *Arena) Allocator() *Allocator { return NewAllocator(a.mem) }

// Close unmaps the arena. Everything carved from it becomes invalid.
func (a *Arena) Close() error {
	if a.mem == nil {
		return nil
	}
	mem := a.mem
	a.mem = nil
	return unix.Munmap(mem)
}
