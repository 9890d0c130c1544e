// File: mempool/mempool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// MemPool: one fixed-chunk-size pool. Chunk storage and freelist
// bookkeeping are carved from the caller's allocators at construction;
// afterwards getChunk/freeChunk are allocation-free and lock-free.

package mempool

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/momentics/hioload-ipc/api"
)

// MemPool hands out fixed-size chunks from a contiguous slot array.
type MemPool struct {
	chunkSize  uint32
	numChunks  uint32
	rawMemory  unsafe.Pointer
	freeList   *indexFreeList
	usedChunks atomic.Uint32
	minFree    atomic.Uint32
}

// MemPoolInfo is a point-in-time usage snapshot.
type MemPoolInfo struct {
	ChunkSize  uint32
	NumChunks  uint32
	UsedChunks uint32
	MinFree    uint32
}

// newMemPool carves numChunks slots of chunkSize bytes from chunkAlloc
// and the freelist from mgmtAlloc.
func newMemPool(chunkSize, numChunks uint32, mgmtAlloc, chunkAlloc *Allocator) (*MemPool, error) {
	raw, err := chunkAlloc.Allocate(uintptr(chunkSize)*uintptr(numChunks), uintptr(chunkHeaderAlignment))
	if err != nil {
		return nil, err
	}
	fl, err := newIndexFreeList(numChunks, mgmtAlloc)
	if err != nil {
		return nil, err
	}
	p := &MemPool{
		chunkSize: chunkSize,
		numChunks: numChunks,
		rawMemory: raw,
		freeList:  fl,
	}
	p.minFree.Store(numChunks)
	return p, nil
}

// ChunkSize returns the total chunk size including the chunk header.
func (p *MemPool) ChunkSize() uint32 { return p.chunkSize }

// NumChunks returns the pool capacity.
func (p *MemPool) NumChunks() uint32 { return p.numChunks }

func (p *MemPool) chunkAt(idx uint32) unsafe.Pointer {
	return unsafe.Add(p.rawMemory, uintptr(idx)*uintptr(p.chunkSize))
}

// getChunk pops a free chunk, nil when the pool is exhausted.
func (p *MemPool) getChunk() unsafe.Pointer {
	idx, ok := p.freeList.pop()
	if !ok {
		return nil
	}
	used := p.usedChunks.Add(1)
	p.noteFree(p.numChunks - used)
	return p.chunkAt(idx)
}

// noteFree lowers the low-water mark if free undercuts it.
func (p *MemPool) noteFree(free uint32) {
	for {
		cur := p.minFree.Load()
		if free >= cur || p.minFree.CompareAndSwap(cur, free) {
			return
		}
	}
}

// freeChunk returns ptr to the freelist. A pointer outside the slot
// array or off a slot boundary is a fatal invariant violation; an index
// that is already free is reported as a possible double free. Neither
// mutates pool state.
func (p *MemPool) freeChunk(ptr unsafe.Pointer) {
	base := uintptr(p.rawMemory)
	addr := uintptr(ptr)
	span := uintptr(p.chunkSize) * uintptr(p.numChunks)
	if addr < base || addr >= base+span {
		api.ReportError(api.MempoolForeignChunk, api.SeverityFatal,
			fmt.Sprintf("chunk %#x outside pool range [%#x, %#x)", addr, base, base+span))
		return
	}
	off := addr - base
	if off%uintptr(p.chunkSize) != 0 {
		api.ReportError(api.MempoolForeignChunk, api.SeverityFatal,
			fmt.Sprintf("chunk %#x not aligned to a %d byte slot", addr, p.chunkSize))
		return
	}
	if !p.freeList.push(uint32(off / uintptr(p.chunkSize))) {
		api.ReportError(api.MempoolPossibleDoubleFree, api.SeveritySevere,
			fmt.Sprintf("chunk %#x already free", addr))
		return
	}
	p.usedChunks.Add(^uint32(0))
}

// contains reports whether ptr lies inside this pool's slot array.
func (p *MemPool) contains(ptr unsafe.Pointer) bool {
	base := uintptr(p.rawMemory)
	addr := uintptr(ptr)
	return addr >= base && addr < base+uintptr(p.chunkSize)*uintptr(p.numChunks)
}

// Info returns the usage snapshot of this pool.
func (p *MemPool) Info() MemPoolInfo {
	return MemPoolInfo{
		ChunkSize:  p.chunkSize,
		NumChunks:  p.numChunks,
		UsedChunks: p.usedChunks.Load(),
		MinFree:    p.minFree.Load(),
	}
}
