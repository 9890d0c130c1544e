// File: mempool/memory_manager.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// MemoryManager: ordered pool set with smallest-sufficient-pool routing.
// Configured sizes are user chunk sizes; the in-band chunk header is
// added when the pools are carved, so a configured 256-byte pool really
// holds 256 usable bytes per chunk.

package mempool

import (
	"fmt"
	"sort"
	"unsafe"

	"github.com/momentics/hioload-ipc/api"
)

// MemoryManager owns all pools of one segment.
type MemoryManager struct {
	pools []*MemPool
}

// NewMemoryManager validates cfg and carves every pool: freelist
// bookkeeping from mgmtAlloc, chunk storage from chunkAlloc. Both may
// wrap the same byte range.
func NewMemoryManager(cfg *api.MePooConfig, mgmtAlloc, chunkAlloc *Allocator) (*MemoryManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &MemoryManager{pools: make([]*MemPool, 0, len(cfg.Entries))}
	for _, e := range cfg.Entries {
		p, err := newMemPool(e.Size+ChunkHeaderSize, e.ChunkCount, mgmtAlloc, chunkAlloc)
		if err != nil {
			return nil, err
		}
		m.pools = append(m.pools, p)
	}
	return m, nil
}

// RequiredMemorySize returns a byte count sufficient to back cfg with a
// single arena, including freelist bookkeeping and alignment slop.
func RequiredMemorySize(cfg *api.MePooConfig) uintptr {
	var total uintptr
	for _, e := range cfg.Entries {
		total += uintptr(e.Size+ChunkHeaderSize) * uintptr(e.ChunkCount)
		total += 2 * uintptr(e.ChunkCount) * unsafe.Sizeof(uint32(0))
		total += 2 * uintptr(chunkHeaderAlignment)
	}
	return total
}

// GetChunk allocates the smallest sufficient chunk and stamps its
// header for the requested layout. Errors: api.ErrInvalidChunkParameters
// for bad alignments, api.ErrNoMempoolsAvailable when no pool is large
// enough, api.ErrRunningOutOfChunks when the selected pool is empty.
func (m *MemoryManager) GetChunk(payloadSize, payloadAlignment, userHeaderSize, userHeaderAlignment uint32) (SharedChunk, error) {
	settings, err := NewChunkSettings(payloadSize, payloadAlignment, userHeaderSize, userHeaderAlignment)
	if err != nil {
		return SharedChunk{}, err
	}
	return m.GetChunkWithSettings(settings)
}

// GetChunkWithSettings is GetChunk for a pre-validated layout.
func (m *MemoryManager) GetChunkWithSettings(settings ChunkSettings) (SharedChunk, error) {
	required := settings.RequiredChunkSize()
	i := sort.Search(len(m.pools), func(i int) bool {
		return m.pools[i].ChunkSize() >= required
	})
	if i == len(m.pools) {
		return SharedChunk{}, api.NewError(api.ErrCodeCapacityExceeded, api.ErrNoMempoolsAvailable,
			fmt.Sprintf("no mempool for a %d byte chunk, largest is %d",
				required, m.pools[len(m.pools)-1].ChunkSize())).
			WithContext("requiredChunkSize", required)
	}
	pool := m.pools[i]
	raw := pool.getChunk()
	if raw == nil {
		return SharedChunk{}, api.NewError(api.ErrCodeResourceExhausted, api.ErrRunningOutOfChunks,
			fmt.Sprintf("mempool with chunk size %d has no free chunks", pool.ChunkSize())).
			WithContext("chunkSize", pool.ChunkSize())
	}
	h := stamp(raw, pool.ChunkSize(), settings)
	h.referenceCount = 1
	return SharedChunk{mgr: m, hdr: h}, nil
}

// freeChunk returns a chunk located by pointer-range lookup; the handle
// layer calls this when the last reference drops. A header belonging to
// no pool is a fatal invariant violation.
func (m *MemoryManager) freeChunk(h *ChunkHeader) {
	ptr := unsafe.Pointer(h)
	for _, p := range m.pools {
		if p.contains(ptr) {
			p.freeChunk(ptr)
			return
		}
	}
	api.ReportError(api.MempoolForeignChunk, api.SeverityFatal,
		fmt.Sprintf("chunk %p belongs to no configured mempool", ptr))
}

// NumberOfMemPools returns the pool count.
func (m *MemoryManager) NumberOfMemPools() int { return len(m.pools) }

// GetMemPoolInfo returns the usage snapshot of pool i.
func (m *MemoryManager) GetMemPoolInfo(i int) MemPoolInfo {
	return m.pools[i].Info()
}

// Info snapshots all pools, ascending by chunk size.
func (m *MemoryManager) Info() []MemPoolInfo {
	out := make([]MemPoolInfo, len(m.pools))
	for i, p := range m.pools {
		out[i] = p.Info()
	}
	return out
}
