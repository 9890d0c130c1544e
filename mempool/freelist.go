// File: mempool/freelist.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Lock-free index freelist backing one MemPool. A Treiber stack over a
// preallocated next[] array; the head packs a 32-bit cycle tag next to
// the top index, so a CAS that raced through pop/push of the same index
// cannot succeed (ABA). A per-index free marker catches double frees
// before they corrupt the list.
//
// Both arrays are carved from the management allocator, never from the
// Go heap, so the freelist can live inside a shared mapping.

package mempool

import (
	"sync/atomic"
	"unsafe"
)

const invalidIndex = ^uint32(0)

type indexFreeList struct {
	head   atomic.Uint64 // cycle tag (high 32) | top index (low 32)
	next   []uint32
	inFree []uint32
}

func packHead(tag uint32, index uint32) uint64 {
	return uint64(tag)<<32 | uint64(index)
}

func headTag(h uint64) uint32   { return uint32(h >> 32) }
func headIndex(h uint64) uint32 { return uint32(h) }

// newIndexFreeList carves bookkeeping for capacity indices from mgmt and
// pushes all of them.
func newIndexFreeList(capacity uint32, mgmt *Allocator) (*indexFreeList, error) {
	const u32size = unsafe.Sizeof(uint32(0))
	nextMem, err := mgmt.Allocate(uintptr(capacity)*u32size, unsafe.Alignof(uint32(0)))
	if err != nil {
		return nil, err
	}
	freeMem, err := mgmt.Allocate(uintptr(capacity)*u32size, unsafe.Alignof(uint32(0)))
	if err != nil {
		return nil, err
	}
	fl := &indexFreeList{
		next:   unsafe.Slice((*uint32)(nextMem), capacity),
		inFree: unsafe.Slice((*uint32)(freeMem), capacity),
	}
	for i := uint32(0); i < capacity; i++ {
		if i+1 < capacity {
			fl.next[i] = i + 1
		} else {
			fl.next[i] = invalidIndex
		}
		fl.inFree[i] = 1
	}
	fl.head.Store(packHead(0, 0))
	return fl, nil
}

// pop removes and returns the top index; ok is false when the list is
// empty.
func (fl *indexFreeList) pop() (uint32, bool) {
	for {
		h := fl.head.Load()
		idx := headIndex(h)
		if idx == invalidIndex {
			return 0, false
		}
		nxt := atomic.LoadUint32(&fl.next[idx])
		if fl.head.CompareAndSwap(h, packHead(headTag(h)+1, nxt)) {
			atomic.StoreUint32(&fl.inFree[idx], 0)
			return idx, true
		}
	}
}

// push returns idx to the list; false signals the index was already
// free (double free).
func (fl *indexFreeList) push(idx uint32) bool {
	if idx >= uint32(len(fl.next)) {
		return false
	}
	if !atomic.CompareAndSwapUint32(&fl.inFree[idx], 0, 1) {
		return false
	}
	for {
		h := fl.head.Load()
		atomic.StoreUint32(&fl.next[idx], headIndex(h))
		if fl.head.CompareAndSwap(h, packHead(headTag(h)+1, idx)) {
			return true
		}
	}
}
