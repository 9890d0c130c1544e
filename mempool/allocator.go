// File: mempool/allocator.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bump allocator over a flat byte range. Used exactly once per segment,
// at construction time, to carve pool storage and freelist bookkeeping;
// there is no per-chunk allocation and no free.

package mempool

import (
	"fmt"
	"unsafe"

	"github.com/momentics/hioload-ipc/api"
)

// Allocator hands out aligned regions of a fixed byte range.
type Allocator struct {
	mem    []byte
	offset uintptr
}

// NewAllocator wraps mem. The range stays owned by the caller; it must
// outlive everything carved from it.
func NewAllocator(mem []byte) *Allocator {
	return &Allocator{mem: mem}
}

// Allocate returns a pointer to size bytes aligned to align, or an
// error when the range is exhausted. align must be a power of two.
func (a *Allocator) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	if size == 0 || align == 0 || align&(align-1) != 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, api.ErrInvalidConfig,
			fmt.Sprintf("allocate(%d, %d): invalid size or alignment", size, align))
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(a.mem)))
	start := alignUp(base+a.offset, align) - base
	if start+size > uintptr(len(a.mem)) {
		return nil, api.NewError(api.ErrCodeResourceExhausted, api.ErrInvalidConfig,
			fmt.Sprintf("allocate(%d, %d): only %d bytes left", size, align, uintptr(len(a.mem))-a.offset))
	}
	a.offset = start + size
	return unsafe.Pointer(&a.mem[start]), nil
}

// Used reports how many bytes of the range have been consumed,
// including alignment padding.
func (a *Allocator) Used() uintptr { return a.offset }
