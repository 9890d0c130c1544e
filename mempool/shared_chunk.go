// File: mempool/shared_chunk.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SharedChunk: reference-counted chunk handle. The count lives in the
// chunk header itself; the handle carries only the header address and
// the manager used for the final range-lookup free, so no back pointer
// into a pool ever exists.

package mempool

// SharedChunk is a counted reference to one chunk. The zero value is
// invalid. Copying the struct does NOT add a reference; use Clone for
// that and Release exactly once per reference.
type SharedChunk struct {
	mgr *MemoryManager
	hdr *ChunkHeader
}

// IsValid reports whether the handle references a chunk.
func (c SharedChunk) IsValid() bool { return c.hdr != nil }

// Header exposes the chunk header; nil for an invalid handle.
func (c SharedChunk) Header() *ChunkHeader { return c.hdr }

// Clone adds a reference and returns an independent handle.
func (c SharedChunk) Clone() SharedChunk {
	if c.hdr != nil {
		c.hdr.refUp()
	}
	return c
}

// Release drops this handle's reference; the last release returns the
// chunk to its pool. The handle is invalid afterwards.
func (c *SharedChunk) Release() {
	if c.hdr == nil {
		return
	}
	h, mgr := c.hdr, c.mgr
	c.hdr, c.mgr = nil, nil
	if h.refDown() {
		mgr.freeChunk(h)
	}
}

// Equal compares the underlying chunk identity.
func (c SharedChunk) Equal(other SharedChunk) bool { return c.hdr == other.hdr }

// ReuseFor restamps the chunk for a new layout when this handle is the
// sole owner and the chunk's memory admits it. The reference count is
// checked atomically: holding one reference, the count can only fall as
// other holders drop out, so an observed 1 is stable. Returns false
// without touching the chunk otherwise.
func (c SharedChunk) ReuseFor(s ChunkSettings) bool {
	if c.hdr == nil || c.hdr.ReferenceCount() != 1 || !c.hdr.CanHold(s) {
		return false
	}
	c.hdr.restamp(s)
	return true
}
