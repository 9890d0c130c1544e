// File: mempool/chunk_header.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ChunkHeader is the in-band metadata prefix at offset 0 of every chunk.
// The struct layout is fixed-width and host-endian so that processes
// mapping the same segment agree on it byte for byte. Access always goes
// through raw pointers into pool storage, never through Go-managed
// copies.
//
// A uint32 back offset sits directly in front of the user payload; it
// recovers the header from a bare payload pointer. When the payload
// starts right after the header that word coincides with the
// userPayloadOffset field, otherwise it lives in the alignment padding
// (reserved explicitly when a user header is present).

package mempool

import (
	"sync/atomic"
	"unsafe"

	"github.com/momentics/hioload-ipc/api"
)

// ChunkHeader prefixes every chunk. The optional user header and the
// user payload follow at the recorded offsets.
type ChunkHeader struct {
	referenceCount       int64
	originID             uint64
	sequenceNumber       uint64
	chunkSize            uint32
	userHeaderSize       uint32
	userHeaderOffset     uint32
	userPayloadSize      uint32
	userPayloadAlignment uint32
	userPayloadOffset    uint32
}

// ChunkHeaderSize is the per-chunk overhead the memory manager adds on
// top of each configured pool size.
const ChunkHeaderSize = uint32(unsafe.Sizeof(ChunkHeader{}))

const (
	chunkHeaderAlignment = uint64(unsafe.Alignof(ChunkHeader{}))
	backOffsetSize       = uint32(unsafe.Sizeof(uint32(0)))
)

// ChunkSize returns the total chunk size including this header.
func (h *ChunkHeader) ChunkSize() uint32 { return h.chunkSize }

// UserPayloadSize returns the payload size requested at allocation.
func (h *ChunkHeader) UserPayloadSize() uint32 { return h.userPayloadSize }

// UserPayloadAlignment returns the payload alignment requested at
// allocation.
func (h *ChunkHeader) UserPayloadAlignment() uint32 { return h.userPayloadAlignment }

// UserHeaderSize returns the user-header size, api.NoUserHeaderSize if
// none was requested.
func (h *ChunkHeader) UserHeaderSize() uint32 { return h.userHeaderSize }

// OriginID returns the identity of the publisher port that produced the
// chunk.
func (h *ChunkHeader) OriginID() api.UniquePortID { return api.UniquePortID(h.originID) }

// SetOriginID stamps the producing port. Only the port holding the
// chunk in flight may call this.
func (h *ChunkHeader) SetOriginID(id api.UniquePortID) { h.originID = uint64(id) }

// SequenceNumber returns the per-publisher sequence number; it is
// assigned when the chunk is sent, not when it is allocated.
func (h *ChunkHeader) SequenceNumber() uint64 { return h.sequenceNumber }

// SetSequenceNumber stamps the send-time sequence number. Only the port
// holding the chunk in flight may call this.
func (h *ChunkHeader) SetSequenceNumber(seq uint64) { h.sequenceNumber = seq }

// UserHeader returns a pointer to the user-header region, nil when the
// chunk has none.
func (h *ChunkHeader) UserHeader() unsafe.Pointer {
	if h.userHeaderSize == api.NoUserHeaderSize {
		return nil
	}
	return unsafe.Add(unsafe.Pointer(h), h.userHeaderOffset)
}

// UserPayload returns a pointer to the payload region.
func (h *ChunkHeader) UserPayload() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(h), h.userPayloadOffset)
}

// UserPayloadBytes returns the payload as a byte slice aliasing the
// chunk memory.
func (h *ChunkHeader) UserPayloadBytes() []byte {
	return unsafe.Slice((*byte)(h.UserPayload()), h.userPayloadSize)
}

// FromUserPayload recovers the chunk header from a payload pointer
// previously obtained via UserPayload.
func FromUserPayload(payload unsafe.Pointer) *ChunkHeader {
	if payload == nil {
		return nil
	}
	off := *(*uint32)(unsafe.Add(payload, -int(backOffsetSize)))
	return (*ChunkHeader)(unsafe.Add(payload, -int(off)))
}

// ReferenceCount returns the current number of SharedChunk holders.
func (h *ChunkHeader) ReferenceCount() int64 {
	return atomic.LoadInt64(&h.referenceCount)
}

func (h *ChunkHeader) refUp() {
	atomic.AddInt64(&h.referenceCount, 1)
}

// refDown drops one reference and reports whether this was the last
// one. The atomic RMW makes the final holder synchronize with all prior
// writers.
func (h *ChunkHeader) refDown() bool {
	return atomic.AddInt64(&h.referenceCount, -1) == 0
}

// layoutOffsets places the user header and payload for settings s in a
// chunk starting at base.
func layoutOffsets(base uintptr, s ChunkSettings) (userHeaderOffset, userPayloadOffset uintptr) {
	pos := base + uintptr(ChunkHeaderSize)
	if s.userHeaderSize != api.NoUserHeaderSize {
		pos = alignUp(pos, uintptr(s.userHeaderAlignment))
		userHeaderOffset = pos - base
		pos += uintptr(s.userHeaderSize)
		pos += uintptr(backOffsetSize)
	}
	pos = alignUp(pos, uintptr(s.effectiveAlignment()))
	return userHeaderOffset, pos - base
}

// stamp writes a fresh header for settings into the chunk at p. Offsets
// derive from the chunk's actual address; RequiredChunkSize guarantees
// they fit.
func stamp(p unsafe.Pointer, chunkSize uint32, s ChunkSettings) *ChunkHeader {
	h := (*ChunkHeader)(p)
	base := uintptr(p)
	uhOff, pOff := layoutOffsets(base, s)

	h.chunkSize = chunkSize
	h.userHeaderSize = s.userHeaderSize
	h.userHeaderOffset = uint32(uhOff)
	h.userPayloadSize = s.userPayloadSize
	h.userPayloadAlignment = s.userPayloadAlignment
	h.userPayloadOffset = uint32(pOff)
	h.originID = uint64(api.InvalidPortID)
	h.sequenceNumber = 0

	// Back offset for FromUserPayload; coincides with the
	// userPayloadOffset field when the payload directly follows the
	// header.
	*(*uint32)(unsafe.Add(p, pOff-uintptr(backOffsetSize))) = uint32(pOff)
	return h
}

// CanHold reports whether this chunk's memory admits the requested
// layout, checked against the chunk's actual address.
func (h *ChunkHeader) CanHold(s ChunkSettings) bool {
	base := uintptr(unsafe.Pointer(h))
	_, pOff := layoutOffsets(base, s)
	return pOff+uintptr(s.userPayloadSize) <= uintptr(h.chunkSize)
}

// restamp rewrites the layout for a reused chunk; chunk size and
// reference count stay untouched (stamp never writes the count).
func (h *ChunkHeader) restamp(s ChunkSettings) {
	stamp(unsafe.Pointer(h), h.chunkSize, s)
}
