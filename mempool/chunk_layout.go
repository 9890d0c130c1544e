// File: mempool/chunk_layout.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ChunkSettings captures a validated allocation request and the worst
// case chunk size it needs. Offsets inside a concrete chunk depend on
// the chunk's actual address and are computed when the header is
// stamped; the required size here covers any slot address the pools can
// produce.

package mempool

import (
	"math"

	"github.com/momentics/hioload-ipc/api"
)

// ChunkSettings is a validated (payload, user header) layout request.
type ChunkSettings struct {
	userPayloadSize      uint32
	userPayloadAlignment uint32
	userHeaderSize       uint32
	userHeaderAlignment  uint32
	requiredChunkSize    uint32
}

// NewChunkSettings validates the request. Alignments must be powers of
// two; a zero-size user header must come with api.NoUserHeaderAlignment.
func NewChunkSettings(payloadSize, payloadAlignment, userHeaderSize, userHeaderAlignment uint32) (ChunkSettings, error) {
	if !isPowerOfTwo(payloadAlignment) {
		return ChunkSettings{}, api.NewError(api.ErrCodeInvalidArgument, api.ErrInvalidChunkParameters,
			"user payload alignment must be a power of two")
	}
	if userHeaderSize == api.NoUserHeaderSize {
		if userHeaderAlignment != api.NoUserHeaderAlignment {
			return ChunkSettings{}, api.NewError(api.ErrCodeInvalidArgument, api.ErrInvalidChunkParameters,
				"zero-size user header requires the no-user-header alignment")
		}
	} else if !isPowerOfTwo(userHeaderAlignment) {
		return ChunkSettings{}, api.NewError(api.ErrCodeInvalidArgument, api.ErrInvalidChunkParameters,
			"user header alignment must be a power of two")
	}

	s := ChunkSettings{
		userPayloadSize:      payloadSize,
		userPayloadAlignment: payloadAlignment,
		userHeaderSize:       userHeaderSize,
		userHeaderAlignment:  userHeaderAlignment,
	}
	required, ok := s.computeRequiredChunkSize()
	if !ok {
		return ChunkSettings{}, api.NewError(api.ErrCodeInvalidArgument, api.ErrInvalidChunkParameters,
			"requested layout exceeds the maximum chunk size")
	}
	s.requiredChunkSize = required
	return s, nil
}

// RequiredChunkSize is the smallest chunk that holds this layout at any
// header-aligned slot address.
func (s ChunkSettings) RequiredChunkSize() uint32 { return s.requiredChunkSize }

// UserPayloadSize returns the requested payload size.
func (s ChunkSettings) UserPayloadSize() uint32 { return s.userPayloadSize }

// effectiveAlignment is the payload alignment actually applied; weaker
// requests are promoted to the default.
func (s ChunkSettings) effectiveAlignment() uint32 {
	return maxU32(s.userPayloadAlignment, api.DefaultUserPayloadAlignment)
}

// computeRequiredChunkSize sizes the worst case: chunk slots are only
// guaranteed chunkHeaderAlignment-aligned, so any stronger alignment
// costs padding. The no-user-header path is exact; with a user header
// the payload padding is bounded by effectiveAlignment-1 since the user
// header may end at any byte.
func (s ChunkSettings) computeRequiredChunkSize() (uint32, bool) {
	effAlign := uint64(s.effectiveAlignment())
	required := uint64(ChunkHeaderSize)
	if s.userHeaderSize == api.NoUserHeaderSize {
		if effAlign > chunkHeaderAlignment {
			required += effAlign - chunkHeaderAlignment
		}
		required += uint64(s.userPayloadSize)
	} else {
		if uint64(s.userHeaderAlignment) > chunkHeaderAlignment {
			required += uint64(s.userHeaderAlignment) - chunkHeaderAlignment
		}
		required += uint64(s.userHeaderSize)
		required += uint64(backOffsetSize)
		required += effAlign - 1
		required += uint64(s.userPayloadSize)
	}
	if required > math.MaxUint32 {
		return 0, false
	}
	return uint32(required), true
}
