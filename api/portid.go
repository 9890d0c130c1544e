// File: api/portid.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-unique port identity. Publishers stamp their port id into every
// chunk they emit so subscribers can attribute samples after the fact.

package api

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/google/uuid"
)

// UniquePortID identifies one publisher or subscriber port. The upper
// half is a per-process random salt, the lower half a process-local
// counter, so ports created by different processes mapping the same
// segment do not collide.
type UniquePortID uint64

// InvalidPortID is the zero value; freshly carved chunks carry it until
// a sender stamps them.
const InvalidPortID UniquePortID = 0

var (
	portSalt    = portSaltInit()
	portCounter atomic.Uint32
)

func portSaltInit() uint32 {
	id := uuid.New()
	salt := binary.LittleEndian.Uint32(id[:4])
	if salt == 0 {
		salt = 1
	}
	return salt
}

// NextUniquePortID hands out the next port identity. Safe for
// concurrent use.
func NextUniquePortID() UniquePortID {
	n := portCounter.Add(1)
	return UniquePortID(uint64(portSalt)<<32 | uint64(n))
}

// IsValid reports whether the id was produced by NextUniquePortID.
func (id UniquePortID) IsValid() bool { return id != InvalidPortID }
