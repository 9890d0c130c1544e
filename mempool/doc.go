// Package mempool
// Author: momentics <momentics@gmail.com>
//
// Segmented fixed-size chunk pools for the hioload-ipc transport.
// A MemoryManager routes each allocation to the smallest pool whose
// chunks can hold the requested user-header/payload layout; every chunk
// carries an in-band ChunkHeader and is handed out as a reference-counted
// SharedChunk. All pool bookkeeping lives in memory carved from caller
// supplied allocators, so the whole structure can be placed into a
// shared mapping.
// See mempool.go, memory_manager.go, chunk_header.go for details.
package mempool
