// File: api/locking.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pluggable locking policies for containers that are shared between
// threads in some deployments and strictly single-threaded in others.

package api

import "sync"

// LockingPolicy guards a container's mutable state. Implementations must
// be usable as a value member without further initialization.
type LockingPolicy interface {
	Lock()
	Unlock()
}

// ThreadSafePolicy serializes all accesses with a mutex.
type ThreadSafePolicy struct {
	mu sync.Mutex
}

func (p *ThreadSafePolicy) Lock()   { p.mu.Lock() }
func (p *ThreadSafePolicy) Unlock() { p.mu.Unlock() }

// SingleThreadedPolicy is a no-op guard for containers owned by exactly
// one thread.
type SingleThreadedPolicy struct{}

func (SingleThreadedPolicy) Lock()   {}
func (SingleThreadedPolicy) Unlock() {}

var (
	_ LockingPolicy = (*ThreadSafePolicy)(nil)
	_ LockingPolicy = SingleThreadedPolicy{}
)
