// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for transport monitoring.
// Exposes counters in a thread-safe map with dynamic registration.

package control

import (
	"fmt"
	"sync"
	"time"

	"github.com/momentics/hioload-ipc/mempool"
)

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// ObserveMemoryManager publishes per-pool usage gauges under
// "<prefix>.pool<i>.*". Call it from a monitoring tick.
func (mr *MetricsRegistry) ObserveMemoryManager(prefix string, mgr *mempool.MemoryManager) {
	for i, info := range mgr.Info() {
		base := fmt.Sprintf("%s.pool%d", prefix, i)
		mr.Set(base+".chunkSize", info.ChunkSize)
		mr.Set(base+".numChunks", info.NumChunks)
		mr.Set(base+".usedChunks", info.UsedChunks)
		mr.Set(base+".minFree", info.MinFree)
	}
}
