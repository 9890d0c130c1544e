package control_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-ipc/api"
	"github.com/momentics/hioload-ipc/mempool"
)

func newControlManager(t *testing.T) *mempool.MemoryManager {
	t.Helper()
	cfg := (&api.MePooConfig{}).AddMemPool(128, 8).AddMemPool(256, 8)
	alloc := mempool.NewAllocator(make([]byte, mempool.RequiredMemorySize(cfg)))
	mgr, err := mempool.NewMemoryManager(cfg, alloc, alloc)
	require.NoError(t, err)
	return mgr
}
