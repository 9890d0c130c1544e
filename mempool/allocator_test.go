package mempool_test

import (
	"errors"
	"testing"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-ipc/api"
	"github.com/momentics/hioload-ipc/mempool"
)

func TestAllocatorAlignsEveryRegion(t *testing.T) {
	mem := make([]byte, 4096)
	alloc := mempool.NewAllocator(mem)

	for _, align := range []uintptr{1, 8, 64, 256} {
		p, err := alloc.Allocate(24, align)
		require.NoError(t, err)
		require.Zero(t, uintptr(p)%align, "region not %d-aligned", align)
	}
}

func TestAllocatorExhaustion(t *testing.T) {
	mem := make([]byte, 128)
	alloc := mempool.NewAllocator(mem)

	_, err := alloc.Allocate(64, 8)
	require.NoError(t, err)
	_, err = alloc.Allocate(128, 8)
	require.Error(t, err)
	require.True(t, errors.Is(err, api.ErrInvalidConfig))
}

func TestAllocatorRejectsBadArguments(t *testing.T) {
	alloc := mempool.NewAllocator(make([]byte, 64))

	_, err := alloc.Allocate(0, 8)
	require.Error(t, err)
	_, err = alloc.Allocate(8, 3)
	require.Error(t, err)
}

func TestAllocatorUsedAccountsPadding(t *testing.T) {
	mem := make([]byte, 1024)
	alloc := mempool.NewAllocator(mem)

	p1, err := alloc.Allocate(10, 1)
	require.NoError(t, err)
	p2, err := alloc.Allocate(8, 64)
	require.NoError(t, err)
	require.GreaterOrEqual(t, uintptr(p2)-uintptr(p1), uintptr(10))
	require.GreaterOrEqual(t, alloc.Used(), uintptr(18))
}
