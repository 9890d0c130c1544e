package distributor_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-ipc/api"
	"github.com/momentics/hioload-ipc/chunkqueue"
	"github.com/momentics/hioload-ipc/distributor"
	"github.com/momentics/hioload-ipc/mempool"
)

const historyCapacity = 4

type fixture struct {
	mgr  *mempool.MemoryManager
	dist distributor.ChunkDistributor
}

func newFixture(t *testing.T, maxQueues uint32) *fixture {
	t.Helper()
	cfg := (&api.MePooConfig{}).AddMemPool(128, 64)
	alloc := mempool.NewAllocator(make([]byte, mempool.RequiredMemorySize(cfg)))
	mgr, err := mempool.NewMemoryManager(cfg, alloc, alloc)
	require.NoError(t, err)
	data := distributor.NewData(api.DiscardOldestChunk, maxQueues, historyCapacity, &api.ThreadSafePolicy{})
	return &fixture{mgr: mgr, dist: distributor.New(data)}
}

func (f *fixture) chunk(t *testing.T, tag uint64) mempool.SharedChunk {
	t.Helper()
	c, err := f.mgr.GetChunk(8, 8, api.NoUserHeaderSize, api.NoUserHeaderAlignment)
	require.NoError(t, err)
	*(*uint64)(c.Header().UserPayload()) = tag
	return c
}

func newTestQueue(t *testing.T, capacity uint32) *chunkqueue.Data {
	t.Helper()
	q, err := chunkqueue.NewData(api.ChunkQueueConfig{
		Capacity:   capacity,
		FullPolicy: api.DiscardOldestData,
		Variant:    api.SoFiSPSC,
	})
	require.NoError(t, err)
	return q
}

func popTags(t *testing.T, q *chunkqueue.Data) []uint64 {
	t.Helper()
	popper := chunkqueue.NewPopper(q)
	var tags []uint64
	for {
		c, ok := popper.TryPop()
		if !ok {
			return tags
		}
		tags = append(tags, *(*uint64)(c.Header().UserPayload()))
		c.Release()
	}
}

func TestAddQueueIsIdempotent(t *testing.T) {
	f := newFixture(t, 4)
	q := newTestQueue(t, 8)

	require.NoError(t, f.dist.TryAddQueue(q, 0))
	require.NoError(t, f.dist.TryAddQueue(q, 0))

	c := f.chunk(t, 7)
	f.dist.DeliverToAllStoredQueues(c)
	c.Release()

	require.Equal(t, []uint64{7}, popTags(t, q), "double registration must not double deliver")
}

func TestAddQueueRejectsNil(t *testing.T) {
	f := newFixture(t, 4)
	require.Error(t, f.dist.TryAddQueue(nil, 0))
}

func TestQueueContainerOverflow(t *testing.T) {
	f := newFixture(t, 2)
	require.NoError(t, f.dist.TryAddQueue(newTestQueue(t, 2), 0))
	require.NoError(t, f.dist.TryAddQueue(newTestQueue(t, 2), 0))

	var reported []api.RuntimeErrorKind
	restore := api.SetTemporaryErrorHandler(func(kind api.RuntimeErrorKind, _ api.Severity, _ string) {
		reported = append(reported, kind)
	})
	defer restore()

	err := f.dist.TryAddQueue(newTestQueue(t, 2), 0)
	require.Error(t, err)
	require.True(t, errors.Is(err, api.ErrQueueContainerOverflow))
	require.Equal(t, []api.RuntimeErrorKind{api.DistributorQueueContainerOverflow}, reported)
}

func TestRemoveQueueStopsDelivery(t *testing.T) {
	f := newFixture(t, 4)
	q1 := newTestQueue(t, 8)
	q2 := newTestQueue(t, 8)
	require.NoError(t, f.dist.TryAddQueue(q1, 0))
	require.NoError(t, f.dist.TryAddQueue(q2, 0))
	require.True(t, f.dist.HasStoredQueues())

	require.True(t, f.dist.RemoveQueue(q1))
	require.False(t, f.dist.RemoveQueue(q1), "second removal must report absence")

	c := f.chunk(t, 1)
	f.dist.DeliverToAllStoredQueues(c)
	c.Release()

	require.Empty(t, popTags(t, q1))
	require.Equal(t, []uint64{1}, popTags(t, q2))
}

func TestLateJoinerReceivesHistoryOldestFirst(t *testing.T) {
	f := newFixture(t, 4)

	for tag := uint64(0); tag < 6; tag++ {
		c := f.chunk(t, tag)
		f.dist.AddToHistoryWithoutDelivery(c)
		c.Release()
	}
	require.Equal(t, uint64(historyCapacity), f.dist.HistorySize())

	q := newTestQueue(t, 8)
	require.NoError(t, f.dist.TryAddQueue(q, historyCapacity))

	// Ring held 2..5; all four are replayed in FIFO order.
	require.Equal(t, []uint64{2, 3, 4, 5}, popTags(t, q))
}

func TestLateJoinerHistoryIsCappedByRequest(t *testing.T) {
	f := newFixture(t, 4)

	for tag := uint64(0); tag < 4; tag++ {
		c := f.chunk(t, tag)
		f.dist.AddToHistoryWithoutDelivery(c)
		c.Release()
	}

	q := newTestQueue(t, 8)
	require.NoError(t, f.dist.TryAddQueue(q, 2))
	require.Equal(t, []uint64{2, 3}, popTags(t, q), "only the requested amount, newest part of the ring")
}

func TestHistoryOverflowReleasesOldest(t *testing.T) {
	f := newFixture(t, 4)

	for tag := uint64(0); tag < 10; tag++ {
		c := f.chunk(t, tag)
		f.dist.AddToHistoryWithoutDelivery(c)
		c.Release()
	}
	require.Equal(t, uint64(historyCapacity), f.dist.HistorySize())
	require.Equal(t, uint32(historyCapacity), f.mgr.GetMemPoolInfo(0).UsedChunks,
		"evicted history entries must return to the pool")

	f.dist.ClearHistory()
	require.Equal(t, uint64(0), f.dist.HistorySize())
	require.Equal(t, uint32(0), f.mgr.GetMemPoolInfo(0).UsedChunks)
}

func TestDeliverFansOutToAllQueues(t *testing.T) {
	f := newFixture(t, 4)
	queues := []*chunkqueue.Data{newTestQueue(t, 8), newTestQueue(t, 8), newTestQueue(t, 8)}
	for _, q := range queues {
		require.NoError(t, f.dist.TryAddQueue(q, 0))
	}

	for tag := uint64(0); tag < 3; tag++ {
		c := f.chunk(t, tag)
		f.dist.DeliverToAllStoredQueues(c)
		c.Release()
	}

	for _, q := range queues {
		require.Equal(t, []uint64{0, 1, 2}, popTags(t, q))
	}
	require.Equal(t, uint32(0), f.mgr.GetMemPoolInfo(0).UsedChunks,
		"delivery alone must not retain chunks")
}

func TestSlowSubscriberDropsOldestUnderDiscardPolicy(t *testing.T) {
	f := newFixture(t, 4)
	q := newTestQueue(t, 2)
	require.NoError(t, f.dist.TryAddQueue(q, 0))

	for tag := uint64(0); tag < 5; tag++ {
		c := f.chunk(t, tag)
		f.dist.DeliverToAllStoredQueues(c)
		c.Release()
	}

	require.Equal(t, []uint64{3, 4}, popTags(t, q))
	require.Equal(t, uint32(0), f.mgr.GetMemPoolInfo(0).UsedChunks,
		"dropped chunks must return to the pool")
}
