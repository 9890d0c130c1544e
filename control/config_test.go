package control_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-ipc/api"
	"github.com/momentics/hioload-ipc/control"
)

func validConfig() control.Config {
	return control.Config{
		MemPools: *(&api.MePooConfig{}).AddMemPool(128, 20).AddMemPool(256, 20),
		Sender: api.ChunkSenderConfig{
			TooSlowPolicy:   api.DiscardOldestChunk,
			HistoryCapacity: 4,
			MaxInFlight:     8,
			MaxQueues:       16,
		},
		Queue: api.ChunkQueueConfig{
			Capacity:   20,
			FullPolicy: api.DiscardOldestData,
			Variant:    api.SoFiSPSC,
		},
	}
}

func TestConfigJSONRoundTrip(t *testing.T) {
	cfg := validConfig()
	data, err := control.EncodeConfig(cfg)
	require.NoError(t, err)

	parsed, err := control.ParseConfig(data)
	require.NoError(t, err)
	require.Equal(t, cfg, parsed)
}

func TestParseConfigRejectsGarbage(t *testing.T) {
	_, err := control.ParseConfig([]byte("{not json"))
	require.Error(t, err)
}

func TestParseConfigRejectsInvalidSections(t *testing.T) {
	doc := `{
		"memPools": {"entries": [{"size": 256, "chunkCount": 10}, {"size": 128, "chunkCount": 10}]},
		"sender": {"tooSlowPolicy": 0, "historyCapacity": 0, "maxInFlight": 8, "maxQueues": 8},
		"queue": {"capacity": 8, "fullPolicy": 0, "variant": 0}
	}`
	_, err := control.ParseConfig([]byte(doc))
	require.Error(t, err, "descending pool sizes must be rejected")
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transport.json")
	data, err := control.EncodeConfig(validConfig())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := control.LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.MemPools.Entries, 2)

	_, err = control.LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestConfigStoreSnapshotAndReload(t *testing.T) {
	store := control.NewConfigStore(validConfig())

	var reloaded []control.Config
	store.OnReload(func(cfg control.Config) { reloaded = append(reloaded, cfg) })

	next := validConfig()
	next.Sender.HistoryCapacity = 8
	require.NoError(t, store.Set(next))
	require.Len(t, reloaded, 1)
	require.Equal(t, uint32(8), store.Snapshot().Sender.HistoryCapacity)

	bad := validConfig()
	bad.Sender.MaxInFlight = 0
	require.Error(t, store.Set(bad))
	require.Len(t, reloaded, 1, "failed Set must not dispatch listeners")
}
