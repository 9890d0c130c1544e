// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Typed transport configuration with JSON loading, validation and
// reload listeners.

package control

import (
	"os"
	"sync"

	"github.com/sugawarayuuta/sonnet"

	"github.com/momentics/hioload-ipc/api"
)

// Config aggregates the construction-time configuration of one
// transport instance.
type Config struct {
	MemPools api.MePooConfig       `json:"memPools"`
	Sender   api.ChunkSenderConfig `json:"sender"`
	Queue    api.ChunkQueueConfig  `json:"queue"`
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.MemPools.Validate(); err != nil {
		return err
	}
	if err := c.Sender.Validate(); err != nil {
		return err
	}
	return c.Queue.Validate()
}

// ParseConfig decodes and validates a JSON document.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := sonnet.Unmarshal(data, &cfg); err != nil {
		return Config{}, api.NewError(api.ErrCodeInvalidArgument, api.ErrInvalidConfig, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a JSON config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(data)
}

// EncodeConfig renders cfg back to JSON.
func EncodeConfig(cfg Config) ([]byte, error) {
	return sonnet.Marshal(cfg)
}

// ConfigStore holds the active config with atomic snapshot and listener
// support. Pool and queue capacities are fixed at construction, so a
// stored update only affects transports built afterwards.
type ConfigStore struct {
	mu        sync.RWMutex
	config    Config
	listeners []func(Config)
}

// NewConfigStore initializes a store with cfg.
func NewConfigStore(cfg Config) *ConfigStore {
	return &ConfigStore{config: cfg}
}

// Snapshot returns the current config by value.
func (cs *ConfigStore) Snapshot() Config {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.config
}

// Set validates and stores a new config, then dispatches listeners.
func (cs *ConfigStore) Set(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cs.mu.Lock()
	cs.config = cfg
	listeners := append(([]func(Config))(nil), cs.listeners...)
	cs.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// OnReload registers a listener invoked after every successful Set.
func (cs *ConfigStore) OnReload(fn func(Config)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
