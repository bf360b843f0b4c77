package statestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/coocood/freecache"
)

const (
	// freecache refuses entries above 1/1024 of its size, so 64MB keeps
	// room for a 64KB state, a full plan with a year of progress
	defaultMemoryCacheSize = 64 * 1024 * 1024
	MaxMemoryEntrySize     = defaultMemoryCacheSize/1024 - freecache.ENTRY_HDR_SIZE
)

var ErrStateTooLarge = errors.New("state too large for the memory backend")

// MemoryBackend keeps the state in process memory only. Nothing survives
// a restart; it is meant for trying the tracker out and for tests.
type MemoryBackend struct {
	cache *freecache.Cache
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		cache: freecache.NewCache(defaultMemoryCacheSize),
	}
}

func (m *MemoryBackend) Name() string {
	return "memory"
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	blob, err := m.cache.Get([]byte(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("memory get [%s]: %w", key, err)
	}
	return blob, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, blob []byte) error {
	if len(key)+len(blob) > MaxMemoryEntrySize {
		return fmt.Errorf("memory set [%s], %d bytes: %w", key, len(blob), ErrStateTooLarge)
	}
	// no expiry
	if err := m.cache.Set([]byte(key), blob, 0); err != nil {
		return fmt.Errorf("memory set [%s]: %w", key, err)
	}
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.cache.Del([]byte(key))
	return nil
}
