package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemorySnapshotCache is the in-process fallback when Redis is down
// or disabled.
type MemorySnapshotCache struct {
	entries sync.Map
	ttl     time.Duration
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemorySnapshotCache(ttl time.Duration) *MemorySnapshotCache {
	return &MemorySnapshotCache{ttl: ttl}
}

func (m *MemorySnapshotCache) Get(ctx context.Context, key string, out any) (bool, error) {
	val, ok := m.entries.Load(key)
	if !ok {
		return false, nil
	}
	entry := val.(memoryEntry)
	if time.Now().After(entry.expiresAt) {
		m.entries.Delete(key)
		return false, nil
	}
	if err := json.Unmarshal(entry.data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MemorySnapshotCache) Set(ctx context.Context, key string, val any) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	m.entries.Store(key, memoryEntry{data: data, expiresAt: time.Now().Add(m.ttl)})
	return nil
}

func (m *MemorySnapshotCache) Delete(ctx context.Context, key string) error {
	m.entries.Delete(key)
	return nil
}
