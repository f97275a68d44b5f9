package cache

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-gnap/core"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is an in-process expiring cache. Entries are evicted lazily on
// read; there is no background reaper.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	nowFn   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m == nil {
		return nil, false, nil
	}
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if m.nowFn().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	copied := make([]byte, len(entry.data))
	copy(copied, entry.data)
	return copied, true, nil
}

func (m *Memory) SetWithTTL(_ context.Context, key string, data []byte, ttl time.Duration) error {
	if m == nil {
		return nil
	}
	copied := make([]byte, len(data))
	copy(copied, data)

	m.mu.Lock()
	m.entries[key] = memoryEntry{
		data:      copied,
		expiresAt: m.nowFn().Add(ttl),
	}
	m.mu.Unlock()
	return nil
}

// Clear drops every entry. Test helper.
func (m *Memory) Clear() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
}

var _ core.ExpiringCache = (*Memory)(nil)
