package cache

import (
	"context"
	"sync"
	"time"

	"github.com/project-tktt/community-hub/internal/common/clock"
)

type entry struct {
	value     []byte
	fetchedAt time.Time
}

// Memory is a process-lifetime TTL map. Stale entries are ignored on read but
// stay in the map until overwritten or cleared.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   clock.Clock
	entries map[string]entry
}

// NewMemory creates an in-memory store
func NewMemory(ttl time.Duration, c clock.Clock) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if c == nil {
		c = clock.Real{}
	}
	return &Memory{
		ttl:     ttl,
		clock:   c,
		entries: make(map[string]entry),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || m.clock.Now().Sub(e.fetchedAt) >= m.ttl {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.entries[key] = entry{value: value, fetchedAt: m.clock.Now()}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
	return nil
}
