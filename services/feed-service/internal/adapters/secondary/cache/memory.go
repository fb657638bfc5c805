package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
)

type memoryEntry struct {
	set       domain.VisibilitySet
	expiresAt time.Time
}

// MemoryVisibilityCache est le cache TTL local au process (mode sans Redis).
type MemoryVisibilityCache struct {
	clock   clockwork.Clock
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryVisibilityCache(clock clockwork.Clock) *MemoryVisibilityCache {
	return &MemoryVisibilityCache{clock: clock, entries: make(map[string]memoryEntry)}
}

func (c *MemoryVisibilityCache) Get(_ context.Context, viewerID string) (domain.VisibilitySet, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[viewerID]
	if !ok {
		return domain.VisibilitySet{}, false, nil
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, viewerID)
		return domain.VisibilitySet{}, false, nil
	}
	return e.set, true, nil
}

func (c *MemoryVisibilityCache) Set(_ context.Context, viewerID string, set domain.VisibilitySet, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[viewerID] = memoryEntry{set: set, expiresAt: c.clock.Now().Add(ttl)}
	return nil
}

func (c *MemoryVisibilityCache) Delete(_ context.Context, viewerIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range viewerIDs {
		delete(c.entries, id)
	}
	return nil
}
