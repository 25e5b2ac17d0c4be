package memory

import (
	"context"
	"sync"
	"time"

	"adops/contexts/sales-pipeline/trigger-engine/domain/entities"
	"adops/contexts/sales-pipeline/trigger-engine/ports"
	"adops/internal/shared/tenant"
)

type cacheEntry struct {
	rules    []entities.Trigger
	loadedAt time.Time
}

type cacheKey struct {
	orgID string
	event string
}

// RuleCache fronts the trigger repository with a per-tenant TTL. Configuration
// writes invalidate synchronously; TTL expiry covers out-of-band changes.
type RuleCache struct {
	source ports.TriggerRepository
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

func NewRuleCache(source ports.TriggerRepository, ttl time.Duration) *RuleCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RuleCache{
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[cacheKey]cacheEntry),
	}
}

func (c *RuleCache) GetEnabledByEvent(ctx context.Context, tc tenant.Context, event string) ([]entities.Trigger, error) {
	key := cacheKey{orgID: tc.OrgID, event: event}

	c.mu.Lock()
	entry, exists := c.entries[key]
	c.mu.Unlock()
	if exists && c.now().Sub(entry.loadedAt) < c.ttl {
		return append([]entities.Trigger(nil), entry.rules...), nil
	}

	rules, err := c.source.ListEnabledByEvent(ctx, tc, event)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{rules: append([]entities.Trigger(nil), rules...), loadedAt: c.now()}
	c.mu.Unlock()
	return rules, nil
}

func (c *RuleCache) Invalidate(orgID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.orgID == orgID {
			delete(c.entries, key)
		}
	}
}
