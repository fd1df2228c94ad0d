/*
Package cache holds consolidated rules per slot so that hot evaluation
paths don't re-group raw records on every request.

PURPOSE:
  Grouping is a pure function of a slot's records, so its output can be
  cached until the records change. Writers (PUT rules, DELETE slot,
  scenario load) invalidate; readers go through Loader.

BACKENDS:
  - Memory: patrickmn/go-cache, per-process, TTL with periodic cleanup
  - Redis:  redis/go-redis, shared between replicas, JSON values

Cache failures never fail a request: a broken backend degrades to a miss
and the rules are rebuilt from the store.

SEE ALSO:
  - loader.go: read-through Loader used by the API and the warmer
  - regulation/group.go: what is being cached
*/
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/warp/curbside/regulation"
)

// RuleCache stores consolidated rules keyed by slot.
type RuleCache interface {
	// Get returns the cached rules and true, or nil and false on a miss.
	Get(ctx context.Context, id regulation.SlotID) ([]regulation.ConsolidatedRule, bool)
	Set(ctx context.Context, id regulation.SlotID, rules []regulation.ConsolidatedRule)
	Delete(ctx context.Context, id regulation.SlotID)
	Clear(ctx context.Context)
	// Backend names the implementation for metrics and logs.
	Backend() string
	Close() error
}

// DefaultTTL is used when a cache is created with ttl <= 0.
const DefaultTTL = 10 * time.Minute

// =============================================================================
// MEMORY CACHE
// =============================================================================

// Memory is an in-process RuleCache.
type Memory struct {
	store *gocache.Cache
}

var _ RuleCache = (*Memory)(nil)

// NewMemory creates a memory cache whose entries expire after ttl.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{store: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) Get(_ context.Context, id regulation.SlotID) ([]regulation.ConsolidatedRule, bool) {
	v, found := m.store.Get(string(id))
	if !found {
		return nil, false
	}
	rules, ok := v.([]regulation.ConsolidatedRule)
	return rules, ok
}

func (m *Memory) Set(_ context.Context, id regulation.SlotID, rules []regulation.ConsolidatedRule) {
	m.store.SetDefault(string(id), rules)
}

func (m *Memory) Delete(_ context.Context, id regulation.SlotID) {
	m.store.Delete(string(id))
}

func (m *Memory) Clear(_ context.Context) {
	m.store.Flush()
}

func (m *Memory) Backend() string { return "memory" }

func (m *Memory) Close() error { return nil }

// Len returns the number of live entries.
func (m *Memory) Len() int { return m.store.ItemCount() }
