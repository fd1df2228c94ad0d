package cache

import (
	"context"

	"github.com/warp/curbside/metrics"
	"github.com/warp/curbside/regulation"
)

// Loader reads consolidated rules through a RuleCache, falling back to the
// store and regrouping on a miss.
type Loader struct {
	store regulation.RuleStore
	cache RuleCache
}

// NewLoader builds a Loader. A nil cache disables caching.
func NewLoader(store regulation.RuleStore, cache RuleCache) *Loader {
	return &Loader{store: store, cache: cache}
}

// Rules returns the consolidated rules of a slot.
func (l *Loader) Rules(ctx context.Context, id regulation.SlotID) ([]regulation.ConsolidatedRule, error) {
	if l.cache != nil {
		rules, hit := l.cache.Get(ctx, id)
		metrics.RecordCacheLookup(l.cache.Backend(), hit)
		if hit {
			return rules, nil
		}
	}
	return l.Refresh(ctx, id)
}

// Refresh rebuilds a slot's rules from the store and caches them.
func (l *Loader) Refresh(ctx context.Context, id regulation.SlotID) ([]regulation.ConsolidatedRule, error) {
	rules, err := regulation.LoadRules(ctx, l.store, id)
	if err != nil {
		return nil, err
	}
	metrics.RulesGroupedTotal.Add(float64(len(rules)))
	if l.cache != nil {
		l.cache.Set(ctx, id, rules)
	}
	return rules, nil
}

// Invalidate drops a slot's cached rules.
func (l *Loader) Invalidate(ctx context.Context, id regulation.SlotID) {
	if l.cache != nil {
		l.cache.Delete(ctx, id)
	}
}

// InvalidateAll drops every cached entry.
func (l *Loader) InvalidateAll(ctx context.Context) {
	if l.cache != nil {
		l.cache.Clear(ctx)
	}
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheck reports whether the cache backend is reachable. Backends
// without a remote dependency are always healthy.
func (l *Loader) HealthCheck(ctx context.Context) error {
	if hc, ok := l.cache.(healthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// Store exposes the underlying store.
func (l *Loader) Store() regulation.RuleStore { return l.store }
