/*
warmer.go - Periodic consolidated-rule cache warmer

PURPOSE:
  Rebuilds the cached agenda of every slot on an interval so evaluation
  requests rarely pay for grouping. A pass also surfaces broken rule data
  early: a slot whose records fail consolidation is logged with the
  offending rule code and left uncached.

DESIGN:
  - Runs a background goroutine with configurable interval
  - Runs one pass immediately on start
  - Per-slot failures don't stop the pass

USAGE:
  warmer := NewCacheWarmer(loader, 5*time.Minute)
  warmer.Start()
  // ... later
  warmer.Stop()

SEE ALSO:
  - cache/loader.go: Refresh
  - metrics/metrics.go: WarmerRunsTotal
*/
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/curbside/cache"
	"github.com/warp/curbside/generic"
	"github.com/warp/curbside/logging"
	"github.com/warp/curbside/metrics"
)

// CacheWarmer periodically refreshes every slot's consolidated rules.
type CacheWarmer struct {
	Loader   *cache.Loader
	Interval time.Duration

	logger zerolog.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// WarmResult summarizes one pass.
type WarmResult struct {
	Refreshed int
	Failed    int
}

// NewCacheWarmer creates a new warmer.
func NewCacheWarmer(loader *cache.Loader, interval time.Duration) *CacheWarmer {
	return &CacheWarmer{
		Loader:   loader,
		Interval: interval,
		logger:   logging.WithComponent("warmer"),
	}
}

// Start begins the warmer. Calling Start on a running warmer is a no-op.
func (cw *CacheWarmer) Start() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.ticker != nil {
		return
	}
	cw.ticker = time.NewTicker(cw.Interval)
	cw.stop = make(chan struct{})
	cw.wg.Add(1)

	go cw.run(cw.ticker, cw.stop)

	cw.logger.Info().Dur("interval", cw.Interval).Msg("started")
}

// Stop stops the warmer and waits for an in-flight pass.
func (cw *CacheWarmer) Stop() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.ticker != nil {
		cw.ticker.Stop()
		close(cw.stop)
		cw.wg.Wait()
		cw.ticker = nil
		cw.logger.Info().Msg("stopped")
	}
}

func (cw *CacheWarmer) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer cw.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	// Run immediately on start
	cw.WarmOnce(ctx)

	for {
		select {
		case <-ticker.C:
			cw.WarmOnce(ctx)
		case <-stop:
			return
		}
	}
}

// WarmOnce refreshes every slot once.
func (cw *CacheWarmer) WarmOnce(ctx context.Context) WarmResult {
	var res WarmResult

	slots, err := cw.Loader.Store().ListSlots(ctx)
	if err != nil {
		cw.logger.Error().Err(err).Msg("list slots")
		metrics.WarmerRunsTotal.WithLabelValues("error").Inc()
		return res
	}

	for _, slot := range slots {
		if ctx.Err() != nil {
			break
		}
		if _, err := cw.Loader.Refresh(ctx, slot.ID); err != nil {
			res.Failed++
			var die *generic.DataIntegrityError
			if errors.As(err, &die) {
				cw.logger.Warn().Str("slot", string(slot.ID)).Str("rule", die.RuleCode).Str("field", die.Field).Msg(die.Detail)
			} else {
				cw.logger.Error().Err(err).Str("slot", string(slot.ID)).Msg("refresh")
			}
			continue
		}
		res.Refreshed++
	}

	outcome := "ok"
	if res.Failed > 0 {
		outcome = "partial"
	}
	metrics.WarmerRunsTotal.WithLabelValues(outcome).Inc()
	cw.logger.Debug().Int("refreshed", res.Refreshed).Int("failed", res.Failed).Msg("pass complete")
	return res
}
