package regulation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SlotRules pairs a slot with its consolidated rules.
type SlotRules struct {
	SlotID SlotID
	Rules  []ConsolidatedRule
}

// SlotVerdict is the outcome for one slot of a bulk evaluation.
type SlotVerdict struct {
	SlotID SlotID
	Verdict
}

// DefaultFilterWorkers bounds concurrent evaluations when workers <= 0.
const DefaultFilterWorkers = 8

// FilterSlots evaluates one request against many slots. Each slot is an
// independent sequential evaluation; slots run concurrently on up to workers
// goroutines. Results keep the order of slots. The first error cancels the
// remaining work and is returned.
func FilterSlots(ctx context.Context, slots []SlotRules, req CheckinRequest, workers int) ([]SlotVerdict, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = DefaultFilterWorkers
	}

	results := make([]SlotVerdict, len(slots))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, slot := range slots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := EvaluateDetailed(slot.Rules, req)
			if err != nil {
				return fmt.Errorf("slot %s: %w", slot.SlotID, err)
			}
			results[i] = SlotVerdict{SlotID: slot.SlotID, Verdict: v}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Permitted returns the slots whose verdict allows parking.
func Permitted(verdicts []SlotVerdict) []SlotID {
	var ids []SlotID
	for _, v := range verdicts {
		if !v.Restricted {
			ids = append(ids, v.SlotID)
		}
	}
	return ids
}
