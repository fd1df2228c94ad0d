package regulation

import (
	"time"

	"github.com/warp/curbside/generic"
)

// =============================================================================
// RESTRICTION EVALUATION
// =============================================================================

// Evaluate reports whether any rule forbids parking during the request window.
// Rules are scanned in order and the first violation wins.
func Evaluate(rules []ConsolidatedRule, req CheckinRequest) (bool, error) {
	v, err := EvaluateDetailed(rules, req)
	if err != nil {
		return false, err
	}
	return v.Restricted, nil
}

// EvaluateDetailed is Evaluate with the blocking rule and reason attached.
//
// Per rule, before looking at the agenda:
//  1. paid rule while paid parking is excluded -> restricted
//  2. paid (when allowed) and angled rules     -> skipped
//  3. rule out of season on the checkin date   -> skipped
//  4. permit rule and the requester holds "all" or the matching permit -> skipped
func EvaluateDetailed(rules []ConsolidatedRule, req CheckinRequest) (Verdict, error) {
	if err := req.Validate(); err != nil {
		return Verdict{}, err
	}

	for _, rule := range rules {
		if rule.RestrictType == RestrictPaid && !req.AllowPaid {
			return Verdict{Restricted: true, RuleCode: rule.Code, Reason: ReasonPaidExcluded}, nil
		}
		if rule.RestrictType == RestrictPaid || rule.RestrictType == RestrictAngled {
			continue
		}

		season, err := rule.Season()
		if err != nil {
			return Verdict{}, err
		}
		if !season.Applies(req.CheckinTime) {
			continue
		}

		if rule.RestrictType == RestrictPermit && req.holdsPermitFor(rule.PermitNo) {
			continue
		}

		reason, err := checkAgenda(rule, req)
		if err != nil {
			return Verdict{}, err
		}
		if reason != "" {
			return Verdict{Restricted: true, RuleCode: rule.Code, Reason: reason}, nil
		}
	}

	return Verdict{}, nil
}

// checkAgenda walks the week once, starting on the checkin weekday, and
// returns a non-empty reason for the first interval the window violates.
func checkAgenda(rule ConsolidatedRule, req CheckinRequest) (Reason, error) {
	if err := rule.Agenda.Validate(); err != nil {
		return "", generic.NewDataIntegrityError(rule.Code, "agenda", err)
	}
	maxStay, limited, err := rule.MaxStay()
	if err != nil {
		return "", err
	}

	checkin := req.CheckinTime
	checkout := req.End()
	first := generic.ISOWeekday(checkin)

	for offset := 0; offset < 7; offset++ {
		day := checkin.AddDate(0, 0, offset)
		for _, iv := range rule.Agenda[first.Next(offset)] {
			start := iv.Start.On(day)
			stop := iv.End.On(day)

			if !generic.Overlaps(checkin, checkout, start, stop) {
				continue
			}
			if !limited {
				return ReasonActiveInterval, nil
			}
			if exceedsMaxStay(checkin, checkout, start, stop, maxStay) {
				return ReasonMaxStay, nil
			}
		}
	}
	return "", nil
}

// exceedsMaxStay applies max-stay leniency to an overlapping interval.
// The past-end and before-start portions are tested independently, so a stay
// straddling the whole interval is measured both ways. The total duration
// only counts when the stay is fully inside the interval.
func exceedsMaxStay(checkin, checkout, start, stop time.Time, limit time.Duration) bool {
	pastEnd := checkout.After(stop)
	beforeStart := checkin.Before(start)

	if pastEnd && stop.Sub(checkin) > limit {
		return true
	}
	if beforeStart && checkout.Sub(start) > limit {
		return true
	}
	if !pastEnd && !beforeStart {
		return checkout.Sub(checkin) > limit
	}
	return false
}
