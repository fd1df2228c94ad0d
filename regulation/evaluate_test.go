package regulation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/curbside/generic"
	"github.com/warp/curbside/regulation"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// 2025-03-10 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2025, time.March, 10, hour, minute, 0, 0, time.UTC)
}

func agendaOn(day generic.Weekday, intervals ...generic.Interval) generic.Agenda {
	a := generic.NewAgenda()
	a.Add(day, intervals...)
	return a
}

func request(at time.Time, d time.Duration) regulation.CheckinRequest {
	return regulation.NewCheckinRequest(at, d)
}

func evaluate(t *testing.T, rules []regulation.ConsolidatedRule, req regulation.CheckinRequest) bool {
	t.Helper()
	restricted, err := regulation.Evaluate(rules, req)
	require.NoError(t, err)
	return restricted
}

func withMaxStay(rule regulation.ConsolidatedRule, minutes int) regulation.ConsolidatedRule {
	rule.MaxStayMinutes = regulation.Minutes(minutes)
	return rule
}

// =============================================================================
// DEFAULTS AND SKIP RULES
// =============================================================================

func TestEvaluate_NoRulesNeverRestricted(t *testing.T) {
	for _, at := range []time.Time{monday(0, 0), monday(9, 30), monday(23, 59)} {
		assert.False(t, evaluate(t, nil, request(at, 72*time.Hour)))
	}
}

func TestEvaluate_PermitExemption(t *testing.T) {
	// GIVEN: A permit-only rule covering the whole of Monday
	rules := []regulation.ConsolidatedRule{{
		Code:         "PRM",
		Agenda:       agendaOn(generic.Monday, generic.AllDay),
		RestrictType: regulation.RestrictPermit,
		PermitNo:     "ABC",
	}}
	req := request(monday(10, 0), time.Hour)

	// WHEN/THEN: matching permit or "all" is exempt; no or wrong permit is blocked
	req.Permit = "ABC"
	assert.False(t, evaluate(t, rules, req), "matching permit")

	req.Permit = regulation.PermitAll
	assert.False(t, evaluate(t, rules, req), "universal permit")

	req.Permit = ""
	assert.True(t, evaluate(t, rules, req), "no permit")

	req.Permit = "XYZ"
	assert.True(t, evaluate(t, rules, req), "other permit")
}

func TestEvaluate_PaidExclusion(t *testing.T) {
	// GIVEN: A paid rule with an empty agenda, followed by an unrelated rule
	paid := regulation.ConsolidatedRule{Code: "PAY", Agenda: generic.NewAgenda(), RestrictType: regulation.RestrictPaid}
	req := request(monday(10, 0), time.Hour)

	// WHEN: paid parking is excluded
	req.AllowPaid = false
	v, err := regulation.EvaluateDetailed([]regulation.ConsolidatedRule{paid}, req)
	require.NoError(t, err)

	// THEN: restricted regardless of agenda
	assert.True(t, v.Restricted)
	assert.Equal(t, "PAY", v.RuleCode)
	assert.Equal(t, regulation.ReasonPaidExcluded, v.Reason)

	// WHEN: paid parking is allowed, the rule is skipped even if its agenda matches
	paid.Agenda = agendaOn(generic.Monday, generic.AllDay)
	req.AllowPaid = true
	assert.False(t, evaluate(t, []regulation.ConsolidatedRule{paid}, req))

	// AND: the verdict depends only on the other rules
	other := regulation.ConsolidatedRule{Code: "NS", Agenda: agendaOn(generic.Monday, generic.AllDay)}
	assert.True(t, evaluate(t, []regulation.ConsolidatedRule{paid, other}, req))
}

func TestEvaluate_AngledIsIgnored(t *testing.T) {
	rules := []regulation.ConsolidatedRule{{
		Code:         "ANG",
		Agenda:       agendaOn(generic.Monday, generic.AllDay),
		RestrictType: regulation.RestrictAngled,
	}}
	assert.False(t, evaluate(t, rules, request(monday(10, 0), time.Hour)))
}

func TestEvaluate_OutOfSeasonSkipped(t *testing.T) {
	rule := regulation.ConsolidatedRule{
		Code:        "SC",
		SeasonStart: "04-01",
		SeasonEnd:   "11-30",
		Agenda:      agendaOn(generic.Monday, generic.AllDay),
	}
	// March 10 is before the season.
	assert.False(t, evaluate(t, []regulation.ConsolidatedRule{rule}, request(monday(10, 0), time.Hour)))

	// 2025-04-07 is a Monday in season.
	inSeason := time.Date(2025, time.April, 7, 10, 0, 0, 0, time.UTC)
	assert.True(t, evaluate(t, []regulation.ConsolidatedRule{rule}, request(inSeason, time.Hour)))
}

// =============================================================================
// MAX-STAY LENIENCY
// =============================================================================

func TestEvaluate_MaxStayScenario(t *testing.T) {
	rule := regulation.ConsolidatedRule{Code: "MS", Agenda: agendaOn(generic.Monday, iv(9, 0, 23, 0))}

	// No limit: any overlap restricts.
	assert.True(t, evaluate(t, []regulation.ConsolidatedRule{rule}, request(monday(9, 30), time.Hour)))

	// 120 minute limit: one hour is fine, three hours is not.
	limited := withMaxStay(rule, 120)
	assert.False(t, evaluate(t, []regulation.ConsolidatedRule{limited}, request(monday(9, 30), time.Hour)))
	assert.True(t, evaluate(t, []regulation.ConsolidatedRule{limited}, request(monday(9, 30), 3*time.Hour)))
}

func TestEvaluate_MaxStay_StayExtendsPastIntervalEnd(t *testing.T) {
	rules := []regulation.ConsolidatedRule{withMaxStay(regulation.ConsolidatedRule{
		Code:   "MS",
		Agenda: agendaOn(generic.Monday, iv(9, 0, 11, 0)),
	}, 60)}

	// 30 minutes inside the interval.
	assert.False(t, evaluate(t, rules, request(monday(10, 30), 2*time.Hour)))
	// 90 minutes inside the interval.
	assert.True(t, evaluate(t, rules, request(monday(9, 30), 3*time.Hour)))
}

func TestEvaluate_MaxStay_StayStartsBeforeInterval(t *testing.T) {
	rules := []regulation.ConsolidatedRule{withMaxStay(regulation.ConsolidatedRule{
		Code:   "MS",
		Agenda: agendaOn(generic.Monday, iv(9, 0, 18, 0)),
	}, 60)}

	assert.False(t, evaluate(t, rules, request(monday(8, 30), time.Hour)))
	assert.False(t, evaluate(t, rules, request(monday(7, 0), 3*time.Hour)), "exactly the limit is allowed")
	assert.True(t, evaluate(t, rules, request(monday(7, 0), 210*time.Minute)))
}

func TestEvaluate_MaxStay_StayStraddlesInterval(t *testing.T) {
	// GIVEN: A one hour interval with a 90 minute limit
	rules := []regulation.ConsolidatedRule{withMaxStay(regulation.ConsolidatedRule{
		Code:   "MS",
		Agenda: agendaOn(generic.Monday, iv(10, 0, 11, 0)),
	}, 90)}

	// WHEN: the stay starts 30 minutes early and ends 60 minutes late
	// THEN: checkout minus interval start (120m) exceeds the limit,
	// even though interval end minus checkin (90m) does not
	assert.True(t, evaluate(t, rules, request(monday(9, 30), 150*time.Minute)))

	// Both measures within the limit.
	assert.False(t, evaluate(t, rules, request(monday(9, 45), 90*time.Minute)))
}

func TestEvaluate_MaxStay_ZeroLimitBlocksAnyOverlap(t *testing.T) {
	rules := []regulation.ConsolidatedRule{withMaxStay(regulation.ConsolidatedRule{
		Code:   "MS0",
		Agenda: agendaOn(generic.Monday, iv(9, 0, 18, 0)),
	}, 0)}

	verdict, err := regulation.EvaluateDetailed(rules, request(monday(12, 0), time.Minute))
	require.NoError(t, err)
	assert.True(t, verdict.Restricted)
	assert.Equal(t, regulation.ReasonMaxStay, verdict.Reason)

	// No overlap, no violation.
	assert.False(t, evaluate(t, rules, request(monday(18, 0), time.Hour)))
}

func TestEvaluate_MaxStay_FractionalMinutes(t *testing.T) {
	rule := regulation.ConsolidatedRule{Code: "MS", Agenda: agendaOn(generic.Monday, generic.AllDay)}
	half := decimal.RequireFromString("30.5")
	rule.MaxStayMinutes = &half

	assert.False(t, evaluate(t, []regulation.ConsolidatedRule{rule}, request(monday(10, 0), 30*time.Minute)))
	assert.True(t, evaluate(t, []regulation.ConsolidatedRule{rule}, request(monday(10, 0), 31*time.Minute)))
}

// =============================================================================
// DAY AND WEEK WRAPAROUND
// =============================================================================

func TestEvaluate_StayCrossesMidnight(t *testing.T) {
	rules := []regulation.ConsolidatedRule{{Code: "TUE", Agenda: agendaOn(generic.Tuesday, iv(0, 0, 8, 0))}}

	assert.True(t, evaluate(t, rules, request(monday(23, 0), 2*time.Hour)))
	assert.False(t, evaluate(t, rules, request(monday(22, 0), 2*time.Hour)), "ends exactly at midnight")
}

func TestEvaluate_WrapsFromSundayToMonday(t *testing.T) {
	rules := []regulation.ConsolidatedRule{{Code: "MON", Agenda: agendaOn(generic.Monday, iv(0, 0, 6, 0))}}
	sunday := time.Date(2025, time.March, 16, 23, 0, 0, 0, time.UTC)

	assert.True(t, evaluate(t, rules, request(sunday, 2*time.Hour)))
}

func TestEvaluate_EndOfDayInterval(t *testing.T) {
	rules := []regulation.ConsolidatedRule{{Code: "EVE", Agenda: agendaOn(generic.Monday, iv(20, 0, 24, 0))}}

	assert.True(t, evaluate(t, rules, request(monday(23, 30), time.Hour)))
	tuesday := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	assert.False(t, evaluate(t, rules, request(tuesday, time.Hour)), "Monday 24:00 is Tuesday 00:00, exclusive")
}

func TestEvaluate_OvernightBanFromPreset(t *testing.T) {
	rules, err := regulation.GroupRules(regulation.WinterOvernightBan("WIN", 23, 8))
	require.NoError(t, err)

	jan := time.Date(2025, time.January, 15, 2, 0, 0, 0, time.UTC)
	assert.True(t, evaluate(t, rules, request(jan, time.Hour)), "inside the 23:00-07:00 ban")

	noon := time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)
	assert.False(t, evaluate(t, rules, request(noon, time.Hour)))

	july := time.Date(2025, time.July, 15, 2, 0, 0, 0, time.UTC)
	assert.False(t, evaluate(t, rules, request(july, time.Hour)), "out of season")
}

// =============================================================================
// ORDERING AND ERRORS
// =============================================================================

func TestEvaluateDetailed_ReportsFirstBlockingRule(t *testing.T) {
	rules := []regulation.ConsolidatedRule{
		{Code: "FREE", Agenda: agendaOn(generic.Tuesday, generic.AllDay)},
		{Code: "FIRST", Agenda: agendaOn(generic.Monday, generic.AllDay)},
		{Code: "SECOND", Agenda: agendaOn(generic.Monday, generic.AllDay)},
	}

	v, err := regulation.EvaluateDetailed(rules, request(monday(10, 0), time.Hour))
	require.NoError(t, err)
	assert.True(t, v.Restricted)
	assert.Equal(t, "FIRST", v.RuleCode)
	assert.Equal(t, regulation.ReasonActiveInterval, v.Reason)
}

func TestEvaluate_InvalidRequest(t *testing.T) {
	_, err := regulation.Evaluate(nil, request(monday(10, 0), 0))
	assert.ErrorIs(t, err, generic.ErrInvalidRequest)

	_, err = regulation.Evaluate(nil, request(time.Time{}, time.Hour))
	assert.ErrorIs(t, err, generic.ErrInvalidRequest)

	_, err = regulation.Evaluate(nil, request(monday(10, 0), -time.Hour))
	assert.ErrorIs(t, err, generic.ErrInvalidRequest)
}

func TestEvaluate_DataIntegrityErrorsCarryRuleCode(t *testing.T) {
	badWeekday := generic.NewAgenda()
	badWeekday[generic.Weekday(9)] = []generic.Interval{generic.AllDay}
	negative := decimal.NewFromInt(-5)

	cases := map[string]regulation.ConsolidatedRule{
		"weekday out of range": {Code: "W9", Agenda: badWeekday},
		"inverted interval":    {Code: "INV", Agenda: agendaOn(generic.Monday, iv(12, 0, 8, 0))},
		"negative max stay":    {Code: "NEG", Agenda: agendaOn(generic.Monday, generic.AllDay), MaxStayMinutes: &negative},
		"malformed season":     {Code: "SEA", SeasonStart: "13-01", SeasonEnd: "02-01", Agenda: generic.NewAgenda()},
		"half season":          {Code: "HALF", SeasonStart: "04-01", Agenda: generic.NewAgenda()},
	}

	for name, rule := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := regulation.Evaluate([]regulation.ConsolidatedRule{rule}, request(monday(10, 0), time.Hour))
			require.Error(t, err)

			var die *generic.DataIntegrityError
			require.ErrorAs(t, err, &die)
			assert.Equal(t, rule.Code, die.RuleCode)
			assert.ErrorIs(t, err, generic.ErrDataIntegrity)
		})
	}
}
