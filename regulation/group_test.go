package regulation_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/curbside/generic"
	"github.com/warp/curbside/regulation"
)

func TestGroupRules_MergesWeekdayRecords(t *testing.T) {
	// GIVEN: A paid zone stored as five weekday records sharing one code
	records := regulation.PaidZone("PAY-1", 9, 18, 120)

	// WHEN: Grouping
	rules, err := regulation.GroupRules(records)
	require.NoError(t, err)

	// THEN: One consolidated rule with Mon-Fri 09-18 and an empty weekend
	require.Len(t, rules, 1)
	rule := rules[0]
	assert.Equal(t, "PAY-1", rule.Code)
	assert.Equal(t, regulation.RestrictPaid, rule.RestrictType)
	require.NotNil(t, rule.MaxStayMinutes)
	assert.Equal(t, "120", rule.MaxStayMinutes.String())

	want := generic.NewAgenda()
	for _, wd := range []generic.Weekday{generic.Monday, generic.Tuesday, generic.Wednesday, generic.Thursday, generic.Friday} {
		want.Add(wd, iv(9, 0, 18, 0))
	}
	if diff := cmp.Diff(want, rule.Agenda); diff != "" {
		t.Errorf("agenda mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupRules_SplitsByKey(t *testing.T) {
	// GIVEN: Same code but different seasons and max stays
	records := []regulation.RawRuleRecord{
		{Code: "A", Monday: true, StartHour: regulation.Hours(8), EndHour: regulation.Hours(9)},
		{Code: "A", Monday: true, SeasonStart: "04-01", SeasonEnd: "11-30", StartHour: regulation.Hours(8), EndHour: regulation.Hours(9)},
		{Code: "A", Tuesday: true, MaxStayMinutes: regulation.Minutes(60)},
		{Code: "B", Monday: true},
		{Code: "A", Wednesday: true, StartHour: regulation.Hours(10), EndHour: regulation.Hours(11)},
	}

	rules, err := regulation.GroupRules(records)
	require.NoError(t, err)

	// THEN: four groups, first-occurrence order
	require.Len(t, rules, 4)
	assert.Equal(t, "A", rules[0].Code)
	assert.Empty(t, rules[0].SeasonStart)
	assert.Nil(t, rules[0].MaxStayMinutes)
	assert.Equal(t, "04-01", rules[1].SeasonStart)
	assert.NotNil(t, rules[2].MaxStayMinutes)
	assert.Equal(t, "B", rules[3].Code)

	// AND: the last "A" record joined the first group
	assert.Equal(t, []generic.Interval{iv(8, 0, 9, 0)}, rules[0].Agenda[generic.Monday])
	assert.Equal(t, []generic.Interval{iv(10, 0, 11, 0)}, rules[0].Agenda[generic.Wednesday])
}

func TestGroupRules_ConcatenatesOverlapsInOrder(t *testing.T) {
	records := []regulation.RawRuleRecord{
		{Code: "X", Monday: true, StartHour: regulation.Hours(8), EndHour: regulation.Hours(12)},
		{Code: "X", Daily: true, StartHour: regulation.Hours(10), EndHour: regulation.Hours(14)},
		{Code: "X", Monday: true, StartHour: regulation.Hours(8), EndHour: regulation.Hours(12)},
	}

	rules, err := regulation.GroupRules(records)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	// Duplicates and overlaps are preserved, in record order.
	assert.Equal(t, []generic.Interval{iv(8, 0, 12, 0), iv(10, 0, 14, 0), iv(8, 0, 12, 0)}, rules[0].Agenda[generic.Monday])
	assert.Equal(t, []generic.Interval{iv(10, 0, 14, 0)}, rules[0].Agenda[generic.Sunday])
}

func TestGroupRules_TakeLastDescriptiveFields(t *testing.T) {
	records := []regulation.RawRuleRecord{
		{Code: "P", Monday: true, Description: "old", RestrictType: regulation.RestrictPermit, PermitNo: "A1"},
		{Code: "P", Tuesday: true, Description: "new", SpecialDays: "holidays", RestrictType: regulation.RestrictPermit, PermitNo: "B2"},
	}

	rules, err := regulation.GroupRules(records)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "new", rules[0].Description)
	assert.Equal(t, "holidays", rules[0].SpecialDays)
	assert.Equal(t, "B2", rules[0].PermitNo)
}

func TestGroupRules_Totality(t *testing.T) {
	// GIVEN: a mixed batch built from presets
	var records []regulation.RawRuleRecord
	records = append(records, regulation.StreetCleaning("SC", generic.Tuesday, 8, 12, "04-01", "11-30")...)
	records = append(records, regulation.PaidZone("PAY", 9, 18, 90)...)
	records = append(records, regulation.WinterOvernightBan("WIN", 23, 8)...)
	records = append(records, regulation.NoStopping("NS", generic.Saturday, generic.Sunday)...)

	rules, err := regulation.GroupRules(records)
	require.NoError(t, err)

	// THEN: every distinct code appears exactly once
	seen := map[string]int{}
	for _, r := range rules {
		seen[r.Code]++
	}
	assert.Equal(t, map[string]int{"SC": 1, "PAY": 1, "WIN": 1, "NS": 1}, seen)

	// AND: each weekday list equals the concatenation of its records' contributions
	for _, rule := range rules {
		want := generic.NewAgenda()
		for _, rec := range records {
			if rec.Code != rule.Code {
				continue
			}
			days, err := regulation.BuildDayIntervals(rec)
			require.NoError(t, err)
			want.Merge(days)
		}
		if diff := cmp.Diff(want, rule.Agenda); diff != "" {
			t.Errorf("%s agenda mismatch (-want +got):\n%s", rule.Code, diff)
		}
	}
}

func TestGroupRules_EmptyInput(t *testing.T) {
	rules, err := regulation.GroupRules(nil)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestGroupRules_PropagatesRuleCode(t *testing.T) {
	records := []regulation.RawRuleRecord{
		{Code: "OK", Monday: true},
		{Code: "BROKEN", Monday: true, StartHour: regulation.Hours(30), EndHour: regulation.Hours(31)},
	}

	_, err := regulation.GroupRules(records)
	var die *generic.DataIntegrityError
	require.ErrorAs(t, err, &die)
	assert.Equal(t, "BROKEN", die.RuleCode)
}
