package factory_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/curbside/factory"
	"github.com/warp/curbside/generic"
	"github.com/warp/curbside/regulation"
)

func TestParseRecords_ValidBatch(t *testing.T) {
	// GIVEN: street cleaning with numeric hours, a winter ban with string hours
	input := `[
		{"code": "SC-TUE", "season_start": "04-01", "season_end": "11-30",
		 "start_hour": 8, "end_hour": 12, "days": ["tue", "Thursday"], "restrict_type": "maintenance"},
		{"code": "WIN", "season_start": "12-01", "season_end": "04-01",
		 "start_hour": "23", "duration_hours": "8.5", "daily": true},
		{"code": "RP", "restrict_type": "permit", "permit_no": "Z7", "max_stay_minutes": 0, "daily": true}
	]`

	records, err := factory.NewRuleFactory().ParseRecords(input)
	require.NoError(t, err)
	require.Len(t, records, 3)

	sc := records[0]
	assert.Equal(t, "SC-TUE", sc.Code)
	assert.Equal(t, []generic.Weekday{generic.Tuesday, generic.Thursday}, sc.Weekdays())
	assert.Equal(t, regulation.RestrictMaintenance, sc.RestrictType)
	assert.Equal(t, "8", sc.StartHour.String())

	win := records[1]
	assert.True(t, win.Daily)
	assert.Equal(t, "8.5", win.DurationHours.String())
	assert.Nil(t, win.EndHour)

	rp := records[2]
	require.NotNil(t, rp.MaxStayMinutes)
	assert.True(t, rp.MaxStayMinutes.IsZero())
}

func TestParseRecords_RejectsWithRuleCode(t *testing.T) {
	cases := map[string]struct {
		input string
		code  string
		field string
	}{
		"unknown weekday":   {`[{"code": "A", "days": ["funday"]}]`, "A", "days"},
		"unknown type":      {`[{"code": "B", "restrict_type": "towing"}]`, "B", "restrict_type"},
		"permit without no": {`[{"code": "C", "restrict_type": "permit"}]`, "C", "permit_no"},
		"day-first season":  {`[{"code": "D", "season_start": "25-12", "season_end": "01-03"}]`, "D", "season"},
		"half season":       {`[{"code": "E", "season_start": "04-01"}]`, "E", "season"},
		"negative max stay": {`[{"code": "F", "max_stay_minutes": -10}]`, "F", "max_stay_minutes"},
		"end and duration":  {`[{"code": "G", "days": ["mon"], "end_hour": 9, "duration_hours": 1}]`, "G", "end_hour"},
		"inverted hours":    {`[{"code": "H", "days": ["mon"], "start_hour": 18, "end_hour": 9}]`, "H", "end_hour"},
		"missing code":      {`[{"days": ["mon"]}]`, "", "code"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := factory.NewRuleFactory().ParseRecords(tc.input)
			require.Error(t, err)

			var die *generic.DataIntegrityError
			require.ErrorAs(t, err, &die)
			assert.Equal(t, tc.code, die.RuleCode)
			assert.Equal(t, tc.field, die.Field)
		})
	}
}

func TestParseRecords_MalformedJSON(t *testing.T) {
	_, err := factory.NewRuleFactory().ParseRecords(`{"code": "not an array"}`)
	require.Error(t, err)
	assert.False(t, generic.IsDataIntegrity(err))
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := factory.NewRuleFactory()

	// GIVEN: records built from presets
	var records []regulation.RawRuleRecord
	records = append(records, regulation.StreetCleaning("SC", generic.Tuesday, 8, 12.5, "04-01", "11-30")...)
	records = append(records, regulation.WinterOvernightBan("WIN", 23, 8)...)

	// WHEN: converting to JSON and back
	data, err := json.Marshal(f.ToJSONList(records))
	require.NoError(t, err)
	back, err := f.ParseRecords(string(data))
	require.NoError(t, err)

	// THEN: the consolidated rules are identical
	want, err := regulation.GroupRules(records)
	require.NoError(t, err)
	got, err := regulation.GroupRules(back)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Code, got[i].Code)
		assert.Equal(t, want[i].Agenda, got[i].Agenda)
		assert.Equal(t, want[i].SeasonStart, got[i].SeasonStart)
	}

	// AND: weekday flags are written as short names
	assert.Equal(t, []string{"Tue"}, f.ToJSON(records[0]).Days)
	assert.Empty(t, f.ToJSON(records[1]).Days, "daily rules don't list days")
}
