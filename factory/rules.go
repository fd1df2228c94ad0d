/*
Package factory provides JSON to Go rule record conversion.

PURPOSE:
  Converts JSON rule definitions, as exported from a city's sign inventory
  or typed into an admin UI, into regulation.RawRuleRecord rows. Every
  record is validated on the way in so that bad data is rejected at import
  time with the offending rule code, instead of surfacing later during
  evaluation.

JSON SCHEMA:
  [
    {
      "code": "SC-TUE",
      "description": "Street cleaning",
      "season_start": "04-01",
      "season_end": "11-30",
      "start_hour": 8,
      "end_hour": 12,
      "days": ["tue"],
      "restrict_type": "maintenance"
    },
    {
      "code": "WIN",
      "season_start": "12-01",
      "season_end": "04-01",
      "start_hour": 23,
      "duration_hours": 8,
      "daily": true
    }
  ]

  Numbers may be given as JSON numbers or strings ("8.5").
  "days" accepts full or three-letter English weekday names.

VALIDATION:
  - code is required
  - restrict_type must be "", paid, permit, angled or maintenance
  - permit rules need a permit_no
  - season markers are both empty or both "MM-DD" (month first)
  - max_stay_minutes is non-negative
  - hour fields must expand to a valid agenda (see regulation.BuildDayIntervals)

USAGE:
  f := factory.NewRuleFactory()
  records, err := f.ParseRecords(jsonString)

  // Round trip
  out := f.ToJSON(records[0])

SEE ALSO:
  - regulation/types.go: RawRuleRecord
  - regulation/presets.go: Go-based record builders
  - api/handlers.go: PUT /api/slots/{id}/rules
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/curbside/generic"
	"github.com/warp/curbside/regulation"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleJSON is the JSON representation of one raw rule record.
type RuleJSON struct {
	ID             string           `json:"id,omitempty"`
	Code           string           `json:"code"`
	Description    string           `json:"description,omitempty"`
	SeasonStart    string           `json:"season_start,omitempty"`
	SeasonEnd      string           `json:"season_end,omitempty"`
	MaxStayMinutes *decimal.Decimal `json:"max_stay_minutes,omitempty"`
	StartHour      *decimal.Decimal `json:"start_hour,omitempty"`
	EndHour        *decimal.Decimal `json:"end_hour,omitempty"`
	DurationHours  *decimal.Decimal `json:"duration_hours,omitempty"`
	Days           []string         `json:"days,omitempty"`
	Daily          bool             `json:"daily,omitempty"`
	SpecialDays    string           `json:"special_days,omitempty"`
	RestrictType   string           `json:"restrict_type,omitempty"`
	PermitNo       string           `json:"permit_no,omitempty"`
}

// =============================================================================
// RULE FACTORY
// =============================================================================

// RuleFactory converts JSON rules to raw records.
type RuleFactory struct{}

// NewRuleFactory creates a new rule factory.
func NewRuleFactory() *RuleFactory {
	return &RuleFactory{}
}

// ParseRecords parses a JSON array of rules.
func (f *RuleFactory) ParseRecords(jsonStr string) ([]regulation.RawRuleRecord, error) {
	var rjs []RuleJSON
	if err := json.Unmarshal([]byte(jsonStr), &rjs); err != nil {
		return nil, fmt.Errorf("failed to parse rules JSON: %w", err)
	}
	return f.FromJSONList(rjs)
}

// FromJSONList converts and validates a list of rules, preserving order.
func (f *RuleFactory) FromJSONList(rjs []RuleJSON) ([]regulation.RawRuleRecord, error) {
	records := make([]regulation.RawRuleRecord, 0, len(rjs))
	for i, rj := range rjs {
		rec, err := f.FromJSON(rj)
		if err != nil {
			return nil, fmt.Errorf("rule #%d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// FromJSON converts and validates one rule.
func (f *RuleFactory) FromJSON(rj RuleJSON) (regulation.RawRuleRecord, error) {
	rec := regulation.RawRuleRecord{
		ID:             rj.ID,
		Code:           rj.Code,
		Description:    rj.Description,
		SeasonStart:    rj.SeasonStart,
		SeasonEnd:      rj.SeasonEnd,
		MaxStayMinutes: rj.MaxStayMinutes,
		StartHour:      rj.StartHour,
		EndHour:        rj.EndHour,
		DurationHours:  rj.DurationHours,
		Daily:          rj.Daily,
		SpecialDays:    rj.SpecialDays,
		RestrictType:   regulation.RestrictType(rj.RestrictType),
		PermitNo:       rj.PermitNo,
	}

	for _, name := range rj.Days {
		wd, err := generic.ParseWeekday(name)
		if err != nil {
			return regulation.RawRuleRecord{}, generic.NewDataIntegrityError(rj.Code, "days", err)
		}
		rec.SetWeekday(wd, true)
	}

	if err := Validate(rec); err != nil {
		return regulation.RawRuleRecord{}, err
	}
	return rec, nil
}

// ToJSON converts a raw record to RuleJSON.
func (f *RuleFactory) ToJSON(rec regulation.RawRuleRecord) RuleJSON {
	rj := RuleJSON{
		ID:             rec.ID,
		Code:           rec.Code,
		Description:    rec.Description,
		SeasonStart:    rec.SeasonStart,
		SeasonEnd:      rec.SeasonEnd,
		MaxStayMinutes: rec.MaxStayMinutes,
		StartHour:      rec.StartHour,
		EndHour:        rec.EndHour,
		DurationHours:  rec.DurationHours,
		Daily:          rec.Daily,
		SpecialDays:    rec.SpecialDays,
		RestrictType:   string(rec.RestrictType),
		PermitNo:       rec.PermitNo,
	}
	if !rec.Daily {
		for _, wd := range rec.Weekdays() {
			rj.Days = append(rj.Days, shortName(wd))
		}
	}
	return rj
}

// ToJSONList converts records in order.
func (f *RuleFactory) ToJSONList(records []regulation.RawRuleRecord) []RuleJSON {
	out := make([]RuleJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, f.ToJSON(rec))
	}
	return out
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks a record for everything evaluation would later trip on.
// Errors are *generic.DataIntegrityError carrying the record's code.
func Validate(rec regulation.RawRuleRecord) error {
	if rec.Code == "" {
		return &generic.DataIntegrityError{Field: "code", Detail: "required"}
	}
	if !rec.RestrictType.Known() {
		return &generic.DataIntegrityError{RuleCode: rec.Code, Field: "restrict_type", Detail: fmt.Sprintf("unknown type %q", rec.RestrictType)}
	}
	if rec.RestrictType == regulation.RestrictPermit && rec.PermitNo == "" {
		return &generic.DataIntegrityError{RuleCode: rec.Code, Field: "permit_no", Detail: "required for permit rules"}
	}
	if _, err := generic.ParseSeason(rec.SeasonStart, rec.SeasonEnd); err != nil {
		return generic.NewDataIntegrityError(rec.Code, "season", err)
	}
	if rec.MaxStayMinutes != nil && rec.MaxStayMinutes.IsNegative() {
		return &generic.DataIntegrityError{RuleCode: rec.Code, Field: "max_stay_minutes", Detail: "must not be negative"}
	}
	if _, err := regulation.BuildDayIntervals(rec); err != nil {
		return err
	}
	return nil
}

func shortName(wd generic.Weekday) string {
	return wd.String()[:3]
}
