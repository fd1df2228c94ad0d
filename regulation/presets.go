/*
presets.go - Pre-built raw records for common municipal signs

PURPOSE:
  Ready-to-use record sets for the sign patterns most cities post. They
  are convenience builders producing the same RawRuleRecord rows a sign
  import would produce, so they go through GroupRules like any other data.

AVAILABLE PRESETS:
  StreetCleaning:     one weekday, fixed hours, seasonal (e.g. Apr-Nov)
  PaidZone:           paid parking on weekdays with a max stay
  ResidentPermitZone: permit-only parking, every day
  WinterOvernightBan: daily overnight ban spanning midnight, Dec-Mar
  NoStopping:         all-day ban on the given weekdays

EXAMPLE:
  records := regulation.StreetCleaning("SC-TUE", generic.Tuesday, 8, 12, "04-01", "11-30")
  rules, err := regulation.GroupRules(records)

SEE ALSO:
  - factory/rules.go: JSON-based record creation
  - api/scenarios.go: demo datasets built from these presets
*/
package regulation

import (
	"github.com/shopspring/decimal"
	"github.com/warp/curbside/generic"
)

// Hours is a convenience for fractional-hour record fields.
func Hours(h float64) *decimal.Decimal {
	d := decimal.NewFromFloat(h)
	return &d
}

// Minutes is a convenience for the max-stay record field.
func Minutes(m int) *decimal.Decimal {
	d := decimal.NewFromInt(int64(m))
	return &d
}

// StreetCleaning bans parking on one weekday between two hours, in season.
func StreetCleaning(code string, day generic.Weekday, startHour, endHour float64, seasonStart, seasonEnd string) []RawRuleRecord {
	r := RawRuleRecord{
		Code:         code,
		Description:  "Street cleaning",
		SeasonStart:  seasonStart,
		SeasonEnd:    seasonEnd,
		StartHour:    Hours(startHour),
		EndHour:      Hours(endHour),
		RestrictType: RestrictMaintenance,
	}
	r.SetWeekday(day, true)
	return []RawRuleRecord{r}
}

// PaidZone marks Monday-Friday paid parking with a max stay, one record per weekday.
func PaidZone(code string, startHour, endHour float64, maxStayMinutes int) []RawRuleRecord {
	weekdays := []generic.Weekday{generic.Monday, generic.Tuesday, generic.Wednesday, generic.Thursday, generic.Friday}
	records := make([]RawRuleRecord, 0, len(weekdays))
	for _, wd := range weekdays {
		r := RawRuleRecord{
			Code:           code,
			Description:    "Paid parking",
			MaxStayMinutes: Minutes(maxStayMinutes),
			StartHour:      Hours(startHour),
			EndHour:        Hours(endHour),
			RestrictType:   RestrictPaid,
		}
		r.SetWeekday(wd, true)
		records = append(records, r)
	}
	return records
}

// ResidentPermitZone reserves the slot for permit holders every day.
func ResidentPermitZone(code, permitNo string, startHour, endHour float64) []RawRuleRecord {
	return []RawRuleRecord{{
		Code:         code,
		Description:  "Permit holders only (zone " + permitNo + ")",
		StartHour:    Hours(startHour),
		EndHour:      Hours(endHour),
		Daily:        true,
		RestrictType: RestrictPermit,
		PermitNo:     permitNo,
	}}
}

// WinterOvernightBan forbids parking every night from startHour for
// durationHours, between December 1 and April 1.
func WinterOvernightBan(code string, startHour, durationHours float64) []RawRuleRecord {
	return []RawRuleRecord{{
		Code:          code,
		Description:   "Winter overnight parking ban",
		SeasonStart:   "12-01",
		SeasonEnd:     "04-01",
		StartHour:     Hours(startHour),
		DurationHours: Hours(durationHours),
		Daily:         true,
	}}
}

// NoStopping bans parking for the whole of each given weekday.
func NoStopping(code string, days ...generic.Weekday) []RawRuleRecord {
	records := make([]RawRuleRecord, 0, len(days))
	for _, wd := range days {
		r := RawRuleRecord{Code: code, Description: "No stopping"}
		r.SetWeekday(wd, true)
		records = append(records, r)
	}
	return records
}
