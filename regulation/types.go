// Package regulation implements on-street parking restriction rules.
// It builds weekly agendas from raw sign records and evaluates checkin
// requests against them, using the calendar primitives of package generic.
package regulation

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/curbside/generic"
)

// =============================================================================
// RESTRICTION TYPES
// =============================================================================

// RestrictType tags a rule with a special category.
type RestrictType string

const (
	RestrictNone        RestrictType = ""
	RestrictPaid        RestrictType = "paid"
	RestrictPermit      RestrictType = "permit"
	RestrictAngled      RestrictType = "angled"
	RestrictMaintenance RestrictType = "maintenance"
)

// Known reports whether t is one of the recognised restriction types.
func (t RestrictType) Known() bool {
	switch t {
	case RestrictNone, RestrictPaid, RestrictPermit, RestrictAngled, RestrictMaintenance:
		return true
	}
	return false
}

// PermitAll is the permit filter meaning "any permit accepted".
const PermitAll = "all"

// SlotID identifies a parking slot (a curb segment sharing one rule set).
type SlotID string

// =============================================================================
// RAW RULE RECORD - One row per weekday permutation of a sign-derived rule
// =============================================================================

// RawRuleRecord is a persisted regulation row. Applicability is given either
// by the weekday flags or by Daily. Hours are fractional (8.5 = 08:30).
// EndHour and DurationHours are mutually exclusive.
type RawRuleRecord struct {
	ID             string
	Code           string
	Description    string
	SeasonStart    string // "MM-DD", empty when the rule applies all year
	SeasonEnd      string
	MaxStayMinutes *decimal.Decimal
	StartHour      *decimal.Decimal
	EndHour        *decimal.Decimal
	DurationHours  *decimal.Decimal

	Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday bool
	Daily                                                          bool

	SpecialDays  string
	RestrictType RestrictType
	PermitNo     string
}

// Weekdays returns the weekdays this record applies to, in ISO order.
func (r RawRuleRecord) Weekdays() []generic.Weekday {
	if r.Daily {
		return generic.Weekdays[:]
	}
	flags := [7]bool{r.Monday, r.Tuesday, r.Wednesday, r.Thursday, r.Friday, r.Saturday, r.Sunday}
	var days []generic.Weekday
	for i, set := range flags {
		if set {
			days = append(days, generic.Weekdays[i])
		}
	}
	return days
}

// SetWeekday flips the flag for one weekday.
func (r *RawRuleRecord) SetWeekday(wd generic.Weekday, on bool) {
	switch wd {
	case generic.Monday:
		r.Monday = on
	case generic.Tuesday:
		r.Tuesday = on
	case generic.Wednesday:
		r.Wednesday = on
	case generic.Thursday:
		r.Thursday = on
	case generic.Friday:
		r.Friday = on
	case generic.Saturday:
		r.Saturday = on
	case generic.Sunday:
		r.Sunday = on
	}
}

// groupKey is the identity under which raw records are consolidated.
type groupKey struct {
	Code        string
	SeasonStart string
	SeasonEnd   string
	MaxStay     string
}

func (r RawRuleRecord) groupKey() groupKey {
	k := groupKey{Code: r.Code, SeasonStart: r.SeasonStart, SeasonEnd: r.SeasonEnd}
	if r.MaxStayMinutes != nil {
		k.MaxStay = r.MaxStayMinutes.String()
	}
	return k
}

// =============================================================================
// CONSOLIDATED RULE - All weekday records of one rule merged into an agenda
// =============================================================================

type ConsolidatedRule struct {
	Code           string           `json:"code"`
	Description    string           `json:"description,omitempty"`
	SeasonStart    string           `json:"season_start,omitempty"`
	SeasonEnd      string           `json:"season_end,omitempty"`
	MaxStayMinutes *decimal.Decimal `json:"max_stay_minutes,omitempty"`
	Agenda         generic.Agenda   `json:"agenda"`
	SpecialDays    string           `json:"special_days,omitempty"`
	RestrictType   RestrictType     `json:"restrict_type,omitempty"`
	PermitNo       string           `json:"permit_no,omitempty"`
}

// Season parses the rule's season markers.
func (r ConsolidatedRule) Season() (*generic.Season, error) {
	s, err := generic.ParseSeason(r.SeasonStart, r.SeasonEnd)
	if err != nil {
		return nil, generic.NewDataIntegrityError(r.Code, "season", err)
	}
	return s, nil
}

// MaxStay returns the max-stay limit, or ok=false when the rule has none.
func (r ConsolidatedRule) MaxStay() (limit time.Duration, ok bool, err error) {
	if r.MaxStayMinutes == nil {
		return 0, false, nil
	}
	if r.MaxStayMinutes.IsNegative() {
		return 0, false, &generic.DataIntegrityError{
			RuleCode: r.Code,
			Field:    "max_stay_minutes",
			Detail:   "negative value " + r.MaxStayMinutes.String(),
		}
	}
	return generic.DurationFromMinutes(*r.MaxStayMinutes), true, nil
}

// =============================================================================
// CHECKIN REQUEST / VERDICT
// =============================================================================

// CheckinRequest is a proposed parking event. CheckinTime is civil time;
// its location is used as-is and never converted.
type CheckinRequest struct {
	CheckinTime time.Time
	Duration    time.Duration
	AllowPaid   bool
	Permit      string // "" = no permit, PermitAll = any permit, else a permit number
}

// NewCheckinRequest builds a request with paid parking allowed.
func NewCheckinRequest(at time.Time, d time.Duration) CheckinRequest {
	return CheckinRequest{CheckinTime: at, Duration: d, AllowPaid: true}
}

// End returns the exclusive end of the parking window.
func (r CheckinRequest) End() time.Time { return r.CheckinTime.Add(r.Duration) }

// Validate rejects requests that cannot be evaluated.
func (r CheckinRequest) Validate() error {
	if r.CheckinTime.IsZero() {
		return &generic.InvalidRequestError{Field: "checkin_time", Detail: "missing"}
	}
	if r.Duration <= 0 {
		return &generic.InvalidRequestError{Field: "duration", Detail: "must be positive, got " + r.Duration.String()}
	}
	return nil
}

// holdsPermitFor reports whether the requester is exempt from a permit rule.
func (r CheckinRequest) holdsPermitFor(permitNo string) bool {
	return r.Permit == PermitAll || (r.Permit != "" && r.Permit == permitNo)
}

// Verdict is the outcome of evaluating a request. RuleCode and Reason
// identify the first rule that blocked the window.
type Verdict struct {
	Restricted bool
	RuleCode   string
	Reason     Reason
}

// Reason explains a restriction.
type Reason string

const (
	ReasonPaidExcluded   Reason = "paid_excluded"
	ReasonActiveInterval Reason = "active_interval"
	ReasonMaxStay        Reason = "max_stay_exceeded"
)
