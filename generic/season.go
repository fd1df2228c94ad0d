package generic

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SEASON - Month-day window during which a rule is in force
// =============================================================================

// MonthDay is a calendar marker without a year, written "MM-DD".
// Day validity per month is not checked: "02-30" parses.
type MonthDay struct {
	Month time.Month
	Day   int
}

// ParseMonthDay parses an "MM-DD" marker (month first).
func ParseMonthDay(s string) (MonthDay, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return MonthDay{}, fmt.Errorf("%w: %q is not MM-DD", ErrMalformedMonthDay, s)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return MonthDay{}, fmt.Errorf("%w: bad month in %q", ErrMalformedMonthDay, s)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return MonthDay{}, fmt.Errorf("%w: bad day in %q", ErrMalformedMonthDay, s)
	}
	return MonthDay{Month: time.Month(month), Day: day}, nil
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

// Season is an inclusive month-day window. It may wrap the new year
// (e.g. 12-01 .. 04-01). A nil *Season means "all year".
type Season struct {
	Start MonthDay
	End   MonthDay
}

// ParseSeason parses a pair of markers. Both empty yields a nil season;
// exactly one empty is an error.
func ParseSeason(start, end string) (*Season, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("%w: season start %q and end %q must both be set", ErrMalformedMonthDay, start, end)
	}
	s, err := ParseMonthDay(start)
	if err != nil {
		return nil, err
	}
	e, err := ParseMonthDay(end)
	if err != nil {
		return nil, err
	}
	return &Season{Start: s, End: e}, nil
}

// Applies reports whether the calendar date of t falls inside the season.
func (s *Season) Applies(t time.Time) bool {
	if s == nil {
		return true
	}
	return SeasonApplies(s.Start.Day, int(s.Start.Month), s.End.Day, int(s.End.Month), t.Day(), int(t.Month()))
}

func (s *Season) String() string {
	if s == nil {
		return "all year"
	}
	return s.Start.String() + ".." + s.End.String()
}

// SeasonApplies tests whether (day, month) lies within the season bounded by
// (startDay, startMonth) and (endDay, endMonth), both ends inclusive.
// A startMonth of 0 means no season restriction.
func SeasonApplies(startDay, startMonth, endDay, endMonth, day, month int) bool {
	if startMonth == 0 {
		return true
	}

	if startMonth <= endMonth {
		if month < startMonth || month > endMonth {
			return false
		}
	} else if month > endMonth && month < startMonth {
		// Wrapping window: months strictly between end and start are off-season.
		return false
	}

	if month == startMonth && day >= startDay {
		return true
	}
	if month == endMonth && day <= endDay {
		return true
	}
	return month != startMonth && month != endMonth
}
