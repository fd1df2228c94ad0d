package regulation

import (
	"errors"

	"github.com/warp/curbside/generic"
)

// BuildDayIntervals expands one raw record into the intervals it contributes
// to each weekday. The result always holds all seven weekdays.
//
//   - EndHour set:       [start, end) on each applicable weekday
//   - DurationHours set: start..start+duration, spilling into following days
//   - neither:           the whole day
func BuildDayIntervals(r RawRuleRecord) (generic.Agenda, error) {
	agenda := generic.NewAgenda()

	if r.EndHour != nil && r.DurationHours != nil {
		return nil, &generic.DataIntegrityError{RuleCode: r.Code, Field: "end_hour", Detail: "end_hour and duration_hours are mutually exclusive"}
	}

	start := generic.Midnight
	if r.StartHour != nil {
		c, err := generic.ClockFromHours(*r.StartHour)
		if err != nil || c >= generic.EndOfDay {
			return nil, generic.NewDataIntegrityError(r.Code, "start_hour", errOr(err, "start must be before 24:00"))
		}
		start = c
	}

	switch {
	case r.EndHour != nil:
		end, err := generic.ClockFromHours(*r.EndHour)
		if err != nil {
			return nil, generic.NewDataIntegrityError(r.Code, "end_hour", err)
		}
		iv := generic.Interval{Start: start, End: end}
		if !iv.Valid() {
			return nil, &generic.DataIntegrityError{RuleCode: r.Code, Field: "end_hour", Detail: "interval " + iv.String() + " is empty or inverted"}
		}
		for _, wd := range r.Weekdays() {
			agenda.Add(wd, iv)
		}

	case r.DurationHours != nil:
		d := generic.DurationFromHours(*r.DurationHours)
		if d <= 0 {
			return nil, &generic.DataIntegrityError{RuleCode: r.Code, Field: "duration_hours", Detail: "must be at least one minute"}
		}
		first, fullDays, last := generic.SplitDuration(start, d)
		for _, wd := range r.Weekdays() {
			agenda.Add(wd, generic.Interval{Start: start, End: start.Add(first)})
			for i := 1; i <= fullDays; i++ {
				agenda.Add(wd.Next(i), generic.AllDay)
			}
			if last > 0 {
				agenda.Add(wd.Next(fullDays+1), generic.Interval{Start: generic.Midnight, End: generic.Midnight.Add(last)})
			}
		}

	default:
		for _, wd := range r.Weekdays() {
			agenda.Add(wd, generic.AllDay)
		}
	}

	return agenda, nil
}

func errOr(err error, msg string) error {
	if err != nil {
		return err
	}
	return errors.New(msg)
}
