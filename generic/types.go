/*
Package generic provides the calendar primitives of the restriction engine.

PURPOSE:
  This package contains domain-agnostic types for reasoning about weekly
  time agendas: times of day, ISO weekdays, half-open intervals, seven-day
  agendas and year-wrapping season windows. The regulation package builds
  parking semantics (paid zones, permits, max-stay) on top of these.

KEY CONCEPTS IN THIS FILE (types.go):
  - Interval: a half-open [Start, End) range of Clock values within one day
  - Agenda: weekday -> intervals, always carrying all seven weekdays

DESIGN PRINCIPLES:
  1. Minutes, not hour/minute pairs: "hour 24" is EndOfDay (1440) and never
     reaches a calendar library as an invalid hour.
  2. Precision: fractional hours are converted with decimal.Decimal.
  3. Values only: nothing here holds state between calls.

USAGE:
  agenda := generic.NewAgenda()
  agenda.Add(generic.Monday, generic.Interval{Start: generic.NewClock(9, 0), End: generic.EndOfDay})

SEE ALSO:
  - time.go: Clock, Weekday, SplitDuration
  - season.go: Season windows
  - errors.go: Error taxonomy
*/
package generic

import "fmt"

// =============================================================================
// INTERVAL - Half-open time range within a single day
// =============================================================================

type Interval struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

// Valid reports whether 0 <= Start < End <= 24:00.
func (i Interval) Valid() bool {
	return i.Start >= Midnight && i.Start < i.End && i.End <= EndOfDay
}

func (i Interval) String() string {
	return "[" + i.Start.String() + ", " + i.End.String() + ")"
}

// AllDay covers a whole calendar day.
var AllDay = Interval{Start: Midnight, End: EndOfDay}

// =============================================================================
// AGENDA - Weekly schedule of restricted intervals
// =============================================================================

// Agenda maps each ISO weekday to the intervals during which a restriction
// is active. Intervals are kept in insertion order and may overlap.
type Agenda map[Weekday][]Interval

// NewAgenda returns an agenda with all seven weekdays present and empty.
func NewAgenda() Agenda {
	a := make(Agenda, len(Weekdays))
	for _, wd := range Weekdays {
		a[wd] = []Interval{}
	}
	return a
}

// Add appends intervals to the given weekday.
func (a Agenda) Add(day Weekday, intervals ...Interval) {
	a[day] = append(a[day], intervals...)
}

// Merge appends every interval of other onto a, weekday by weekday.
func (a Agenda) Merge(other Agenda) {
	for _, wd := range Weekdays {
		if ivs, ok := other[wd]; ok {
			if _, present := a[wd]; !present {
				a[wd] = []Interval{}
			}
			a.Add(wd, ivs...)
		}
	}
}

// Validate checks weekday keys and interval bounds.
func (a Agenda) Validate() error {
	for wd, ivs := range a {
		if !wd.Valid() {
			return fmt.Errorf("weekday %d outside 1..7", int(wd))
		}
		for _, iv := range ivs {
			if !iv.Valid() {
				return fmt.Errorf("%s interval %s out of bounds", wd, iv)
			}
		}
	}
	return nil
}
