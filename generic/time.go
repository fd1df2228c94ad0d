package generic

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CLOCK - Time of day as minutes since midnight
// =============================================================================

// Clock is a time of day expressed in minutes since midnight.
// Valid values are 0..1440; 1440 (EndOfDay) is only meaningful as the
// exclusive end of an interval and stands for "hour 24".
type Clock int

const (
	Midnight Clock = 0
	EndOfDay Clock = 24 * 60
)

var (
	minutesPerHour = decimal.NewFromInt(60)
	hoursPerDay    = decimal.NewFromInt(24)
)

// NewClock builds a Clock from an hour/minute pair. hour may be 24 only with minute 0.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ClockFromHours converts fractional hours (e.g. 8.5) to a Clock, rounding to
// the nearest minute. Values outside [0, 24] are rejected.
func ClockFromHours(hours decimal.Decimal) (Clock, error) {
	if hours.IsNegative() || hours.GreaterThan(hoursPerDay) {
		return 0, fmt.Errorf("hour %s outside [0, 24]", hours.String())
	}
	return Clock(hours.Mul(minutesPerHour).Round(0).IntPart()), nil
}

// DurationFromHours converts fractional hours to a duration rounded to the minute.
func DurationFromHours(hours decimal.Decimal) time.Duration {
	return time.Duration(hours.Mul(minutesPerHour).Round(0).IntPart()) * time.Minute
}

// DurationFromMinutes converts a (possibly fractional) minute count to a duration.
func DurationFromMinutes(minutes decimal.Decimal) time.Duration {
	return time.Duration(minutes.Mul(decimal.NewFromInt(int64(time.Minute))).Round(0).IntPart())
}

func (c Clock) Hour() int { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }
func (c Clock) Valid() bool { return c >= Midnight && c <= EndOfDay }
func (c Clock) Duration() time.Duration { return time.Duration(c) * time.Minute }
func (c Clock) Add(d time.Duration) Clock { return c + Clock(d/time.Minute) }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On anchors the clock to the calendar date of day, in day's location.
// EndOfDay is built as 23:00 plus one hour rather than as hour 24.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	if c >= EndOfDay {
		return time.Date(y, m, d, 23, 0, 0, 0, day.Location()).Add(c.Duration() - 23*time.Hour)
	}
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, day.Location())
}

// =============================================================================
// WEEKDAY - ISO weekday numbering (1 = Monday .. 7 = Sunday)
// =============================================================================

type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Weekdays lists the week in ISO order.
var Weekdays = [7]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ISOWeekday returns the ISO weekday of t.
func ISOWeekday(t time.Time) Weekday {
	if t.Weekday() == time.Sunday {
		return Sunday
	}
	return Weekday(t.Weekday())
}

func (w Weekday) Valid() bool { return w >= Monday && w <= Sunday }

// Next returns the weekday n days after w, wrapping Sunday to Monday.
func (w Weekday) Next(n int) Weekday {
	off := (int(w) - 1 + n) % 7
	if off < 0 {
		off += 7
	}
	return Weekday(off + 1)
}

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// ParseWeekday accepts full or three-letter English names, case-insensitive.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, wd := range Weekdays {
		name := strings.ToLower(weekdayNames[wd])
		if s == name || s == name[:3] {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

// SplitDuration spreads a duration that starts at start across calendar days.
// It returns the part spent on the first day, the number of whole days that
// follow, and the remainder on the day after those.
func SplitDuration(start Clock, d time.Duration) (first time.Duration, fullDays int, last time.Duration) {
	const day = 24 * time.Hour

	first = d
	if untilMidnight := (EndOfDay - start).Duration(); untilMidnight < first {
		first = untilMidnight
	}
	rest := d - first
	return first, int(rest / day), rest % day
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	lo := aStart
	if bStart.After(lo) {
		lo = bStart
	}
	hi := aEnd
	if bEnd.Before(hi) {
		hi = bEnd
	}
	return lo.Before(hi)
}
