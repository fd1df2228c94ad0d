package generic_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/curbside/generic"
)

// =============================================================================
// SPLIT DURATION
// =============================================================================

func TestSplitDuration(t *testing.T) {
	h := func(n int) time.Duration { return time.Duration(n) * time.Hour }

	tests := []struct {
		name      string
		start     generic.Clock
		duration  time.Duration
		wantFirst time.Duration
		wantFull  int
		wantLast  time.Duration
	}{
		{"fits in first day", generic.NewClock(16, 0), h(5), h(5), 0, 0},
		{"spills into next day", generic.NewClock(16, 0), h(10), h(8), 0, h(2)},
		{"several full days", generic.NewClock(16, 0), h(100), h(8), 3, h(20)},
		{"ends exactly at midnight", generic.NewClock(16, 0), h(8), h(8), 0, 0},
		{"exact full day after first", generic.NewClock(16, 0), h(32), h(8), 1, 0},
		{"from midnight", generic.Midnight, h(24), h(24), 0, 0},
		{"half hour start", generic.NewClock(22, 30), 2 * time.Hour, 90 * time.Minute, 0, 30 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, full, last := generic.SplitDuration(tt.start, tt.duration)
			if first != tt.wantFirst || full != tt.wantFull || last != tt.wantLast {
				t.Errorf("SplitDuration(%s, %s) = (%s, %d, %s), want (%s, %d, %s)",
					tt.start, tt.duration, first, full, last, tt.wantFirst, tt.wantFull, tt.wantLast)
			}
		})
	}
}

// =============================================================================
// CLOCK
// =============================================================================

func TestClockFromHours_RoundsToMinute(t *testing.T) {
	c, err := generic.ClockFromHours(decimal.RequireFromString("8.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != generic.NewClock(8, 30) {
		t.Errorf("expected 08:30, got %s", c)
	}

	c, err = generic.ClockFromHours(decimal.RequireFromString("24"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != generic.EndOfDay {
		t.Errorf("expected end of day, got %s", c)
	}

	if _, err := generic.ClockFromHours(decimal.RequireFromString("24.5")); err == nil {
		t.Error("expected error for hour past 24")
	}
	if _, err := generic.ClockFromHours(decimal.RequireFromString("-1")); err == nil {
		t.Error("expected error for negative hour")
	}
}

func TestClockOn_EndOfDayRollsToNextMidnight(t *testing.T) {
	day := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)

	got := generic.EndOfDay.On(day)
	want := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	got = generic.NewClock(9, 15).On(day)
	want = time.Date(2025, time.March, 10, 9, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// =============================================================================
// WEEKDAY
// =============================================================================

func TestISOWeekday(t *testing.T) {
	// 2025-03-10 is a Monday, 2025-03-16 a Sunday.
	if wd := generic.ISOWeekday(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)); wd != generic.Monday {
		t.Errorf("expected Monday, got %s", wd)
	}
	if wd := generic.ISOWeekday(time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)); wd != generic.Sunday {
		t.Errorf("expected Sunday, got %s", wd)
	}
}

func TestWeekdayNext_Wraps(t *testing.T) {
	if got := generic.Sunday.Next(1); got != generic.Monday {
		t.Errorf("Sunday+1 = %s, want Monday", got)
	}
	if got := generic.Friday.Next(3); got != generic.Monday {
		t.Errorf("Friday+3 = %s, want Monday", got)
	}
	if got := generic.Wednesday.Next(7); got != generic.Wednesday {
		t.Errorf("Wednesday+7 = %s, want Wednesday", got)
	}
	if got := generic.Monday.Next(-1); got != generic.Sunday {
		t.Errorf("Monday-1 = %s, want Sunday", got)
	}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2025, 1, 1, h, 0, 0, 0, time.UTC) }

	if generic.Overlaps(at(8), at(9), at(9), at(10)) {
		t.Error("touching intervals must not overlap")
	}
	if !generic.Overlaps(at(8), at(10), at(9), at(11)) {
		t.Error("expected overlap")
	}
	if !generic.Overlaps(at(9), at(10), at(8), at(11)) {
		t.Error("contained interval must overlap")
	}
}
