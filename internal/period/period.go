// Package period computes calendar-aligned date ranges.
//
// Each granularity has its own Calculator that knows how to find the
// period containing a reference date and how to step to the neighbouring
// period. Weeks always start on Monday.
package period

import (
	"fmt"
	"strings"
	"time"
)

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
	Year  Granularity = "year"
)

const (
	Backward Direction = -1
	Forward  Direction = 1
)

type (
	// Granularity is the width of a calendar period.
	Granularity string

	// Direction is the sign of a navigation step.
	Direction int

	// Range is an inclusive [Start, End] interval. End is the last
	// millisecond of the final day.
	Range struct {
		Start time.Time
		End   time.Time
	}
)

// ParseGranularity accepts the canonical names plus the list-view aliases
// "daily", "weekly", "monthly" and "yearly".
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	case "year", "yearly":
		return Year, nil
	default:
		return "", fmt.Errorf("unknown granularity: %q", s)
	}
}

func (g Granularity) IsValid() bool {
	_, ok := calculators[g]
	return ok
}

func (g Granularity) String() string {
	return string(g)
}

// ParseDirection maps "next"/"forward" and "prev"/"previous"/"backward".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "next", "forward", "1", "+1":
		return Forward, nil
	case "prev", "previous", "backward", "-1":
		return Backward, nil
	default:
		return 0, fmt.Errorf("unknown direction: %q", s)
	}
}

// Contains reports whether t falls inside the range, bounds included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Days returns the number of calendar days the range touches.
func (r Range) Days() int {
	s := StartOfDay(r.Start)
	e := StartOfDay(r.End)
	n := 1
	for d := s; d.Before(e); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// For returns the period of granularity g that contains ref.
func For(g Granularity, ref time.Time) Range {
	return mustCalculator(g).Range(ref)
}

// Shift moves ref by exactly one period of granularity g in direction dir.
func Shift(g Granularity, ref time.Time, dir Direction) time.Time {
	return mustCalculator(g).Shift(ref, int(dir))
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// DaysIn returns the number of days in the given month, leap years included.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Custom builds a range from two arbitrary instants, normalising order and
// widening both ends to whole days.
func Custom(start, end time.Time) Range {
	if end.Before(start) {
		start, end = end, start
	}
	return Range{Start: StartOfDay(start), End: EndOfDay(end)}
}
