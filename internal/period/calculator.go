package period

import (
	"fmt"
	"time"
)

// Calculator is the strategy for one granularity.
type Calculator interface {
	// Range returns the period containing ref.
	Range(ref time.Time) Range
	// Shift moves ref by n periods (negative n moves backward).
	Shift(ref time.Time, n int) time.Time
}

// DayCalculator covers a single calendar day.
type DayCalculator struct{}

func (DayCalculator) Range(ref time.Time) Range {
	return Range{Start: StartOfDay(ref), End: EndOfDay(ref)}
}

func (DayCalculator) Shift(ref time.Time, n int) time.Time {
	return ref.AddDate(0, 0, n)
}

// WeekCalculator covers Monday through Sunday.
type WeekCalculator struct{}

func (WeekCalculator) Range(ref time.Time) Range {
	d := int(ref.Weekday())
	daysToMonday := d - 1
	if d == 0 {
		daysToMonday = 6
	}
	start := StartOfDay(ref).AddDate(0, 0, -daysToMonday)
	return Range{Start: start, End: EndOfDay(start.AddDate(0, 0, 6))}
}

func (WeekCalculator) Shift(ref time.Time, n int) time.Time {
	return ref.AddDate(0, 0, 7*n)
}

// MonthCalculator covers day 1 through the last calendar day.
type MonthCalculator struct{}

func (MonthCalculator) Range(ref time.Time) Range {
	y, m, _ := ref.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, ref.Location())
	end := time.Date(y, m, DaysIn(y, m), 0, 0, 0, 0, ref.Location())
	return Range{Start: start, End: EndOfDay(end)}
}

// Shift keeps the day of month, clamping it to the target month's last day
// (Jan 31 + 1 month = Feb 28/29).
func (MonthCalculator) Shift(ref time.Time, n int) time.Time {
	y, m, d := ref.Date()
	total := int(m) - 1 + n
	ty := y + floorDiv(total, 12)
	tm := time.Month(total - floorDiv(total, 12)*12 + 1)
	if last := DaysIn(ty, tm); d > last {
		d = last
	}
	h, mi, s := ref.Clock()
	return time.Date(ty, tm, d, h, mi, s, ref.Nanosecond(), ref.Location())
}

// YearCalculator covers Jan 1 through Dec 31.
type YearCalculator struct{}

func (YearCalculator) Range(ref time.Time) Range {
	y := ref.Year()
	start := time.Date(y, time.January, 1, 0, 0, 0, 0, ref.Location())
	end := time.Date(y, time.December, 31, 0, 0, 0, 0, ref.Location())
	return Range{Start: start, End: EndOfDay(end)}
}

// Shift clamps Feb 29 to Feb 28 when the target year is not a leap year.
func (YearCalculator) Shift(ref time.Time, n int) time.Time {
	return MonthCalculator{}.Shift(ref, 12*n)
}

var calculators = map[Granularity]Calculator{
	Day:   DayCalculator{},
	Week:  WeekCalculator{},
	Month: MonthCalculator{},
	Year:  YearCalculator{},
}

// GetCalculator returns the strategy for g.
func GetCalculator(g Granularity) (Calculator, error) {
	c, ok := calculators[g]
	if !ok {
		return nil, fmt.Errorf("unknown granularity: %q", g)
	}
	return c, nil
}

// mustCalculator panics on an unknown granularity. Callers obtain
// granularities from the exported constants or ParseGranularity, so an
// unknown value is a programming error.
func mustCalculator(g Granularity) Calculator {
	c, err := GetCalculator(g)
	if err != nil {
		panic(err)
	}
	return c
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
