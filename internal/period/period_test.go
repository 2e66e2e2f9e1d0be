package period

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func endOf(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, 999_000_000, time.Local)
}

func TestFor(t *testing.T) {
	tests := []struct {
		name      string
		g         Granularity
		ref       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"day ignores time of day", Day, time.Date(2024, 3, 5, 17, 45, 0, 0, time.Local), date(2024, 3, 5), endOf(2024, 3, 5)},
		{"week from monday", Week, date(2024, 1, 1), date(2024, 1, 1), endOf(2024, 1, 7)},
		{"week from sunday", Week, date(2024, 1, 7), date(2024, 1, 1), endOf(2024, 1, 7)},
		{"week from wednesday", Week, date(2024, 1, 3), date(2024, 1, 1), endOf(2024, 1, 7)},
		{"week across year boundary", Week, date(2025, 1, 1), date(2024, 12, 30), endOf(2025, 1, 5)},
		{"week across month boundary", Week, date(2024, 3, 2), date(2024, 2, 26), endOf(2024, 3, 3)},
		{"leap february", Month, date(2024, 2, 15), date(2024, 2, 1), endOf(2024, 2, 29)},
		{"common february", Month, date(2023, 2, 15), date(2023, 2, 1), endOf(2023, 2, 28)},
		{"thirty day month", Month, date(2024, 4, 30), date(2024, 4, 1), endOf(2024, 4, 30)},
		{"december", Month, date(2024, 12, 31), date(2024, 12, 1), endOf(2024, 12, 31)},
		{"year", Year, date(2024, 6, 15), date(2024, 1, 1), endOf(2024, 12, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := For(tt.g, tt.ref)
			if !got.Start.Equal(tt.wantStart) || !got.End.Equal(tt.wantEnd) {
				t.Errorf("For(%s, %v) = [%v, %v], want [%v, %v]", tt.g, tt.ref, got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
			if got.Start.After(got.End) {
				t.Errorf("start after end: %v", got)
			}
			if !got.Contains(tt.ref) {
				t.Errorf("range %v does not contain reference %v", got, tt.ref)
			}
		})
	}
}

func TestWeekAlwaysStartsMonday(t *testing.T) {
	ref := date(2023, 12, 20)
	for i := 0; i < 60; i++ {
		r := For(Week, ref)
		if r.Start.Weekday() != time.Monday || r.End.Weekday() != time.Sunday {
			t.Fatalf("week for %v is %v..%v", ref, r.Start.Weekday(), r.End.Weekday())
		}
		if r.Days() != 7 {
			t.Fatalf("week for %v spans %d days", ref, r.Days())
		}
		ref = ref.AddDate(0, 0, 1)
	}
}

func TestShift(t *testing.T) {
	tests := []struct {
		name string
		g    Granularity
		ref  time.Time
		dir  Direction
		want time.Time
	}{
		{"day forward", Day, date(2024, 2, 28), Forward, date(2024, 2, 29)},
		{"day backward over year", Day, date(2024, 1, 1), Backward, date(2023, 12, 31)},
		{"week forward", Week, date(2024, 1, 3), Forward, date(2024, 1, 10)},
		{"week backward", Week, date(2024, 1, 3), Backward, date(2023, 12, 27)},
		{"month forward", Month, date(2024, 3, 15), Forward, date(2024, 4, 15)},
		{"month backward over year", Month, date(2024, 1, 15), Backward, date(2023, 12, 15)},
		{"month forward over year", Month, date(2023, 12, 10), Forward, date(2024, 1, 10)},
		{"month clamps to leap day", Month, date(2024, 1, 31), Forward, date(2024, 2, 29)},
		{"month clamps to common february", Month, date(2023, 1, 31), Forward, date(2023, 2, 28)},
		{"month clamps to thirty days", Month, date(2024, 5, 31), Backward, date(2024, 4, 30)},
		{"year forward", Year, date(2023, 6, 1), Forward, date(2024, 6, 1)},
		{"year clamps leap day", Year, date(2024, 2, 29), Forward, date(2025, 2, 28)},
		{"year backward", Year, date(2024, 2, 29), Backward, date(2023, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Shift(tt.g, tt.ref, tt.dir)
			if !got.Equal(tt.want) {
				t.Errorf("Shift(%s, %v, %d) = %v, want %v", tt.g, tt.ref, tt.dir, got, tt.want)
			}
		})
	}
}

func TestShiftPreservesTimeOfDay(t *testing.T) {
	ref := time.Date(2024, 1, 31, 13, 14, 15, 0, time.Local)
	got := Shift(Month, ref, Forward)
	want := time.Date(2024, 2, 29, 13, 14, 15, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMonthShiftMultipleSteps(t *testing.T) {
	c := MonthCalculator{}
	if got := c.Shift(date(2024, 3, 31), -13); !got.Equal(date(2023, 2, 28)) {
		t.Fatalf("got %v", got)
	}
	if got := c.Shift(date(2024, 11, 30), 14); !got.Equal(date(2026, 1, 30)) {
		t.Fatalf("got %v", got)
	}
}

func TestDaysIn(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, tc := range cases {
		if got := DaysIn(tc.year, tc.month); got != tc.want {
			t.Errorf("DaysIn(%d, %s) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestParseGranularity(t *testing.T) {
	for in, want := range map[string]Granularity{"day": Day, "Daily": Day, "week": Week, "monthly": Month, " YEAR ": Year} {
		got, err := ParseGranularity(in)
		if err != nil || got != want {
			t.Errorf("ParseGranularity(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseGranularity("quarter"); err == nil {
		t.Error("expected error for unknown granularity")
	}
	if Granularity("quarter").IsValid() {
		t.Error("quarter should not be valid")
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("next"); err != nil || d != Forward {
		t.Errorf("next -> %d, %v", d, err)
	}
	if d, err := ParseDirection("prev"); err != nil || d != Backward {
		t.Errorf("prev -> %d, %v", d, err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("expected error")
	}
}

func TestCustomNormalisesOrder(t *testing.T) {
	r := Custom(date(2024, 3, 10), time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local))
	if !r.Start.Equal(date(2024, 3, 1)) || !r.End.Equal(endOf(2024, 3, 10)) {
		t.Fatalf("unexpected custom range %v", r)
	}
}

func TestForPanicsOnUnknownGranularity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	For(Granularity("fortnight"), date(2024, 1, 1))
}
