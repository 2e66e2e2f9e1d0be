package core

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	for _, in := range []string{"income", "EXPENSE", " Income "} {
		if _, err := ParseKind(in); err != nil {
			t.Fatalf("ParseKind(%q) unexpected error: %v", in, err)
		}
	}
	if _, err := ParseKind("transfer"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2024-03-05", true, time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local)},
		{"2024-03-05T10:30:00", true, time.Date(2024, 3, 5, 10, 30, 0, 0, time.Local)},
		{"2024-03-05T10:30:00.250", true, time.Date(2024, 3, 5, 10, 30, 0, 250_000_000, time.Local)},
		{"2024-03-05 10:30:00", true, time.Date(2024, 3, 5, 10, 30, 0, 0, time.Local)},
		{"", false, time.Time{}},
		{"not-a-date", false, time.Time{}},
		{"2024-13-01", false, time.Time{}},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(tc.want) {
				t.Fatalf("ParseDate(%q) = %v (err=%v), want %v", tc.in, got, err, tc.want)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("ParseDate(%q) expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}

func TestParseDateWithOffsetKeepsInstant(t *testing.T) {
	got, err := ParseDate("2024-03-05T10:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("instant changed: %v", got)
	}
	if got.Location() != time.Local {
		t.Fatalf("expected local location, got %v", got.Location())
	}
}

func TestFormatDateRoundTrip(t *testing.T) {
	in := time.Date(2024, 2, 29, 23, 59, 59, 999_000_000, time.Local)
	got, err := ParseDate(FormatDate(in))
	if err != nil || !got.Equal(in) {
		t.Fatalf("round trip mismatch: %v (err=%v)", got, err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Kind: Expense, Amount: Money{Cents: 100}, CategoryID: 1, Date: "2025-01-01"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Kind: "x", Amount: Money{Cents: 1}, CategoryID: 1, Date: "2025-01-01"}, ErrInvalidKind},
		{Transaction{Kind: Income, Amount: Money{}, CategoryID: 1, Date: "2025-01-01"}, ErrInvalidAmount},
		{Transaction{Kind: Expense, Amount: Money{Cents: math.MinInt64}, CategoryID: 1, Date: "2025-01-01"}, ErrInvalidAmount},
		{Transaction{Kind: Income, Amount: Money{Cents: MaxAmountCents + 1}, CategoryID: 1, Date: "2025-01-01"}, ErrInvalidAmount},
		{Transaction{Kind: Income, Amount: Money{Cents: 1}, CategoryID: 0, Date: "2025-01-01"}, ErrInvalidCategory},
		{Transaction{Kind: Income, Amount: Money{Cents: 1}, CategoryID: 1, Date: "yesterday"}, ErrInvalidDate},
		{Transaction{Kind: Income, Amount: Money{Cents: 1}, CategoryID: 1, Date: "2025-01-01", Description: strings.Repeat("a", 201)}, ErrDescriptionLong},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestTransactionTime(t *testing.T) {
	if _, ok := (Transaction{Date: "garbage"}).Time(); ok {
		t.Fatal("expected malformed date to report !ok")
	}
	ts, ok := (Transaction{Date: "2024-01-07"}).Time()
	if !ok || ts.Weekday() != time.Sunday {
		t.Fatalf("unexpected time %v ok=%v", ts, ok)
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Makan", Kind: Expense}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Name: "  ", Kind: Expense}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := (Category{Name: "Gaji", Kind: "both"}).Validate(); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}
