package report

import (
	"sort"
	"strconv"
	"time"

	"dompet/internal/core"
	"dompet/internal/period"
)

// Bucket is one calendar slot of a list or chart view.
type Bucket struct {
	Index        int // 0-based position within the parent period
	Range        period.Range
	Transactions []core.Transaction
	Income       core.Money
	Expense      core.Money
	Balance      core.Money
}

type (
	DayBucket struct {
		Bucket
		Day int
	}

	// WeekBucket is a 7-day window counted from day 1 of the month; the last
	// window of a month may be shorter. It is not Monday-aligned.
	WeekBucket struct {
		Bucket
		Week     int // 1-based
		StartDay int
		EndDay   int
	}

	MonthBucket struct {
		Bucket
		Month     time.Month
		IsCurrent bool
	}

	YearBucket struct {
		Bucket
		Year int
	}
)

// Base returns the fields every variant shares. The variants embed Bucket,
// so Base is promoted to each of them and lets Chart and other Slot
// consumers read range, transactions and totals without a type switch.
func (b Bucket) Base() Bucket { return b }

func (b DayBucket) Label() string { return strconv.Itoa(b.Day) }

func (b WeekBucket) Label() string {
	return strconv.Itoa(b.StartDay) + "-" + strconv.Itoa(b.EndDay)
}

func (b MonthBucket) Label() string { return b.Month.String()[:3] }

func (b YearBucket) Label() string { return strconv.Itoa(b.Year) }

func newBucket(index int, r period.Range) Bucket {
	return Bucket{Index: index, Range: r, Transactions: []core.Transaction{}}
}

func (b *Bucket) finish() {
	b.Income, b.Expense = totals(b.Transactions)
	b.Balance = b.Income.Sub(b.Expense)
}

// DailyBuckets returns one bucket per calendar day of the month, in order.
// Transactions outside the month or with malformed dates are ignored.
func DailyBuckets(ts []core.Transaction, year int, month time.Month) []DayBucket {
	n := period.DaysIn(year, month)
	out := make([]DayBucket, n)
	for i := range out {
		day := time.Date(year, month, i+1, 0, 0, 0, 0, time.Local)
		out[i] = DayBucket{Bucket: newBucket(i, period.For(period.Day, day)), Day: i + 1}
	}
	for _, t := range ts {
		when, ok := t.Time()
		if !ok || when.Year() != year || when.Month() != month {
			continue
		}
		b := &out[when.Day()-1].Bucket
		b.Transactions = append(b.Transactions, t)
	}
	for i := range out {
		out[i].finish()
	}
	return out
}

// WeeklyBuckets splits the month into windows [d, d+6] starting at day 1,
// the last one clipped to the month end.
func WeeklyBuckets(ts []core.Transaction, year int, month time.Month) []WeekBucket {
	last := period.DaysIn(year, month)
	var out []WeekBucket
	for start := 1; start <= last; start += 7 {
		end := start + 6
		if end > last {
			end = last
		}
		r := period.Range{
			Start: time.Date(year, month, start, 0, 0, 0, 0, time.Local),
			End:   period.EndOfDay(time.Date(year, month, end, 0, 0, 0, 0, time.Local)),
		}
		idx := len(out)
		out = append(out, WeekBucket{Bucket: newBucket(idx, r), Week: idx + 1, StartDay: start, EndDay: end})
	}
	for _, t := range ts {
		when, ok := t.Time()
		if !ok || when.Year() != year || when.Month() != month {
			continue
		}
		b := &out[(when.Day()-1)/7].Bucket
		b.Transactions = append(b.Transactions, t)
	}
	for i := range out {
		out[i].finish()
	}
	return out
}

// MonthlyBuckets always returns twelve buckets, January first. A bucket is
// current when its year and month match now.
func MonthlyBuckets(ts []core.Transaction, year int, now time.Time) []MonthBucket {
	out := make([]MonthBucket, 12)
	for i := range out {
		m := time.Month(i + 1)
		first := time.Date(year, m, 1, 0, 0, 0, 0, time.Local)
		out[i] = MonthBucket{
			Bucket:    newBucket(i, period.For(period.Month, first)),
			Month:     m,
			IsCurrent: now.Year() == year && now.Month() == m,
		}
	}
	for _, t := range ts {
		when, ok := t.Time()
		if !ok || when.Year() != year {
			continue
		}
		b := &out[when.Month()-1].Bucket
		b.Transactions = append(b.Transactions, t)
	}
	for i := range out {
		out[i].finish()
	}
	return out
}

// YearlyBuckets returns one bucket per year present in ts, most recent first.
// Years without transactions are never synthesized.
func YearlyBuckets(ts []core.Transaction) []YearBucket {
	byYear := map[int][]core.Transaction{}
	for _, t := range ts {
		when, ok := t.Time()
		if !ok {
			continue
		}
		byYear[when.Year()] = append(byYear[when.Year()], t)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	out := make([]YearBucket, len(years))
	for i, y := range years {
		first := time.Date(y, time.January, 1, 0, 0, 0, 0, time.Local)
		b := newBucket(i, period.For(period.Year, first))
		b.Transactions = byYear[y]
		b.finish()
		out[i] = YearBucket{Bucket: b, Year: y}
	}
	return out
}
