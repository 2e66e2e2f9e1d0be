// Package memory is a ReportPublisher that keeps the latest report per
// period in process. It stands in for the spreadsheet when none is
// configured.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dompet/internal/sheets"
)

type monthKey struct {
	year  int
	month time.Month
}

type Publisher struct {
	mu     sync.Mutex
	months map[monthKey]sheets.MonthReport
	years  map[int]sheets.YearReport
	writes int
}

var _ sheets.ReportPublisher = (*Publisher)(nil)

func New() *Publisher {
	return &Publisher{
		months: map[monthKey]sheets.MonthReport{},
		years:  map[int]sheets.YearReport{},
	}
}

func (p *Publisher) PublishMonth(ctx context.Context, r sheets.MonthReport) error {
	p.mu.Lock()
	p.months[monthKey{r.Year, r.Month}] = r
	p.writes++
	p.mu.Unlock()
	slog.DebugContext(ctx, "Month report recorded",
		"year", r.Year,
		"month", int(r.Month),
		"balance_cents", r.Summary.Balance.Cents)
	return nil
}

func (p *Publisher) PublishYear(ctx context.Context, r sheets.YearReport) error {
	p.mu.Lock()
	p.years[r.Year] = r
	p.writes++
	p.mu.Unlock()
	slog.DebugContext(ctx, "Year report recorded", "year", r.Year, "months", len(r.Months))
	return nil
}

// Month returns the last published report for the month.
func (p *Publisher) Month(year int, month time.Month) (sheets.MonthReport, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.months[monthKey{year, month}]
	return r, ok
}

// Year returns the last published report for the year.
func (p *Publisher) Year(year int) (sheets.YearReport, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.years[year]
	return r, ok
}

// Writes counts publish calls so far.
func (p *Publisher) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}
