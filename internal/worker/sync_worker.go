package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/core"
)

// ReportSyncer publishes derived reports for a period.
type ReportSyncer interface {
	SyncMonth(ctx context.Context, year int, month time.Month) error
	SyncYear(ctx context.Context, year int) error
}

// Invalidator drops cached report state built from an older ledger.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// SyncWorker turns ledger change events into report republishes.
type SyncWorker struct {
	syncer      ReportSyncer
	invalidator Invalidator
	now         func() time.Time
}

// NewSyncWorker wires the worker. invalidator may be nil when the report
// caches are shared with the writer and already purged on write.
func NewSyncWorker(syncer ReportSyncer, invalidator Invalidator) *SyncWorker {
	return &SyncWorker{syncer: syncer, invalidator: invalidator, now: time.Now}
}

type yearMonth struct {
	year  int
	month time.Month
}

// HandleLedgerChanged republishes every month touched by the change, then
// the enclosing years. Category changes can relabel any month, so they
// refresh the current year as a whole.
func (w *SyncWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChanged) error {
	slog.InfoContext(ctx, "Processing ledger change",
		"event_id", msg.EventID,
		"entity", msg.Entity,
		"operation", msg.Operation,
		"id", msg.ID)

	if w.invalidator != nil {
		w.invalidator.Invalidate(ctx)
	}

	if msg.Entity == amqp.EntityCategory {
		year := w.now().Year()
		if err := w.syncer.SyncYear(ctx, year); err != nil {
			return fmt.Errorf("sync year %d after category change: %w", year, err)
		}
		return nil
	}

	months, years := affectedPeriods(msg.Dates)
	if len(months) == 0 {
		slog.WarnContext(ctx, "Ledger change carries no usable dates, refreshing current year",
			"event_id", msg.EventID,
			"dates", msg.Dates)
		years = []int{w.now().Year()}
	}

	var errs []error
	for _, ym := range months {
		if err := w.syncer.SyncMonth(ctx, ym.year, ym.month); err != nil {
			errs = append(errs, err)
		}
	}
	for _, y := range years {
		if err := w.syncer.SyncYear(ctx, y); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("sync reports for event %s: %w", msg.EventID, err)
	}
	return nil
}

// affectedPeriods returns the distinct months and years of dates in
// ascending order. Unparseable dates are skipped.
func affectedPeriods(dates []string) ([]yearMonth, []int) {
	seenMonth := map[yearMonth]bool{}
	seenYear := map[int]bool{}
	var months []yearMonth
	var years []int
	for _, d := range dates {
		t, err := core.ParseDate(d)
		if err != nil {
			continue
		}
		ym := yearMonth{t.Year(), t.Month()}
		if !seenMonth[ym] {
			seenMonth[ym] = true
			months = append(months, ym)
		}
		if !seenYear[ym.year] {
			seenYear[ym.year] = true
			years = append(years, ym.year)
		}
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})
	sort.Ints(years)
	return months, years
}

// StartupSyncCheck republishes the current year so reports missed while
// the worker was down are caught up.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	year := w.now().Year()
	if err := w.syncer.SyncYear(ctx, year); err != nil {
		return fmt.Errorf("startup sync of %d: %w", year, err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "year", year)
	return nil
}
