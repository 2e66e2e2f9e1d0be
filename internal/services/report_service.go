package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"dompet/internal/cache"
	"dompet/internal/core"
	"dompet/internal/ledger"
	"dompet/internal/navigation"
	"dompet/internal/period"
	"dompet/internal/report"
	"dompet/internal/sheets"
)

// Snapshot is the full in-memory ledger the report functions run over.
type Snapshot struct {
	Transactions []core.Transaction
	Categories   []core.Category
}

type (
	// SummaryView is a Summary for a selection plus the all-time balance.
	SummaryView struct {
		Range          *period.Range
		Summary        report.Summary
		OverallBalance core.Money
	}

	TransactionsView struct {
		Transactions []core.Transaction
		SummaryView
	}

	BucketsView[B report.Slot] struct {
		Buckets []B
		Chart   report.ChartData
	}
)

// LedgerReader is the read side of a store that reports are built from.
type LedgerReader interface {
	ledger.TransactionReader
	ledger.CategoryReader
}

// ReportService answers report queries from a memoized ledger snapshot.
// Snapshots and summaries are cached until Invalidate is called.
type ReportService struct {
	store     LedgerReader
	snapshots *cache.Memo[Snapshot]
	summaries *cache.Memo[SummaryView]
	now       func() time.Time
	topLimit  int
}

type ReportOption func(*ReportService)

// WithCaches replaces the default in-process caches, e.g. with Redis.
func WithCaches(snapshots cache.Cache[Snapshot], summaries cache.Cache[SummaryView]) ReportOption {
	return func(s *ReportService) {
		s.snapshots = cache.NewMemo(snapshots)
		s.summaries = cache.NewMemo(summaries)
	}
}

func WithClock(now func() time.Time) ReportOption {
	return func(s *ReportService) { s.now = now }
}

func WithTopLimit(n int) ReportOption {
	return func(s *ReportService) {
		if n > 0 {
			s.topLimit = n
		}
	}
}

func NewReportService(store LedgerReader, opts ...ReportOption) *ReportService {
	s := &ReportService{
		store:     store,
		snapshots: cache.NewMemo[Snapshot](cache.NewLRUCache[Snapshot](1, 5*time.Minute)),
		summaries: cache.NewMemo[SummaryView](cache.NewLRUCache[SummaryView](200, 5*time.Minute)),
		now:       time.Now,
		topLimit:  report.DefaultTopLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate drops every cached snapshot and summary.
func (s *ReportService) Invalidate(ctx context.Context) {
	s.snapshots.Invalidate(ctx)
	s.summaries.Invalidate(ctx)
}

const snapshotKey = "snapshot"

// Snapshot loads transactions and categories concurrently.
func (s *ReportService) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.snapshots.Do(ctx, snapshotKey, func(ctx context.Context) (Snapshot, error) {
		var snap Snapshot
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			ts, err := s.store.ListTransactions(gctx)
			if err != nil {
				return fmt.Errorf("load transactions: %w", err)
			}
			snap.Transactions = ts
			return nil
		})
		g.Go(func() error {
			cs, err := s.store.ListCategories(gctx, nil)
			if err != nil {
				return fmt.Errorf("load categories: %w", err)
			}
			snap.Categories = cs
			return nil
		})
		if err := g.Wait(); err != nil {
			return Snapshot{}, err
		}
		return snap, nil
	})
}

// Transactions returns the filtered list with its summary.
func (s *ReportService) Transactions(ctx context.Context, c report.Criteria) (TransactionsView, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return TransactionsView{}, err
	}
	selected := report.FilterTransactions(snap.Transactions, c)
	return TransactionsView{
		Transactions: selected,
		SummaryView:  s.summaryView(snap, selected, c.Range),
	}, nil
}

// Summary aggregates the selection described by c.
func (s *ReportService) Summary(ctx context.Context, c report.Criteria) (SummaryView, error) {
	return s.summaries.Do(ctx, criteriaKey(c), func(ctx context.Context) (SummaryView, error) {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return SummaryView{}, err
		}
		return s.summaryView(snap, report.FilterTransactions(snap.Transactions, c), c.Range), nil
	})
}

// NavigationSummary summarizes the range a navigation state points at.
func (s *ReportService) NavigationSummary(ctx context.Context, st navigation.State) (SummaryView, error) {
	r := st.Range()
	return s.Summary(ctx, report.Criteria{Range: &r})
}

func (s *ReportService) summaryView(snap Snapshot, selected []core.Transaction, r *period.Range) SummaryView {
	all := report.Summarize(snap.Transactions)
	return SummaryView{Range: r, Summary: report.Summarize(selected), OverallBalance: all.Balance}
}

// Daily buckets the month after applying the kind and category filters of c.
// The range in c is ignored; the month defines it.
func (s *ReportService) Daily(ctx context.Context, year int, month time.Month, c report.Criteria) (BucketsView[report.DayBucket], error) {
	ts, err := s.bucketInput(ctx, c)
	if err != nil {
		return BucketsView[report.DayBucket]{}, err
	}
	b := report.DailyBuckets(ts, year, month)
	return BucketsView[report.DayBucket]{Buckets: b, Chart: report.Chart(b)}, nil
}

func (s *ReportService) Weekly(ctx context.Context, year int, month time.Month, c report.Criteria) (BucketsView[report.WeekBucket], error) {
	ts, err := s.bucketInput(ctx, c)
	if err != nil {
		return BucketsView[report.WeekBucket]{}, err
	}
	b := report.WeeklyBuckets(ts, year, month)
	return BucketsView[report.WeekBucket]{Buckets: b, Chart: report.Chart(b)}, nil
}

func (s *ReportService) Monthly(ctx context.Context, year int, c report.Criteria) (BucketsView[report.MonthBucket], error) {
	ts, err := s.bucketInput(ctx, c)
	if err != nil {
		return BucketsView[report.MonthBucket]{}, err
	}
	b := report.MonthlyBuckets(ts, year, s.now())
	return BucketsView[report.MonthBucket]{Buckets: b, Chart: report.Chart(b)}, nil
}

// Yearly buckets every year present after filtering by c, range included.
func (s *ReportService) Yearly(ctx context.Context, c report.Criteria) (BucketsView[report.YearBucket], error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return BucketsView[report.YearBucket]{}, err
	}
	b := report.YearlyBuckets(report.FilterTransactions(snap.Transactions, c))
	return BucketsView[report.YearBucket]{Buckets: b, Chart: report.Chart(b)}, nil
}

func (s *ReportService) bucketInput(ctx context.Context, c report.Criteria) ([]core.Transaction, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	c.Range = nil
	return report.FilterTransactions(snap.Transactions, c), nil
}

// TopCategories ranks categories of kind within c. A non-positive limit
// uses the configured default.
func (s *ReportService) TopCategories(ctx context.Context, kind core.Kind, c report.Criteria, limit int) ([]report.CategoryBreakdownEntry, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.topLimit
	}
	c.Kind = nil
	selected := report.FilterTransactions(snap.Transactions, c)
	return report.TopCategories(selected, kind, snap.Categories, limit), nil
}

// MonthReport builds the published view of one month.
func (s *ReportService) MonthReport(ctx context.Context, year int, month time.Month) (sheets.MonthReport, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return sheets.MonthReport{}, err
	}
	r := period.For(period.Month, time.Date(year, month, 1, 0, 0, 0, 0, time.Local))
	selected := report.FilterTransactions(snap.Transactions, report.Criteria{Range: &r})
	return sheets.MonthReport{
		Year:        year,
		Month:       month,
		Summary:     report.Summarize(selected),
		TopExpenses: report.TopCategories(selected, core.Expense, snap.Categories, s.topLimit),
		TopIncome:   report.TopCategories(selected, core.Income, snap.Categories, s.topLimit),
	}, nil
}

// YearReport builds the published view of a whole year.
func (s *ReportService) YearReport(ctx context.Context, year int) (sheets.YearReport, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return sheets.YearReport{}, err
	}
	r := period.For(period.Year, time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local))
	selected := report.FilterTransactions(snap.Transactions, report.Criteria{Range: &r})
	return sheets.YearReport{
		Year:   year,
		Months: report.MonthlyBuckets(selected, year, s.now()),
		Total:  report.Summarize(selected),
	}, nil
}

func criteriaKey(c report.Criteria) string {
	key := "summary"
	if c.Range != nil {
		key += ":" + strconv.FormatInt(c.Range.Start.UnixMilli(), 10) + "-" + strconv.FormatInt(c.Range.End.UnixMilli(), 10)
	} else {
		key += ":all"
	}
	if c.Kind != nil {
		key += ":" + string(*c.Kind)
	} else {
		key += ":any"
	}
	if c.CategoryID != nil {
		key += ":" + strconv.FormatInt(*c.CategoryID, 10)
	} else {
		key += ":any"
	}
	return key
}
