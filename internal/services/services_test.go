package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/ledger"
	"dompet/internal/ledger/memory"
	"dompet/internal/navigation"
	"dompet/internal/period"
	"dompet/internal/report"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.LedgerChanged
	err  error
}

func (p *recordingPublisher) PublishLedgerChanged(_ context.Context, msg *amqp.LedgerChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) last() *amqp.LedgerChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.msgs) == 0 {
		return nil
	}
	return p.msgs[len(p.msgs)-1]
}

// countingStore counts full ledger loads.
type countingStore struct {
	ledger.Store
	loads int32
	fail  error
}

func (s *countingStore) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	atomic.AddInt32(&s.loads, 1)
	if s.fail != nil {
		return nil, s.fail
	}
	return s.Store.ListTransactions(ctx)
}

func seededStore() *memory.Store {
	return memory.New([]core.Category{
		{Name: "Makan", Kind: core.Expense, Icon: "utensils", Color: "#f90"},
		{Name: "Gaji", Kind: core.Income, Icon: "briefcase", Color: "#4c5"},
	})
}

func mustCreate(t *testing.T, svc *LedgerService, kind core.Kind, cents, cat int64, date string) core.Transaction {
	t.Helper()
	tx, err := svc.CreateTransaction(context.Background(), core.Transaction{
		Kind: kind, Amount: core.Money{Cents: cents}, CategoryID: cat, Date: date,
	})
	if err != nil {
		t.Fatalf("create %s %d on %s: %v", kind, cents, date, err)
	}
	return tx
}

func TestLedgerService_CreateNormalizes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewLedgerService(seededStore(), pub)

	tx := mustCreate(t, svc, core.Expense, 50000, 1, "2024-03-05")
	if tx.Amount.Cents != -50000 {
		t.Errorf("expense should be stored negative, got %d", tx.Amount.Cents)
	}
	when, ok := tx.Time()
	if !ok || when.Year() != 2024 || when.Month() != time.March || when.Day() != 5 {
		t.Errorf("date not canonical: %q", tx.Date)
	}

	income := mustCreate(t, svc, core.Income, -1000, 2, "2024-03-06T10:00:00")
	if income.Amount.Cents != 1000 {
		t.Errorf("income should be stored positive, got %d", income.Amount.Cents)
	}

	msg := pub.last()
	if msg == nil || msg.Operation != amqp.OpCreated || msg.ID != income.ID || len(msg.Dates) != 1 {
		t.Fatalf("unexpected event %+v", msg)
	}
}

func TestLedgerService_RejectsUnknownCategory(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewLedgerService(seededStore(), pub)

	_, err := svc.CreateTransaction(context.Background(), core.Transaction{
		Kind: core.Expense, Amount: core.Money{Cents: 1}, CategoryID: 99, Date: "2024-01-01",
	})
	if !errors.Is(err, core.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if pub.last() != nil {
		t.Fatal("no event expected for a rejected write")
	}
}

func TestLedgerService_UpdateAndDeleteEvents(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewLedgerService(seededStore(), pub)

	tx := mustCreate(t, svc, core.Expense, 100, 1, "2024-01-31")
	tx.Date = "2024-02-01"
	updated, err := svc.UpdateTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	msg := pub.last()
	if msg.Operation != amqp.OpUpdated || len(msg.Dates) != 2 || msg.Dates[1] != updated.Date {
		t.Fatalf("update event %+v", msg)
	}

	if err := svc.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if msg := pub.last(); msg.Operation != amqp.OpDeleted || msg.Dates[0] != updated.Date {
		t.Fatalf("delete event %+v", msg)
	}

	before := len(pub.msgs)
	if err := svc.DeleteTransaction(ctx, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(pub.msgs) != before {
		t.Fatal("failed delete must not publish")
	}
}

func TestLedgerService_PublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewLedgerService(seededStore(), pub)
	mustCreate(t, svc, core.Income, 100, 2, "2024-01-01")

	svc = NewLedgerService(seededStore(), nil)
	mustCreate(t, svc, core.Income, 100, 2, "2024-01-01")
}

func TestLedgerService_CategoryEvents(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewLedgerService(seededStore(), pub)

	c, err := svc.CreateCategory(ctx, core.Category{Name: "Hiburan", Kind: core.Expense})
	if err != nil {
		t.Fatal(err)
	}
	if msg := pub.last(); msg.Entity != amqp.EntityCategory || msg.ID != c.ID || len(msg.Dates) != 0 {
		t.Fatalf("category event %+v", msg)
	}
	if err := svc.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteCategory(ctx, c.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLedgerService_Settings(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(seededStore(), nil)

	if g := svc.DefaultGranularity(ctx, period.Month); g != period.Month {
		t.Fatalf("fallback granularity = %s", g)
	}
	if err := svc.SetSetting(ctx, ledger.SettingDefaultGranularity, "weekly"); err != nil {
		t.Fatal(err)
	}
	if v, _ := svc.GetSetting(ctx, ledger.SettingDefaultGranularity); v != "week" {
		t.Fatalf("stored granularity = %q", v)
	}
	if g := svc.DefaultGranularity(ctx, period.Month); g != period.Week {
		t.Fatalf("granularity = %s", g)
	}
	if err := svc.SetSetting(ctx, ledger.SettingDefaultGranularity, "fortnight"); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting, got %v", err)
	}
	if err := svc.SetSetting(ctx, ledger.SettingCurrency, "IDR"); err != nil {
		t.Fatal(err)
	}
}

func newReportFixture(t *testing.T) (*LedgerService, *ReportService, *countingStore) {
	t.Helper()
	store := &countingStore{Store: seededStore()}
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.Local)
	reports := NewReportService(store, WithClock(func() time.Time { return now }), WithTopLimit(3))
	ledgerSvc := NewLedgerService(store, nil, reports)

	mustCreate(t, ledgerSvc, core.Expense, 50000, 1, "2024-03-05")
	mustCreate(t, ledgerSvc, core.Income, 200000, 2, "2024-03-10")
	mustCreate(t, ledgerSvc, core.Expense, 30000, 1, "2024-04-01")
	mustCreate(t, ledgerSvc, core.Expense, 7000, 1, "2023-12-31")
	return ledgerSvc, reports, store
}

func TestReportService_SummaryAndOverallBalance(t *testing.T) {
	ctx := context.Background()
	_, reports, _ := newReportFixture(t)

	r := period.For(period.Month, time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local))
	view, err := reports.Summary(ctx, report.Criteria{Range: &r})
	if err != nil {
		t.Fatal(err)
	}
	if view.Summary.Income.Cents != 200000 || view.Summary.Expense.Cents != 50000 || view.Summary.Balance.Cents != 150000 {
		t.Fatalf("march summary %+v", view.Summary)
	}
	if view.OverallBalance.Cents != 200000-50000-30000-7000 {
		t.Fatalf("overall balance %d", view.OverallBalance.Cents)
	}
}

func TestReportService_CachesUntilWrite(t *testing.T) {
	ctx := context.Background()
	ledgerSvc, reports, store := newReportFixture(t)

	all := report.Criteria{}
	first, err := reports.Summary(ctx, all)
	if err != nil {
		t.Fatal(err)
	}
	loads := atomic.LoadInt32(&store.loads)
	if _, err := reports.Summary(ctx, all); err != nil {
		t.Fatal(err)
	}
	if _, err := reports.Transactions(ctx, all); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&store.loads); got != loads {
		t.Fatalf("expected cached snapshot, loads went %d -> %d", loads, got)
	}

	mustCreate(t, ledgerSvc, core.Income, 1000, 2, "2024-05-01")
	second, err := reports.Summary(ctx, all)
	if err != nil {
		t.Fatal(err)
	}
	if second.Summary.TotalCount != first.Summary.TotalCount+1 {
		t.Fatalf("write not visible: %d -> %d", first.Summary.TotalCount, second.Summary.TotalCount)
	}
	if got := atomic.LoadInt32(&store.loads); got != loads+1 {
		t.Fatalf("expected one reload after write, loads=%d", got)
	}
}

func TestReportService_LoadErrorPropagates(t *testing.T) {
	store := &countingStore{Store: seededStore(), fail: errors.New("disk gone")}
	reports := NewReportService(store)
	if _, err := reports.Summary(context.Background(), report.Criteria{}); err == nil {
		t.Fatal("expected load error")
	}
	if _, err := reports.Yearly(context.Background(), report.Criteria{}); err == nil {
		t.Fatal("expected load error")
	}
}

func TestReportService_Buckets(t *testing.T) {
	ctx := context.Background()
	_, reports, _ := newReportFixture(t)
	expense := core.Expense

	daily, err := reports.Daily(ctx, 2024, time.March, report.Criteria{Kind: &expense})
	if err != nil {
		t.Fatal(err)
	}
	if len(daily.Buckets) != 31 || daily.Buckets[4].Expense.Cents != 50000 || daily.Buckets[9].Income.Cents != 0 {
		t.Fatalf("daily buckets wrong: %+v", daily.Buckets[4].Bucket)
	}
	if len(daily.Chart.Labels) != 31 {
		t.Fatalf("chart labels %d", len(daily.Chart.Labels))
	}

	weekly, err := reports.Weekly(ctx, 2024, time.February, report.Criteria{})
	if err != nil || len(weekly.Buckets) != 5 {
		t.Fatalf("weekly: %d err=%v", len(weekly.Buckets), err)
	}

	monthly, err := reports.Monthly(ctx, 2024, report.Criteria{})
	if err != nil {
		t.Fatal(err)
	}
	if len(monthly.Buckets) != 12 || !monthly.Buckets[2].IsCurrent || monthly.Buckets[3].Expense.Cents != 30000 {
		t.Fatalf("monthly buckets wrong")
	}

	yearly, err := reports.Yearly(ctx, report.Criteria{})
	if err != nil {
		t.Fatal(err)
	}
	if len(yearly.Buckets) != 2 || yearly.Buckets[0].Year != 2024 || yearly.Buckets[1].Year != 2023 {
		t.Fatalf("yearly buckets %+v", yearly.Buckets)
	}
}

func TestReportService_TopCategoriesAndMonthReport(t *testing.T) {
	ctx := context.Background()
	ledgerSvc, reports, _ := newReportFixture(t)

	if err := ledgerSvc.DeleteCategory(ctx, 1); err != nil {
		t.Fatal(err)
	}
	top, err := reports.TopCategories(ctx, core.Expense, report.Criteria{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0].CategoryName != report.OtherCategoryName || top[0].Amount.Cents != 87000 {
		t.Fatalf("top categories %+v", top)
	}

	mr, err := reports.MonthReport(ctx, 2024, time.March)
	if err != nil {
		t.Fatal(err)
	}
	if mr.Summary.Balance.Cents != 150000 || len(mr.TopIncome) != 1 || mr.TopIncome[0].CategoryName != "Gaji" {
		t.Fatalf("month report %+v", mr)
	}

	yr, err := reports.YearReport(ctx, 2023)
	if err != nil {
		t.Fatal(err)
	}
	if len(yr.Months) != 12 || yr.Total.Expense.Cents != 7000 || yr.Months[11].Expense.Cents != 7000 {
		t.Fatalf("year report total %+v", yr.Total)
	}
}

func TestReportService_NavigationSummary(t *testing.T) {
	ctx := context.Background()
	_, reports, _ := newReportFixture(t)

	st := navigation.NewState(period.Month, time.Date(2024, 4, 15, 0, 0, 0, 0, time.Local))
	view, err := reports.NavigationSummary(ctx, st)
	if err != nil {
		t.Fatal(err)
	}
	if view.Summary.Expense.Cents != 30000 || view.Summary.TotalCount != 1 {
		t.Fatalf("april summary %+v", view.Summary)
	}

	st.Navigate(period.Backward)
	view, err = reports.NavigationSummary(ctx, st)
	if err != nil {
		t.Fatal(err)
	}
	if view.Summary.TotalCount != 2 {
		t.Fatalf("march summary %+v", view.Summary)
	}
}

// gatedStore pauses the first full ledger load after it has read the store.
type gatedStore struct {
	ledger.Store
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func (s *gatedStore) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	ts, err := s.Store.ListTransactions(ctx)
	s.once.Do(func() {
		close(s.loaded)
		<-s.release
	})
	return ts, err
}

func TestReportService_WriteDuringLoadIsVisible(t *testing.T) {
	ctx := context.Background()
	store := &gatedStore{Store: seededStore(), loaded: make(chan struct{}), release: make(chan struct{})}
	reports := NewReportService(store)
	ledgerSvc := NewLedgerService(store, nil, reports)

	done := make(chan SummaryView, 1)
	go func() {
		view, err := reports.Summary(ctx, report.Criteria{})
		if err != nil {
			t.Errorf("summary: %v", err)
		}
		done <- view
	}()

	<-store.loaded
	mustCreate(t, ledgerSvc, core.Income, 1000, 2, "2024-03-01")
	close(store.release)
	if view := <-done; view.Summary.TotalCount != 0 {
		t.Fatalf("load started before the write saw %d transactions", view.Summary.TotalCount)
	}

	view, err := reports.Transactions(ctx, report.Criteria{})
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Transactions) != 1 || view.Summary.TotalCount != 1 {
		t.Fatalf("stale snapshot after write: got %d transactions, want 1", len(view.Transactions))
	}
	summary, err := reports.Summary(ctx, report.Criteria{})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Summary.TotalCount != 1 {
		t.Fatalf("stale summary after write: count %d", summary.Summary.TotalCount)
	}
}

func TestReportService_CancelledRequestDoesNotFailOthers(t *testing.T) {
	store := &gatedStore{Store: seededStore(), loaded: make(chan struct{}), release: make(chan struct{})}
	reports := NewReportService(store)

	cancelled, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := reports.Transactions(cancelled, report.Criteria{})
		firstErr <- err
	}()
	<-store.loaded

	healthy := make(chan error, 1)
	go func() {
		_, err := reports.Transactions(context.Background(), report.Criteria{})
		healthy <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled request got %v", err)
	}
	close(store.release)
	if err := <-healthy; err != nil {
		t.Fatalf("healthy request failed: %v", err)
	}
}
