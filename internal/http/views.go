package http

import (
	"dompet/internal/core"
	"dompet/internal/navigation"
	"dompet/internal/period"
	"dompet/internal/report"
	"dompet/internal/services"
)

// JSON shapes of the API. Money is sent twice: integer minor units for
// machines and a formatted string for display.

type transactionJSON struct {
	ID          int64   `json:"id"`
	Kind        string  `json:"kind"`
	AmountCents int64   `json:"amount_cents"`
	Amount      string  `json:"amount"`
	CategoryID  int64   `json:"category_id"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	CreatedAt   *string `json:"created_at,omitempty"`
}

func newTransactionJSON(t core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:          t.ID,
		Kind:        t.Kind.String(),
		AmountCents: t.Amount.Cents,
		Amount:      t.Amount.String(),
		CategoryID:  t.CategoryID,
		Description: t.Description,
		Date:        t.Date,
	}
	if t.CreatedAt != nil {
		s := formatTime(*t.CreatedAt)
		out.CreatedAt = &s
	}
	return out
}

func newTransactionsJSON(ts []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, len(ts))
	for i, t := range ts {
		out[i] = newTransactionJSON(t)
	}
	return out
}

type categoryJSON struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func newCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, Kind: c.Kind.String(), Icon: c.Icon, Color: c.Color}
}

type rangeJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

func newRangeJSON(r *period.Range) *rangeJSON {
	if r == nil {
		return nil
	}
	return &rangeJSON{Start: formatTime(r.Start), End: formatTime(r.End), Days: r.Days()}
}

type summaryJSON struct {
	IncomeCents         int64  `json:"income_cents"`
	Income              string `json:"income"`
	ExpenseCents        int64  `json:"expense_cents"`
	Expense             string `json:"expense"`
	BalanceCents        int64  `json:"balance_cents"`
	Balance             string `json:"balance"`
	TotalCount          int    `json:"total_count"`
	IncomeCount         int    `json:"income_count"`
	ExpenseCount        int    `json:"expense_count"`
	AverageIncomeCents  int64  `json:"average_income_cents"`
	AverageIncome       string `json:"average_income"`
	AverageExpenseCents int64  `json:"average_expense_cents"`
	AverageExpense      string `json:"average_expense"`
}

func newSummaryJSON(s report.Summary) summaryJSON {
	return summaryJSON{
		IncomeCents:         s.Income.Cents,
		Income:              s.Income.String(),
		ExpenseCents:        s.Expense.Cents,
		Expense:             s.Expense.String(),
		BalanceCents:        s.Balance.Cents,
		Balance:             s.Balance.String(),
		TotalCount:          s.TotalCount,
		IncomeCount:         s.IncomeCount,
		ExpenseCount:        s.ExpenseCount,
		AverageIncomeCents:  s.AverageIncome.Cents,
		AverageIncome:       s.AverageIncome.String(),
		AverageExpenseCents: s.AverageExpense.Cents,
		AverageExpense:      s.AverageExpense.String(),
	}
}

type summaryViewJSON struct {
	Range               *rangeJSON  `json:"range"`
	Summary             summaryJSON `json:"summary"`
	OverallBalanceCents int64       `json:"overall_balance_cents"`
	OverallBalance      string      `json:"overall_balance"`
}

func newSummaryViewJSON(v services.SummaryView) summaryViewJSON {
	return summaryViewJSON{
		Range:               newRangeJSON(v.Range),
		Summary:             newSummaryJSON(v.Summary),
		OverallBalanceCents: v.OverallBalance.Cents,
		OverallBalance:      v.OverallBalance.String(),
	}
}

type transactionsViewJSON struct {
	Transactions []transactionJSON `json:"transactions"`
	summaryViewJSON
}

func newTransactionsViewJSON(v services.TransactionsView) transactionsViewJSON {
	return transactionsViewJSON{
		Transactions:    newTransactionsJSON(v.Transactions),
		summaryViewJSON: newSummaryViewJSON(v.SummaryView),
	}
}

// bucketJSON covers every bucket variant; fields that do not apply to the
// view are omitted.
type bucketJSON struct {
	Index        int        `json:"index"`
	Label        string     `json:"label"`
	Range        *rangeJSON `json:"range"`
	IncomeCents  int64      `json:"income_cents"`
	ExpenseCents int64      `json:"expense_cents"`
	BalanceCents int64      `json:"balance_cents"`
	Count        int        `json:"count"`
	Day          int        `json:"day,omitempty"`
	Week         int        `json:"week,omitempty"`
	StartDay     int        `json:"start_day,omitempty"`
	EndDay       int        `json:"end_day,omitempty"`
	Month        int        `json:"month,omitempty"`
	IsCurrent    bool       `json:"is_current,omitempty"`
	Year         int        `json:"year,omitempty"`

	Transactions []transactionJSON `json:"transactions"`
}

func newBucketJSON(s report.Slot) bucketJSON {
	b := s.Base()
	return bucketJSON{
		Index:        b.Index,
		Label:        s.Label(),
		Range:        newRangeJSON(&b.Range),
		IncomeCents:  b.Income.Cents,
		ExpenseCents: b.Expense.Cents,
		BalanceCents: b.Balance.Cents,
		Count:        len(b.Transactions),
		Transactions: newTransactionsJSON(b.Transactions),
	}
}

func dayBucketJSON(b report.DayBucket) bucketJSON {
	out := newBucketJSON(b)
	out.Day = b.Day
	return out
}

func weekBucketJSON(b report.WeekBucket) bucketJSON {
	out := newBucketJSON(b)
	out.Week, out.StartDay, out.EndDay = b.Week, b.StartDay, b.EndDay
	return out
}

func monthBucketJSON(b report.MonthBucket) bucketJSON {
	out := newBucketJSON(b)
	out.Month, out.IsCurrent = int(b.Month), b.IsCurrent
	return out
}

func yearBucketJSON(b report.YearBucket) bucketJSON {
	out := newBucketJSON(b)
	out.Year = b.Year
	return out
}

type chartJSON struct {
	Labels     []string `json:"labels"`
	Income     []int64  `json:"income"`
	Expense    []int64  `json:"expense"`
	Balance    []int64  `json:"balance"`
	Cumulative []int64  `json:"cumulative"`
}

type bucketsViewJSON struct {
	View    string       `json:"view"`
	Buckets []bucketJSON `json:"buckets"`
	Chart   chartJSON    `json:"chart"`
}

func newBucketsViewJSON[B report.Slot](view string, v services.BucketsView[B], conv func(B) bucketJSON) bucketsViewJSON {
	out := bucketsViewJSON{
		View:    view,
		Buckets: make([]bucketJSON, len(v.Buckets)),
		Chart: chartJSON{
			Labels:     v.Chart.Labels,
			Income:     v.Chart.Income,
			Expense:    v.Chart.Expense,
			Balance:    v.Chart.Balance,
			Cumulative: v.Chart.Cumulative,
		},
	}
	for i, b := range v.Buckets {
		out.Buckets[i] = conv(b)
	}
	return out
}

type categoryBreakdownJSON struct {
	CategoryID            int64   `json:"category_id"`
	CategoryName          string  `json:"category_name"`
	Icon                  string  `json:"icon"`
	Color                 string  `json:"color"`
	AmountCents           int64   `json:"amount_cents"`
	Amount                string  `json:"amount"`
	Count                 int     `json:"count"`
	PercentageOfKindTotal float64 `json:"percentage_of_kind_total"`
	PercentageOfKindCount float64 `json:"percentage_of_kind_count"`
}

func newCategoryBreakdownJSON(entries []report.CategoryBreakdownEntry) []categoryBreakdownJSON {
	out := make([]categoryBreakdownJSON, len(entries))
	for i, e := range entries {
		out[i] = categoryBreakdownJSON{
			CategoryID:            e.CategoryID,
			CategoryName:          e.CategoryName,
			Icon:                  e.Icon,
			Color:                 e.Color,
			AmountCents:           e.Amount.Cents,
			Amount:                e.Amount.String(),
			Count:                 e.Count,
			PercentageOfKindTotal: e.PercentageOfKindTotal,
			PercentageOfKindCount: e.PercentageOfKindCount,
		}
	}
	return out
}

type navigationJSON struct {
	State   navigation.State `json:"state"`
	Summary summaryViewJSON  `json:"summary"`
}

type settingJSON struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
