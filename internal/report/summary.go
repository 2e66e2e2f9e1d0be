package report

import "dompet/internal/core"

// Summary aggregates a selection of transactions. Amounts are magnitudes;
// Balance is Income minus Expense.
type Summary struct {
	Income         core.Money
	Expense        core.Money
	Balance        core.Money
	TotalCount     int
	IncomeCount    int
	ExpenseCount   int
	AverageIncome  core.Money
	AverageExpense core.Money
}

// Summarize reduces ts in one pass. An empty input yields the zero Summary.
func Summarize(ts []core.Transaction) Summary {
	var s Summary
	for _, t := range ts {
		amt := t.Amount.Abs()
		switch t.Kind {
		case core.Income:
			s.Income = s.Income.Add(amt)
			s.IncomeCount++
		case core.Expense:
			s.Expense = s.Expense.Add(amt)
			s.ExpenseCount++
		default:
			continue
		}
		s.TotalCount++
	}
	s.Balance = s.Income.Sub(s.Expense)
	s.AverageIncome = average(s.Income, s.IncomeCount)
	s.AverageExpense = average(s.Expense, s.ExpenseCount)
	return s
}

// average rounds half away from zero and is zero when n is zero.
func average(total core.Money, n int) core.Money {
	if n == 0 {
		return core.Money{}
	}
	c := int64(n)
	q, r := total.Cents/c, total.Cents%c
	if 2*r >= c {
		q++
	}
	return core.Money{Cents: q}
}

// totals sums income and expense magnitudes of ts.
func totals(ts []core.Transaction) (income, expense core.Money) {
	for _, t := range ts {
		switch t.Kind {
		case core.Income:
			income = income.Add(t.Amount.Abs())
		case core.Expense:
			expense = expense.Add(t.Amount.Abs())
		}
	}
	return income, expense
}
