package report

// Slot is any bucket variant that can be plotted.
type Slot interface {
	Base() Bucket
	Label() string
}

// ChartData is a bar/line chart series set in minor units. Cumulative is the
// running balance across the slots in the given order.
type ChartData struct {
	Labels     []string
	Income     []int64
	Expense    []int64
	Balance    []int64
	Cumulative []int64
}

// Chart flattens buckets into parallel series.
func Chart[S Slot](slots []S) ChartData {
	cd := ChartData{
		Labels:     make([]string, len(slots)),
		Income:     make([]int64, len(slots)),
		Expense:    make([]int64, len(slots)),
		Balance:    make([]int64, len(slots)),
		Cumulative: make([]int64, len(slots)),
	}
	var running int64
	for i, s := range slots {
		b := s.Base()
		running += b.Balance.Cents
		cd.Labels[i] = s.Label()
		cd.Income[i] = b.Income.Cents
		cd.Expense[i] = b.Expense.Cents
		cd.Balance[i] = b.Balance.Cents
		cd.Cumulative[i] = running
	}
	return cd
}
