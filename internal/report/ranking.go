package report

import (
	"sort"

	"dompet/internal/core"
)

// DefaultTopLimit is the ranking size used when the caller passes a
// non-positive limit.
const DefaultTopLimit = 5

// Fallback presentation for transactions whose category cannot be resolved.
const (
	OtherCategoryName  = "Lainnya"
	OtherCategoryIcon  = "help-circle"
	OtherCategoryColor = "#9E9E9E"
)

// CategoryBreakdownEntry is one row of a top-categories ranking.
type CategoryBreakdownEntry struct {
	CategoryID            int64 // 0 for the fallback entry
	CategoryName          string
	Icon                  string
	Color                 string
	Amount                core.Money
	Count                 int
	PercentageOfKindTotal float64
	PercentageOfKindCount float64
}

// TopCategories ranks the categories of kind in ts by summed magnitude.
// Transactions pointing at unknown categories are pooled into a single
// "Lainnya" entry so their amounts still count. Ties keep first-seen order.
func TopCategories(ts []core.Transaction, kind core.Kind, categories []core.Category, limit int) []CategoryBreakdownEntry {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	known := make(map[int64]core.Category, len(categories))
	for _, c := range categories {
		known[c.ID] = c
	}

	var (
		entries   []CategoryBreakdownEntry
		position  = map[int64]int{}
		kindTotal core.Money
		kindCount int
	)
	for _, t := range ts {
		if t.Kind != kind {
			continue
		}
		key := t.CategoryID
		if _, ok := known[key]; !ok {
			key = 0
		}
		i, seen := position[key]
		if !seen {
			i = len(entries)
			position[key] = i
			entries = append(entries, newEntry(key, known))
		}
		amt := t.Amount.Abs()
		entries[i].Amount = entries[i].Amount.Add(amt)
		entries[i].Count++
		kindTotal = kindTotal.Add(amt)
		kindCount++
	}

	for i := range entries {
		entries[i].PercentageOfKindTotal = percent(entries[i].Amount.Cents, kindTotal.Cents)
		entries[i].PercentageOfKindCount = percent(int64(entries[i].Count), int64(kindCount))
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Amount.Cents > entries[b].Amount.Cents
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []CategoryBreakdownEntry{}
	}
	return entries
}

func newEntry(id int64, known map[int64]core.Category) CategoryBreakdownEntry {
	if c, ok := known[id]; ok && id != 0 {
		return CategoryBreakdownEntry{CategoryID: c.ID, CategoryName: c.Name, Icon: c.Icon, Color: c.Color}
	}
	return CategoryBreakdownEntry{CategoryName: OtherCategoryName, Icon: OtherCategoryIcon, Color: OtherCategoryColor}
}

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
