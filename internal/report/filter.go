// Package report turns a flat list of transactions into the views the
// reports screen needs: filtered selections, calendar buckets, summaries
// and per-category rankings.
//
// Every function here is pure. Inputs are never mutated and the caller
// supplies "now" wherever the result depends on the current date.
package report

import (
	"dompet/internal/core"
	"dompet/internal/period"
)

// Predicate selects transactions.
type Predicate func(core.Transaction) bool

// Criteria holds the optional filters of a selection. Nil fields are not applied.
type Criteria struct {
	Range      *period.Range
	Kind       *core.Kind
	CategoryID *int64
}

// InRange keeps transactions whose date parses and falls inside r.
// Transactions with malformed dates never match.
func InRange(r period.Range) Predicate {
	return func(t core.Transaction) bool {
		ts, ok := t.Time()
		return ok && r.Contains(ts)
	}
}

// OfKind keeps transactions of kind k.
func OfKind(k core.Kind) Predicate {
	return func(t core.Transaction) bool { return t.Kind == k }
}

// InCategory keeps transactions referencing category id.
func InCategory(id int64) Predicate {
	return func(t core.Transaction) bool { return t.CategoryID == id }
}

// Predicates returns the active filters in application order: category,
// kind, then date range (the most expensive check runs on the fewest rows).
func (c Criteria) Predicates() []Predicate {
	var preds []Predicate
	if c.CategoryID != nil {
		preds = append(preds, InCategory(*c.CategoryID))
	}
	if c.Kind != nil {
		preds = append(preds, OfKind(*c.Kind))
	}
	if c.Range != nil {
		preds = append(preds, InRange(*c.Range))
	}
	return preds
}

// FilterTransactions applies c to ts, preserving the original order.
func FilterTransactions(ts []core.Transaction, c Criteria) []core.Transaction {
	return Apply(ts, c.Predicates()...)
}

// Apply narrows ts by each predicate in turn. The result is a new slice;
// ts is left untouched.
func Apply(ts []core.Transaction, preds ...Predicate) []core.Transaction {
	out := make([]core.Transaction, 0, len(ts))
	out = append(out, ts...)
	for _, p := range preds {
		kept := out[:0]
		for _, t := range out {
			if p(t) {
				kept = append(kept, t)
			}
		}
		out = kept
	}
	return out
}
