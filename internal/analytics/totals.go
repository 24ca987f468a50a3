// Package analytics derives the dashboard figures from a ledger snapshot.
//
// Every function here is pure: the same ledger always yields the same
// result, nothing errors, and empty inputs produce zeros rather than NaN.
package analytics

import (
	"slices"

	"rupaiya/internal/core"
)

// Filter selects the records that contribute to a total.
type Filter func(core.Transaction) bool

// All keeps every record.
func All() Filter { return func(core.Transaction) bool { return true } }

// ForMonth keeps records of a single YYYY-MM month.
func ForMonth(key string) Filter {
	return func(t core.Transaction) bool { return t.Month == key }
}

// ForPeriod keeps records whose period key for tf equals key.
func ForPeriod(tf core.Timeframe, key string) Filter {
	return func(t core.Transaction) bool { return core.PeriodKey(tf, t.Date) == key }
}

type Totals struct {
	Income      core.Money `json:"income"`
	Expenses    core.Money `json:"expenses"`
	Investments core.Money `json:"investments"`
	Savings     core.Money `json:"savings"`
}

// Sum adds the amounts of the records accepted by f.
func Sum[T core.Record](recs []T, f Filter) core.Money {
	var m core.Money
	for _, r := range recs {
		if b := r.Base(); f(b) {
			m = m.Add(b.Amount)
		}
	}
	return m
}

// ComputeTotals sums each collection under f. Savings is income minus
// expenses minus investments and may be negative.
func ComputeTotals(l core.Ledger, f Filter) Totals {
	t := Totals{
		Income:      Sum(l.Incomes, f),
		Expenses:    Sum(l.Expenses, f),
		Investments: Sum(l.Investments, f),
	}
	t.Savings = t.Income.Sub(t.Expenses).Sub(t.Investments)
	return t
}

// Split is the needs versus wants share of a set of expenses.
type Split struct {
	Needs    core.Money `json:"needs"`
	Wants    core.Money `json:"wants"`
	NeedsPct int64      `json:"needsPct"`
	WantsPct int64      `json:"wantsPct"`
}

// NeedsWants splits expenses by type. NeedsPct is rounded half-up and
// WantsPct is its complement so the two always add up to 100, or are both
// zero when there is nothing to split.
func NeedsWants(expenses []core.Expense) Split {
	var s Split
	for _, e := range expenses {
		switch e.Type {
		case core.Needs:
			s.Needs = s.Needs.Add(e.Amount)
		case core.Wants:
			s.Wants = s.Wants.Add(e.Amount)
		}
	}
	total := s.Needs.Add(s.Wants)
	if total.Cents <= 0 {
		return s
	}
	// floor(100*needs/total + 1/2) without leaving integer arithmetic.
	s.NeedsPct = (200*s.Needs.Cents + total.Cents) / (2 * total.Cents)
	s.WantsPct = 100 - s.NeedsPct
	return s
}

// CategoryAmount is an amount aggregated under a label.
type CategoryAmount struct {
	Name   string     `json:"name"`
	Amount core.Money `json:"amount"`
}

// CategoryBreakdown groups expenses of one type by category, largest first.
// Categories with equal totals keep the order in which they first appear.
func CategoryBreakdown(expenses []core.Expense, typ core.ExpenseType) []CategoryAmount {
	out := group(expenses, func(e core.Expense) (string, bool) {
		return e.Category, e.Type == typ
	})
	slices.SortStableFunc(out, func(a, b CategoryAmount) int {
		switch {
		case a.Amount.Cents > b.Amount.Cents:
			return -1
		case a.Amount.Cents < b.Amount.Cents:
			return 1
		}
		return 0
	})
	return out
}

// InvestmentBreakdown sums investments per type across all time, in the
// order each type first appears.
func InvestmentBreakdown(investments []core.Investment) []CategoryAmount {
	return group(investments, func(inv core.Investment) (string, bool) {
		return inv.Type, true
	})
}

func group[T core.Record](recs []T, key func(T) (string, bool)) []CategoryAmount {
	idx := make(map[string]int)
	var out []CategoryAmount
	for _, r := range recs {
		name, ok := key(r)
		if !ok {
			continue
		}
		i, seen := idx[name]
		if !seen {
			i = len(out)
			idx[name] = i
			out = append(out, CategoryAmount{Name: name})
		}
		out[i].Amount = out[i].Amount.Add(r.Base().Amount)
	}
	return out
}
