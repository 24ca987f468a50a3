package analytics

import (
	"fmt"
	"time"

	"rupaiya/internal/core"
)

// SeriesPoint holds the totals of one calendar month of a year.
type SeriesPoint struct {
	Month       string     `json:"month"`     // Jan
	FullMonth   string     `json:"fullMonth"` // January 2024
	Key         string     `json:"key"`       // 2024-01
	Income      core.Money `json:"income"`
	Expenses    core.Money `json:"expenses"`
	Investments core.Money `json:"investments"`
	Savings     core.Money `json:"savings"`
}

// ViewPoint is a single charted value.
type ViewPoint struct {
	Month     string     `json:"month"`
	FullMonth string     `json:"fullMonth"`
	Value     core.Money `json:"value"`
}

type Series struct {
	Year   int           `json:"year"`
	Points []SeriesPoint `json:"points"`
}

// MonthlySeries returns exactly twelve points, January to December of year.
func MonthlySeries(l core.Ledger, year int) Series {
	s := Series{Year: year, Points: make([]SeriesPoint, 12)}
	for i := range s.Points {
		m := time.Month(i + 1)
		key := fmt.Sprintf("%04d-%02d", year, int(m))
		t := ComputeTotals(l, ForMonth(key))
		s.Points[i] = SeriesPoint{
			Month:       m.String()[:3],
			FullMonth:   fmt.Sprintf("%s %d", m, year),
			Key:         key,
			Income:      t.Income,
			Expenses:    t.Expenses,
			Investments: t.Investments,
			Savings:     t.Savings,
		}
	}
	return s
}

// HasData is false when every month has zero savings; the chart shows an
// empty state in that case.
func (s Series) HasData() bool {
	for _, p := range s.Points {
		if !p.Savings.IsZero() {
			return true
		}
	}
	return false
}

func (s Series) SavingsView() []ViewPoint {
	return s.view(func(p SeriesPoint) core.Money { return p.Savings })
}

// ExpensesView charts the monthly expenses.
func (s Series) ExpensesView() []ViewPoint {
	return s.view(func(p SeriesPoint) core.Money { return p.Expenses })
}

func (s Series) view(v func(SeriesPoint) core.Money) []ViewPoint {
	out := make([]ViewPoint, len(s.Points))
	for i, p := range s.Points {
		out[i] = ViewPoint{Month: p.Month, FullMonth: p.FullMonth, Value: v(p)}
	}
	return out
}
