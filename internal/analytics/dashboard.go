package analytics

import "rupaiya/internal/core"

// Dashboard is the month view of the ledger for a selected day.
type Dashboard struct {
	Month       string           `json:"month"`
	Totals      Totals           `json:"totals"`
	Split       Split            `json:"split"`
	Needs       []CategoryAmount `json:"needs"`
	Wants       []CategoryAmount `json:"wants"`
	Investments []CategoryAmount `json:"investments"`
	Averages    Averages         `json:"averages"`
}

// BuildDashboard assembles the figures for the month containing d. The
// investment grid and the averages cover all time.
func BuildDashboard(l core.Ledger, d core.Date) Dashboard {
	key := core.MonthKey(d)
	monthExpenses := core.FilterMonth(l.Expenses, key)
	return Dashboard{
		Month:       key,
		Totals:      ComputeTotals(l, ForMonth(key)),
		Split:       NeedsWants(monthExpenses),
		Needs:       CategoryBreakdown(monthExpenses, core.Needs),
		Wants:       CategoryBreakdown(monthExpenses, core.Wants),
		Investments: InvestmentBreakdown(l.Investments),
		Averages:    LifetimeAverages(l),
	}
}

// PeriodBreakdown is the needs/wants view of one period.
type PeriodBreakdown struct {
	Timeframe core.Timeframe   `json:"timeframe"`
	Period    string           `json:"period"`
	Periods   []string         `json:"periods"`
	Totals    Totals           `json:"totals"`
	Split     Split            `json:"split"`
	Needs     []CategoryAmount `json:"needs"`
	Wants     []CategoryAmount `json:"wants"`
}

// BuildBreakdown computes the period view. An empty key selects the newest
// period that has expenses.
func BuildBreakdown(l core.Ledger, tf core.Timeframe, key string) PeriodBreakdown {
	periods := core.AvailablePeriods(tf, l.Expenses)
	if key == "" && len(periods) > 0 {
		key = periods[0]
	}
	var inPeriod []core.Expense
	for _, e := range l.Expenses {
		if core.InPeriod(e, tf, key) {
			inPeriod = append(inPeriod, e)
		}
	}
	return PeriodBreakdown{
		Timeframe: tf,
		Period:    key,
		Periods:   periods,
		Totals:    ComputeTotals(l, ForPeriod(tf, key)),
		Split:     NeedsWants(inPeriod),
		Needs:     CategoryBreakdown(inPeriod, core.Needs),
		Wants:     CategoryBreakdown(inPeriod, core.Wants),
	}
}
