package analytics

import (
	"github.com/shopspring/decimal"

	"rupaiya/internal/core"
)

type Averages struct {
	AvgSalary                core.Money `json:"avgSalary"`
	AvgExpenses              core.Money `json:"avgExpenses"`
	AvgInvestments           core.Money `json:"avgInvestments"`
	AvgSavings               core.Money `json:"avgSavings"`
	TotalInvestmentsTillDate core.Money `json:"totalInvestmentsTillDate"`
	Months                   int        `json:"months"`
}

// LifetimeAverages averages income, expenses and investments over the
// distinct months that have any income or expense. Months holding only
// investments are left out of the averages but still count towards
// TotalInvestmentsTillDate.
//
// Each average is rounded half-up to the cent and AvgSavings is derived from
// the rounded figures, so AvgSalary - AvgExpenses - AvgInvestments ==
// AvgSavings holds exactly.
func LifetimeAverages(l core.Ledger) Averages {
	months := make(map[string]struct{})
	for _, r := range l.Incomes {
		months[r.Month] = struct{}{}
	}
	for _, r := range l.Expenses {
		months[r.Month] = struct{}{}
	}
	if len(months) == 0 {
		return Averages{}
	}

	all := All()
	totalIncome := Sum(l.Incomes, all)
	totalExpenses := Sum(l.Expenses, all)
	totalInvestments := Sum(l.Investments, all)
	investmentsInMonths := Sum(l.Investments, func(t core.Transaction) bool {
		_, ok := months[t.Month]
		return ok
	})

	n := decimal.NewFromInt(int64(len(months)))
	avg := func(m core.Money) core.Money {
		return core.Cents(decimal.NewFromInt(m.Cents).DivRound(n, 0).IntPart())
	}

	a := Averages{
		AvgSalary:                avg(totalIncome),
		AvgExpenses:              avg(totalExpenses),
		AvgInvestments:           avg(investmentsInMonths),
		TotalInvestmentsTillDate: totalInvestments,
		Months:                   len(months),
	}
	a.AvgSavings = a.AvgSalary.Sub(a.AvgExpenses).Sub(a.AvgInvestments)
	return a
}
