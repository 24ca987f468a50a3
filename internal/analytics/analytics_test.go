package analytics

import (
	"reflect"
	"testing"

	"rupaiya/internal/core"
)

func inc(id string, y, m, d int, cents int64, src string) core.Income {
	return core.NewIncome(id, core.NewDate(y, m, d), core.Cents(cents), src, "")
}

func exp(id string, y, m, d int, cents int64, cat string, typ core.ExpenseType) core.Expense {
	return core.NewExpense(id, core.NewDate(y, m, d), core.Cents(cents), cat, typ, "")
}

func inv(id string, y, m, d int, cents int64, typ string) core.Investment {
	return core.NewInvestment(id, core.NewDate(y, m, d), core.Cents(cents), typ, "")
}

func TestComputeTotalsForMonth(t *testing.T) {
	l := core.Ledger{
		Incomes:     []core.Income{inc("i1", 2024, 1, 1, 5000000, "Salary"), inc("i2", 2024, 2, 1, 100, "Salary")},
		Expenses:    []core.Expense{exp("e1", 2024, 1, 3, 2000000, "Rent/EMI", core.Needs)},
		Investments: []core.Investment{inv("v1", 2024, 1, 9, 1000000, "Stocks")},
	}
	got := ComputeTotals(l, ForMonth("2024-01"))
	want := Totals{Income: core.Cents(5000000), Expenses: core.Cents(2000000), Investments: core.Cents(1000000), Savings: core.Cents(2000000)}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	empty := ComputeTotals(l, ForMonth("2023-07"))
	if empty != (Totals{}) {
		t.Fatalf("expected zero totals, got %+v", empty)
	}
}

func TestComputeTotalsNegativeSavings(t *testing.T) {
	l := core.Ledger{Expenses: []core.Expense{exp("e", 2024, 1, 1, 500, "x", core.Wants)}}
	if got := ComputeTotals(l, All()).Savings.Cents; got != -500 {
		t.Fatalf("expected -500, got %d", got)
	}
}

func TestComputeTotalsForPeriod(t *testing.T) {
	l := core.Ledger{Expenses: []core.Expense{
		exp("a", 2024, 1, 1, 100, "x", core.Needs),
		exp("b", 2024, 3, 31, 200, "x", core.Needs),
		exp("c", 2024, 4, 1, 400, "x", core.Needs),
	}}
	if got := ComputeTotals(l, ForPeriod(core.Quarterly, "2024-Q1")).Expenses.Cents; got != 300 {
		t.Fatalf("Q1 expected 300, got %d", got)
	}
	if got := ComputeTotals(l, ForPeriod(core.Yearly, "2024")).Expenses.Cents; got != 700 {
		t.Fatalf("year expected 700, got %d", got)
	}
}

func TestNeedsWants(t *testing.T) {
	cases := []struct {
		name         string
		needs, wants int64
		np, wp       int64
	}{
		{"example", 3000, 1000, 75, 25},
		{"thirds", 2, 1, 67, 33},
		{"half rounds up", 1, 7, 13, 87}, // 12.5
		{"only wants", 0, 500, 0, 100},
		{"only needs", 500, 0, 100, 0},
		{"empty", 0, 0, 0, 0},
	}
	for _, tc := range cases {
		var ex []core.Expense
		if tc.needs > 0 {
			ex = append(ex, exp("n", 2024, 1, 1, tc.needs, "x", core.Needs))
		}
		if tc.wants > 0 {
			ex = append(ex, exp("w", 2024, 1, 1, tc.wants, "y", core.Wants))
		}
		s := NeedsWants(ex)
		if s.NeedsPct != tc.np || s.WantsPct != tc.wp {
			t.Fatalf("%s: expected %d/%d, got %d/%d", tc.name, tc.np, tc.wp, s.NeedsPct, s.WantsPct)
		}
		if (tc.needs+tc.wants) > 0 && s.NeedsPct+s.WantsPct != 100 {
			t.Fatalf("%s: percentages must sum to 100", tc.name)
		}
	}
}

func TestNeedsWantsIgnoresOtherTypes(t *testing.T) {
	ex := []core.Expense{
		exp("n", 2024, 1, 1, 3000, "Rent", core.Needs),
		exp("w", 2024, 1, 2, 1000, "Dining Out", core.Wants),
		exp("o", 2024, 1, 3, 6000, "Legacy", core.ExpenseType("savings")),
	}
	s := NeedsWants(ex)
	if s.Needs.Cents != 3000 || s.Wants.Cents != 1000 {
		t.Fatalf("expected needs 3000 and wants 1000, got %+v", s)
	}
	if s.NeedsPct != 75 || s.WantsPct != 25 {
		t.Fatalf("expected 75/25, got %d/%d", s.NeedsPct, s.WantsPct)
	}
}

func TestCategoryBreakdownSortedAndStable(t *testing.T) {
	ex := []core.Expense{
		exp("1", 2024, 1, 1, 100, "Dining Out", core.Wants),
		exp("2", 2024, 1, 1, 300, "Travel", core.Wants),
		exp("3", 2024, 1, 1, 200, "Hobbies", core.Wants),
		exp("4", 2024, 1, 1, 100, "Shopping", core.Wants),
		exp("5", 2024, 1, 1, 100, "Dining Out", core.Wants),
		exp("6", 2024, 1, 1, 999, "Rent/EMI", core.Needs),
	}
	got := CategoryBreakdown(ex, core.Wants)
	want := []CategoryAmount{
		{"Travel", core.Cents(300)},
		{"Dining Out", core.Cents(200)},
		{"Hobbies", core.Cents(200)},
		{"Shopping", core.Cents(100)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if len(CategoryBreakdown(nil, core.Needs)) != 0 {
		t.Fatalf("expected empty breakdown")
	}
}

func TestInvestmentBreakdown(t *testing.T) {
	invs := []core.Investment{
		inv("1", 2023, 1, 1, 100, "Gold"),
		inv("2", 2024, 1, 1, 500, "Stocks"),
		inv("3", 2024, 6, 1, 50, "Gold"),
	}
	got := InvestmentBreakdown(invs)
	want := []CategoryAmount{{"Gold", core.Cents(150)}, {"Stocks", core.Cents(500)}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestMonthlySeries(t *testing.T) {
	l := core.Ledger{
		Incomes:  []core.Income{inc("i", 2024, 3, 1, 1000, "Salary")},
		Expenses: []core.Expense{exp("e", 2024, 3, 2, 400, "x", core.Needs), exp("old", 2023, 3, 2, 400, "x", core.Needs)},
	}
	s := MonthlySeries(l, 2024)
	if len(s.Points) != 12 {
		t.Fatalf("expected 12 points, got %d", len(s.Points))
	}
	if s.Points[0].Month != "Jan" || s.Points[0].FullMonth != "January 2024" || s.Points[11].Month != "Dec" {
		t.Fatalf("unexpected labels: %+v %+v", s.Points[0], s.Points[11])
	}
	mar := s.Points[2]
	if mar.Savings.Cents != 600 || mar.Expenses.Cents != 400 || mar.Key != "2024-03" {
		t.Fatalf("unexpected march: %+v", mar)
	}
	if ev := s.ExpensesView(); ev[2].Value.Cents != 400 || ev[0].Value.Cents != 0 {
		t.Fatalf("unexpected expenses view: %+v", ev[2])
	}
	if !s.HasData() {
		t.Fatalf("expected data")
	}
	if MonthlySeries(core.Ledger{}, 2024).HasData() {
		t.Fatalf("empty ledger has no data")
	}
}

func TestLifetimeAverages(t *testing.T) {
	l := core.Ledger{
		Incomes: []core.Income{
			inc("i1", 2024, 1, 1, 5000000, "Salary"),
			inc("i2", 2024, 2, 1, 5000000, "Salary"),
		},
		Expenses: []core.Expense{
			exp("e1", 2024, 1, 1, 2000000, "Rent", core.Needs),
			exp("e2", 2024, 2, 1, 3000000, "Rent", core.Needs),
		},
		// March is investment only and must not count as a month.
		Investments: []core.Investment{
			inv("v1", 2024, 3, 1, 1000000, "Gold"),
			inv("v2", 2024, 2, 1, 400000, "Stocks"),
		},
	}
	a := LifetimeAverages(l)
	want := Averages{
		AvgSalary:                core.Cents(5000000),
		AvgExpenses:              core.Cents(2500000),
		AvgInvestments:           core.Cents(200000),
		AvgSavings:               core.Cents(2300000),
		TotalInvestmentsTillDate: core.Cents(1400000),
		Months:                   2,
	}
	if a != want {
		t.Fatalf("expected %+v, got %+v", want, a)
	}
}

func TestLifetimeAveragesIgnoreInvestmentOnlyMonths(t *testing.T) {
	l := core.Ledger{
		Incomes:     []core.Income{inc("i1", 2024, 1, 5, 100000, "Salary")},
		Investments: []core.Investment{inv("v1", 2024, 3, 1, 50000, "Gold")},
	}
	a := LifetimeAverages(l)
	if a.Months != 1 {
		t.Fatalf("expected 1 month, got %d", a.Months)
	}
	if !a.AvgInvestments.IsZero() {
		t.Fatalf("expected zero avg investments, got %s", a.AvgInvestments)
	}
	if a.AvgSavings.Cents != 100000 {
		t.Fatalf("expected avg savings 1000.00, got %s", a.AvgSavings)
	}
	if a.TotalInvestmentsTillDate.Cents != 50000 {
		t.Fatalf("expected total investments 500.00, got %s", a.TotalInvestmentsTillDate)
	}
}

func TestLifetimeAveragesRoundingKeepsIdentity(t *testing.T) {
	l := core.Ledger{
		Incomes:  []core.Income{inc("a", 2024, 1, 1, 100, "x"), inc("b", 2024, 2, 1, 1, "x")},
		Expenses: []core.Expense{exp("c", 2024, 3, 1, 1, "x", core.Needs)},
	}
	a := LifetimeAverages(l)
	if a.Months != 3 {
		t.Fatalf("expected 3 months, got %d", a.Months)
	}
	if a.AvgSalary.Cents != 34 { // 101/3 = 33.67
		t.Fatalf("unexpected avg salary %d", a.AvgSalary.Cents)
	}
	if a.AvgSavings != a.AvgSalary.Sub(a.AvgExpenses).Sub(a.AvgInvestments) {
		t.Fatalf("identity broken: %+v", a)
	}
}

func TestLifetimeAveragesEmpty(t *testing.T) {
	l := core.Ledger{Investments: []core.Investment{inv("v", 2024, 1, 1, 100, "Gold")}}
	if a := LifetimeAverages(l); a != (Averages{}) {
		t.Fatalf("expected zeros, got %+v", a)
	}
}

func TestBuildBreakdownDefaultsToNewestPeriod(t *testing.T) {
	l := core.Ledger{Expenses: []core.Expense{
		exp("a", 2024, 1, 5, 100, "Groceries", core.Needs),
		exp("b", 2024, 5, 5, 300, "Groceries", core.Needs),
		exp("c", 2024, 5, 6, 100, "Travel", core.Wants),
	}}
	b := BuildBreakdown(l, core.Quarterly, "")
	if b.Period != "2024-Q2" || !reflect.DeepEqual(b.Periods, []string{"2024-Q2", "2024-Q1"}) {
		t.Fatalf("unexpected periods: %s %v", b.Period, b.Periods)
	}
	if b.Split.NeedsPct != 75 || b.Totals.Expenses.Cents != 400 {
		t.Fatalf("unexpected figures: %+v", b)
	}
}

func TestBuildDashboard(t *testing.T) {
	l := core.Ledger{
		Incomes:     []core.Income{inc("i", 2024, 1, 1, 1000, "Salary")},
		Expenses:    []core.Expense{exp("e", 2024, 1, 2, 300, "Groceries", core.Needs), exp("f", 2024, 2, 2, 50, "Travel", core.Wants)},
		Investments: []core.Investment{inv("v", 2023, 12, 1, 10, "Gold")},
	}
	d := BuildDashboard(l, core.NewDate(2024, 1, 20))
	if d.Month != "2024-01" || d.Totals.Savings.Cents != 700 || d.Split.NeedsPct != 100 {
		t.Fatalf("unexpected dashboard: %+v", d)
	}
	if len(d.Investments) != 1 || len(d.Wants) != 0 {
		t.Fatalf("unexpected breakdowns: %+v", d)
	}
}
