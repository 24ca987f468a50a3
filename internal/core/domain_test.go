package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestConstructorsSetMonthFromDate(t *testing.T) {
	d := NewDate(2024, 3, 9)
	in := NewIncome("1", d, Cents(100), "Salary", "")
	ex := NewExpense("2", d, Cents(100), "Groceries", Needs, " weekly shop ")
	iv := NewInvestment("3", d, Cents(100), "Gold", "")
	for _, tx := range []Transaction{in.Transaction, ex.Transaction, iv.Transaction} {
		if tx.Month != "2024-03" || tx.Date.String() != "2024-03-09" {
			t.Fatalf("unexpected date/month: %s %s", tx.Date, tx.Month)
		}
		if tx.Month != tx.Date.String()[:7] {
			t.Fatalf("month must be date prefix")
		}
	}
	if ex.Description != "weekly shop" {
		t.Fatalf("description not trimmed: %q", ex.Description)
	}
}

func TestRecordValidate(t *testing.T) {
	d := NewDate(2025, 1, 1)
	good := NewExpense("x", d, Cents(100), "Rent/EMI", Needs, "ok")
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	mismatch := good
	mismatch.Month = "2025-02"
	noCat := NewExpense("x", d, Cents(100), " ", Needs, "")
	badType := NewExpense("x", d, Cents(100), "Rent", ExpenseType("luxury"), "")
	zero := NewExpense("x", d, Cents(0), "Rent", Needs, "")
	long := NewExpense("x", d, Cents(1), "Rent", Needs, strings.Repeat("a", 201))

	cases := []struct {
		e    Expense
		want error
	}{
		{mismatch, ErrMonthMismatch},
		{noCat, ErrEmptyLabel},
		{badType, ErrInvalidExpenseType},
		{zero, ErrInvalidAmount},
		{long, ErrDescriptionTooLong},
	}
	for i, tc := range cases {
		if err := tc.e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}

	if err := NewIncome("i", d, Cents(5), "", "").Validate(); !errors.Is(err, ErrEmptyLabel) {
		t.Fatalf("income without source should fail, got %v", err)
	}
	if err := NewInvestment("v", d, Cents(5), "", "").Validate(); !errors.Is(err, ErrEmptyLabel) {
		t.Fatalf("investment without type should fail, got %v", err)
	}
}

func TestParseExpenseType(t *testing.T) {
	cases := map[string]ExpenseType{
		"wants":   Wants,
		"WANTS":   Wants,
		" Wants ": Wants,
		"needs":   Needs,
		"":        Needs,
		"want":    Needs,
	}
	for in, want := range cases {
		if got := ParseExpenseType(in); got != want {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}
}

func TestLedgerJSONShape(t *testing.T) {
	l := Ledger{
		Incomes:  []Income{NewIncome("1", NewDate(2024, 1, 5), Cents(5000000), "Salary", "")},
		Expenses: []Expense{NewExpense("2", NewDate(2024, 1, 6), Cents(1250), "Groceries", Wants, "")},
	}
	b, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, frag := range []string{
		`"income":[{"id":"1","amount":50000,"description":"","date":"2024-01-05","month":"2024-01","source":"Salary"}]`,
		`"category":"Groceries","type":"wants"`,
		`"investments":null`,
	} {
		if !strings.Contains(s, frag) {
			t.Fatalf("missing %s in %s", frag, s)
		}
	}

	var back Ledger
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Expenses[0].Date.Equal(l.Expenses[0].Date.Time) || back.Expenses[0].Amount.Cents != 1250 {
		t.Fatalf("round trip mismatch: %+v", back.Expenses[0])
	}
}

func TestLedgerRemove(t *testing.T) {
	d := NewDate(2024, 1, 1)
	l := Ledger{Expenses: []Expense{
		NewExpense("a", d, Cents(1), "x", Needs, ""),
		NewExpense("b", d, Cents(1), "x", Needs, ""),
	}}
	if !l.Remove(KindExpense, "a") {
		t.Fatalf("expected removal")
	}
	if l.Remove(KindIncome, "b") {
		t.Fatalf("id belongs to another collection")
	}
	if len(l.Expenses) != 1 || l.Expenses[0].ID != "b" {
		t.Fatalf("unexpected remaining: %+v", l.Expenses)
	}
}

func TestIDGeneratorMonotonic(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	g := NewIDGeneratorWithClock(func() time.Time { return fixed })
	a, b, c := g.Next(), g.Next(), g.Next()
	if a != "1700000000000" || b != "1700000000001" || c != "1700000000002" {
		t.Fatalf("unexpected ids %s %s %s", a, b, c)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"incomes": KindIncome, "Expense": KindExpense, "investments": KindInvestment} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %s err=%v", in, got, err)
		}
	}
	if _, err := ParseKind("loans"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}
