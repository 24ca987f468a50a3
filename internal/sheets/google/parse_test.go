package google

import (
	"strings"
	"testing"
)

func TestParseRows(t *testing.T) {
	values := [][]interface{}{
		{"ID", "Date", "Transaction Kind", "Amount", "Description", "incomeSource/ExpenseCategory/investmentType", "transactionType"},
		{2.0, "05 January 2024", "Expense", "₹1,250.50", "dinner", "Dining Out", "Wants"},
		{},
		{"", "", "", "", ""},
		{3.0, "06 January 2024", "Income", "oops"},
	}
	rows, err := parseRows(values)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	r := rows[0]
	if r.ID != "2" || r.Date != "05 January 2024" || r.Kind != "Expense" || r.Amount.Cents != 125050 ||
		r.Label != "Dining Out" || r.Type != "Wants" || r.Description != "dinner" {
		t.Fatalf("unexpected row: %+v", r)
	}
	if rows[1].Amount.Cents != 0 || rows[1].Label != "" {
		t.Fatalf("unparseable amount should be zero: %+v", rows[1])
	}
}

func TestParseRowsMissingHeader(t *testing.T) {
	_, err := parseRows([][]interface{}{{"id", "date", "amount"}})
	if err == nil || !strings.Contains(err.Error(), "transactionKind") {
		t.Fatalf("expected missing header error, got %v", err)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1250", 125000, true},
		{"1250,5", 125050, true},
		{"$1,250.50", 125050, true},
		{"50,000", 5000000, true},
		{"₹50,000", 5000000, true},
		{"1,25,000", 12500000, true},
		{"1,250,000.75", 125000075, true},
		{"12,50", 1250, true},
		{"", 0, false},
		{"-5", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseAmount(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%q: expected %d/%v, got %d/%v", tc.in, tc.want, tc.ok, got, ok)
		}
	}
}
