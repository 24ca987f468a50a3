package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"+5", 0, false},
		{"1e3", 100000, true},
		{"0.004", 0, false},
		{"92233720368547758.07", 9223372036854775807, true},
		{"92233720368547758.08", 0, false},
		{"100000000000000000000", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseMoneyMatchesJSON(t *testing.T) {
	for _, in := range []string{"1e3", "12,50", "0.005", "1250.505"} {
		parsed, err := ParseMoney(in)
		if err != nil {
			t.Fatalf("ParseMoney(%q): %v", in, err)
		}
		var decoded Money
		if err := json.Unmarshal([]byte(`"`+in+`"`), &decoded); err != nil {
			t.Fatalf("Unmarshal(%q): %v", in, err)
		}
		if parsed != decoded {
			t.Fatalf("%q: ParseMoney %s, JSON %s", in, parsed, decoded)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Cents(5000000))
	if err != nil || string(b) != "50000" {
		t.Fatalf("got %s err=%v", b, err)
	}
	b, _ = json.Marshal(Cents(1250))
	if string(b) != "12.5" {
		t.Fatalf("got %s", b)
	}

	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{`1500`, 150000, true},
		{`12.5`, 1250, true},
		{`"1500"`, 150000, true},
		{`"12,50"`, 1250, true},
		{`0.005`, 1, true},
		{`null`, 0, true},
		{`""`, 0, true},
		{`"abc"`, 0, false},
		{`true`, 0, false},
		{`1e3`, 100000, true},
		{`"100000000000000000000"`, 0, false},
		{`100000000000000000000`, 0, false},
		{`-5`, 0, false},
		{`0`, 0, false},
	}
	for _, tc := range cases {
		var m Money
		err := json.Unmarshal([]byte(tc.in), &m)
		if tc.ok && (err != nil || m.Cents != tc.want) {
			t.Fatalf("%s: expected %d, got %d (err=%v)", tc.in, tc.want, m.Cents, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.in)
		}
	}
}

func TestMoneyFromDecimal(t *testing.T) {
	got, err := MoneyFromDecimal(decimal.RequireFromString("33.335"))
	if err != nil || got.Cents != 3334 {
		t.Fatalf("expected 3334, got %d (err=%v)", got.Cents, err)
	}
	if _, err := MoneyFromDecimal(decimal.RequireFromString("1e30")); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount for an out of range amount, got %v", err)
	}
	if got, err := MoneyFromDecimal(decimal.RequireFromString("-2.5")); err != nil || got.Cents != -250 {
		t.Fatalf("expected -250, got %d (err=%v)", got.Cents, err)
	}
	if got := Cents(123456).String(); got != "1234.56" {
		t.Fatalf("got %s", got)
	}
}
