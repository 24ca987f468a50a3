package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"rupaiya/internal/core"
)

func newParser(t *testing.T, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return NewRequestBodyParser(httptest.NewRecorder(), req)
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		key      string
		want     string
		wantJSON bool
		wantErr  bool
	}{
		{"json string", `{"source":" Salary "}`, "source", "Salary", true, false},
		{"json number keeps precision", `{"amount":1250.505}`, "amount", "1250.505", true, false},
		{"form value", "category=Dining+Out&type=wants", "category", "Dining Out", false, false},
		{"control characters dropped", "description=a%00b", "description", "ab", false, false},
		{"missing key", `{"a":"b"}`, "c", "", true, false},
		{"empty body", "", "x", "", false, false},
		{"broken json", `{"a":`, "a", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(t, tt.body)
			err := p.Parse()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Errorf("error should be a bad request: %v", err)
				}
				return
			}
			if got := p.Get(tt.key); got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON() = %v", p.IsJSON())
			}
		})
	}
}

func TestRequestBodyParser_TooLarge(t *testing.T) {
	p := newParser(t, "description="+strings.Repeat("x", maxBodyBytes+1))
	if err := p.Parse(); !errors.Is(err, errBadRequest) {
		t.Errorf("Parse() error = %v, want bad request", err)
	}
}

func TestParseExpenseInput(t *testing.T) {
	p := newParser(t, `{"date":"2024-02-29","amount":"12,345","category":"Bills","type":"Needs","description":"power"}`)
	if err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	in, err := parseExpenseInput(p)
	if err != nil {
		t.Fatalf("parseExpenseInput: %v", err)
	}
	if in.Amount.Cents != 1235 || in.Date.MonthKey() != "2024-02" || in.Type != "Needs" {
		t.Errorf("input = %+v", in)
	}

	p = newParser(t, `{"date":"29/02/2024","amount":"1"}`)
	_ = p.Parse()
	if _, err := parseIncomeInput(p); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("bad date error = %v", err)
	}
	p = newParser(t, `{"date":"2024-02-29","amount":"-1"}`)
	_ = p.Parse()
	if _, err := parseInvestmentInput(p); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("negative amount error = %v", err)
	}
}

func TestQueryParams(t *testing.T) {
	now := time.Date(2024, 7, 9, 10, 0, 0, 0, time.UTC)

	d, err := parseDay(url.Values{}, now)
	if err != nil || d.String() != "2024-07-09" {
		t.Errorf("parseDay default = %v, %v", d, err)
	}
	d, err = parseDay(url.Values{"date": {"2023-01-31"}}, now)
	if err != nil || d.String() != "2023-01-31" {
		t.Errorf("parseDay = %v, %v", d, err)
	}

	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 2024, false},
		{"2021", 2021, false},
		{"0", 0, true},
		{"twenty", 0, true},
	}
	for _, tt := range tests {
		got, err := parseYear(url.Values{"year": {tt.in}}, now)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseYear(%q) = %d, %v", tt.in, got, err)
		}
	}

	if tf, err := parseTimeframe(url.Values{}); err != nil || tf != core.Monthly {
		t.Errorf("parseTimeframe default = %q, %v", tf, err)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrEmptyLabel, http.StatusUnprocessableEntity},
		{errBadRequest, http.StatusBadRequest},
		{core.ErrInvalidKind, http.StatusNotFound},
		{errNoImportSource, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
