// Package export writes a ledger snapshot as JSON, YAML or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"rupaiya/internal/core"
)

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	CSV  Format = "csv"
)

var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat defaults to JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return JSON, nil
	case JSON, YAML, CSV:
		return f, nil
	case "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case YAML:
		return "application/yaml"
	case CSV:
		return "text/csv"
	}
	return "application/json"
}

func (f Format) Filename() string {
	return "rupaiya-ledger." + string(f)
}

func Write(w io.Writer, f Format, l core.Ledger) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(l)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toDocument(l)); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case CSV:
		return writeCSV(w, l)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Row is one record in the flat export shape.
type Row struct {
	Kind        core.Kind `yaml:"-"`
	ID          string    `yaml:"id"`
	Date        string    `yaml:"date"`
	Month       string    `yaml:"month"`
	Amount      amount    `yaml:"amount"`
	Label       string    `yaml:"label"`
	Type        string    `yaml:"type,omitempty"`
	Description string    `yaml:"description,omitempty"`
}

type document struct {
	Income      []Row `yaml:"income"`
	Expenses    []Row `yaml:"expenses"`
	Investments []Row `yaml:"investments"`
}

// amount renders as a plain YAML number with two decimals.
type amount core.Money

func (a amount) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: core.Money(a).String()}, nil
}

func newRow(k core.Kind, t core.Transaction, label, typ string) Row {
	return Row{
		Kind:        k,
		ID:          t.ID,
		Date:        t.Date.String(),
		Month:       t.Month,
		Amount:      amount(t.Amount),
		Label:       label,
		Type:        typ,
		Description: t.Description,
	}
}

// Rows flattens the ledger: incomes, then expenses, then investments, each
// in stored order.
func Rows(l core.Ledger) []Row {
	d := toDocument(l)
	rows := make([]Row, 0, l.Len())
	rows = append(rows, d.Income...)
	rows = append(rows, d.Expenses...)
	return append(rows, d.Investments...)
}

func toDocument(l core.Ledger) document {
	d := document{
		Income:      make([]Row, 0, len(l.Incomes)),
		Expenses:    make([]Row, 0, len(l.Expenses)),
		Investments: make([]Row, 0, len(l.Investments)),
	}
	for _, r := range l.Incomes {
		d.Income = append(d.Income, newRow(core.KindIncome, r.Transaction, r.Source, ""))
	}
	for _, r := range l.Expenses {
		d.Expenses = append(d.Expenses, newRow(core.KindExpense, r.Transaction, r.Category, string(r.Type)))
	}
	for _, r := range l.Investments {
		d.Investments = append(d.Investments, newRow(core.KindInvestment, r.Transaction, r.Type, ""))
	}
	return d
}

var csvHeader = []string{"kind", "id", "date", "month", "amount", "label", "type", "description"}

func writeCSV(w io.Writer, l core.Ledger) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range Rows(l) {
		rec := []string{string(r.Kind), r.ID, r.Date, r.Month, core.Money(r.Amount).String(), r.Label, r.Type, r.Description}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
