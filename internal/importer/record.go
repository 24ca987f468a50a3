// Package importer reconciles transactions pulled from an external sheet
// into the ledger. Imports only ever append; records already present are
// identified by a prefixed external id and left untouched.
package importer

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"rupaiya/internal/core"
)

// Kind labels used by the sheet.
const (
	KindIncome     = "Income"
	KindExpense    = "Expense"
	KindInvestment = "Investment"
)

// DefaultPrefix namespaces imported ids.
const DefaultPrefix = "sheety"

// ExternalRecord is one row of the external sheet as served over JSON.
type ExternalRecord struct {
	ID          ExternalID `json:"id"`
	Date        string     `json:"date"`
	Kind        string     `json:"transactionKind"`
	Amount      Amount     `json:"amount"`
	Description string     `json:"description"`
	Label       string     `json:"incomeSource/ExpenseCategory/investmentType"`
	Type        string     `json:"transactionType"`
}

// ExternalID accepts ids written either as JSON numbers or strings.
type ExternalID string

func (id *ExternalID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		*id = ExternalID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ExternalID(n.String())
	return nil
}

func (id ExternalID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// Amount is a lenient core.Money: values that are not numbers decode to
// zero so the row is skipped as incomplete rather than failing the batch.
type Amount struct {
	core.Money
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	if err := a.Money.UnmarshalJSON(b); err != nil {
		a.Money = core.Money{}
	}
	return nil
}

// Value returns the amount as core.Money.
func (a Amount) Value() core.Money { return a.Money }
