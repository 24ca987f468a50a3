package importer

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rupaiya/internal/core"
)

// ExternalDateLayout is the sheet's date format, e.g. "05 January 2024".
// Single digit days and any letter case in the month name are accepted.
const ExternalDateLayout = "2 January 2006"

// Skip reasons reported for rejected rows.
const (
	ReasonDuplicate   = "duplicate"
	ReasonIncomplete  = "incomplete"
	ReasonInvalidDate = "invalid date"
	ReasonUnknownKind = "unknown kind"
)

// Skip records why a row was not imported.
type Skip struct {
	ExternalID string `json:"externalId"`
	Reason     string `json:"reason"`
}

// Result holds the records accepted from a batch, ready to be appended to
// the existing collections in the order they were read.
type Result struct {
	Incomes     []core.Income
	Expenses    []core.Expense
	Investments []core.Investment
	Skipped     []Skip
}

// Added is the number of new records across the three collections.
func (r Result) Added() int {
	return len(r.Incomes) + len(r.Expenses) + len(r.Investments)
}

// Apply appends the accepted records to l.
func (r Result) Apply(l core.Ledger) core.Ledger {
	l.Incomes = append(l.Incomes, r.Incomes...)
	l.Expenses = append(l.Expenses, r.Expenses...)
	l.Investments = append(l.Investments, r.Investments...)
	return l
}

// ParseExternalDate parses the sheet's "dd MonthName yyyy" dates.
func ParseExternalDate(s string) (core.Date, error) {
	t, err := time.Parse(ExternalDateLayout, strings.TrimSpace(s))
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
	}
	return core.Date{Time: t}, nil
}

// Reconcile turns a batch of external rows into new records. Rows whose
// prefixed id already exists in existing, or earlier in the same batch, are
// skipped, as are rows lacking a date, kind or positive amount and rows
// with an unparseable date or unknown kind. Reconcile never fails as a
// whole; per-row problems are reported in Skipped and logged at warn.
func Reconcile(existing core.Ledger, batch []ExternalRecord, prefix string, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	ids := existing.IDs()
	var res Result

	skip := func(extID, reason string) {
		res.Skipped = append(res.Skipped, Skip{ExternalID: extID, Reason: reason})
	}

	for _, row := range batch {
		extID := string(row.ID)
		id := prefix + "-" + extID
		if _, dup := ids[id]; dup {
			skip(extID, ReasonDuplicate)
			continue
		}
		if strings.TrimSpace(row.Date) == "" || strings.TrimSpace(row.Kind) == "" || row.Amount.Cents <= 0 {
			logger.Warn("Skipping incomplete transaction", "external_id", extID, "date", row.Date, "kind", row.Kind)
			skip(extID, ReasonIncomplete)
			continue
		}
		day, err := ParseExternalDate(row.Date)
		if err != nil {
			logger.Warn("Skipping transaction with invalid date", "external_id", extID, "date", row.Date)
			skip(extID, ReasonInvalidDate)
			continue
		}

		label := strings.TrimSpace(row.Label)
		if label == "" {
			label = "Other"
		}
		switch strings.TrimSpace(row.Kind) {
		case KindIncome:
			res.Incomes = append(res.Incomes, core.NewIncome(id, day, row.Amount.Value(), label, row.Description))
		case KindExpense:
			res.Expenses = append(res.Expenses, core.NewExpense(id, day, row.Amount.Value(), label, core.ParseExpenseType(row.Type), row.Description))
		case KindInvestment:
			res.Investments = append(res.Investments, core.NewInvestment(id, day, row.Amount.Value(), label, row.Description))
		default:
			logger.Warn("Unknown transaction kind", "external_id", extID, "kind", row.Kind)
			skip(extID, ReasonUnknownKind)
			continue
		}
		ids[id] = struct{}{}
	}
	return res
}
