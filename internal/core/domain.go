package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day format stored on every record.
const DateLayout = "2006-01-02"

// MonthLayout is the month key format, always the first seven characters of a date.
const MonthLayout = "2006-01"

const (
	Needs ExpenseType = "needs"
	Wants ExpenseType = "wants"
)

const (
	KindIncome     Kind = "income"
	KindExpense    Kind = "expense"
	KindInvestment Kind = "investment"
)

type (
	// ExpenseType classifies an expense as essential or discretionary.
	ExpenseType string

	// Kind names one of the three record collections.
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is the shape shared by every record. Month always equals
	// the first seven characters of Date; use the New* constructors.
	Transaction struct {
		ID          string `json:"id"`
		Amount      Money  `json:"amount"`
		Description string `json:"description"`
		Date        Date   `json:"date"`
		Month       string `json:"month"`
	}

	Income struct {
		Transaction
		Source string `json:"source"`
	}

	Expense struct {
		Transaction
		Category string      `json:"category"`
		Type     ExpenseType `json:"type"`
	}

	Investment struct {
		Transaction
		Type string `json:"type"`
	}

	// Ledger holds the three collections of a session. Index 0 is the newest
	// record entered by hand; imported records are appended at the end.
	Ledger struct {
		Incomes     []Income     `json:"income"`
		Expenses    []Expense    `json:"expenses"`
		Investments []Investment `json:"investments"`
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyLabel         = errors.New("empty label")
	ErrInvalidExpenseType = errors.New("invalid expense type")
	ErrMonthMismatch      = errors.New("month does not match date")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidKind        = errors.New("invalid record kind")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (d Date) Year() int { return d.Time.Year() }

// Month returns the month as 1-12
func (d Date) Month() int { return int(d.Time.Month()) }

// MonthKey returns the YYYY-MM key of the month containing d.
func (d Date) MonthKey() string { return d.Format(MonthLayout) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseExpenseType maps a free label to an expense type: "wants" in any
// letter case is Wants, everything else is Needs.
func ParseExpenseType(label string) ExpenseType {
	if strings.EqualFold(strings.TrimSpace(label), string(Wants)) {
		return Wants
	}
	return Needs
}

// ParseKind accepts singular or plural collection names.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "incomes":
		return KindIncome, nil
	case "expense", "expenses":
		return KindExpense, nil
	case "investment", "investments":
		return KindInvestment, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

func newTransaction(id string, d Date, amount Money, description string) Transaction {
	return Transaction{
		ID:          id,
		Amount:      amount,
		Description: strings.TrimSpace(description),
		Date:        d,
		Month:       d.MonthKey(),
	}
}

// NewIncome builds an income record; date and month are derived from d together.
func NewIncome(id string, d Date, amount Money, source, description string) Income {
	return Income{Transaction: newTransaction(id, d, amount, description), Source: strings.TrimSpace(source)}
}

// NewExpense builds an expense record.
func NewExpense(id string, d Date, amount Money, category string, typ ExpenseType, description string) Expense {
	return Expense{
		Transaction: newTransaction(id, d, amount, description),
		Category:    strings.TrimSpace(category),
		Type:        typ,
	}
}

// NewInvestment builds an investment record.
func NewInvestment(id string, d Date, amount Money, typ, description string) Investment {
	return Investment{Transaction: newTransaction(id, d, amount, description), Type: strings.TrimSpace(typ)}
}

// Base returns the shared part of a record.
func (t Transaction) Base() Transaction { return t }

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("empty id")
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Month != t.Date.MonthKey() {
		return ErrMonthMismatch
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (i Income) Validate() error {
	if err := i.Transaction.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(i.Source) == "" {
		return fmt.Errorf("%w: source", ErrEmptyLabel)
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Transaction.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return fmt.Errorf("%w: category", ErrEmptyLabel)
	}
	switch e.Type {
	case Needs, Wants:
	default:
		return ErrInvalidExpenseType
	}
	return nil
}

func (inv Investment) Validate() error {
	if err := inv.Transaction.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(inv.Type) == "" {
		return fmt.Errorf("%w: investment type", ErrEmptyLabel)
	}
	return nil
}

// IDs returns the set of ids present in any of the three collections.
func (l Ledger) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(l.Incomes)+len(l.Expenses)+len(l.Investments))
	for _, r := range l.Incomes {
		ids[r.ID] = struct{}{}
	}
	for _, r := range l.Expenses {
		ids[r.ID] = struct{}{}
	}
	for _, r := range l.Investments {
		ids[r.ID] = struct{}{}
	}
	return ids
}

// Len is the total number of records.
func (l Ledger) Len() int {
	return len(l.Incomes) + len(l.Expenses) + len(l.Investments)
}

// Remove deletes the record with the given id from the collection of kind k.
// It reports whether a record was removed.
func (l *Ledger) Remove(k Kind, id string) bool {
	switch k {
	case KindIncome:
		return removeByID(&l.Incomes, id)
	case KindExpense:
		return removeByID(&l.Expenses, id)
	case KindInvestment:
		return removeByID(&l.Investments, id)
	}
	return false
}

func removeByID[T Record](recs *[]T, id string) bool {
	for i, r := range *recs {
		if r.Base().ID == id {
			*recs = append((*recs)[:i:i], (*recs)[i+1:]...)
			return true
		}
	}
	return false
}
