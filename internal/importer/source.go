package importer

import (
	"context"
	"errors"
	"strconv"
)

var (
	// ErrTransport marks a failed fetch; nothing from the batch is applied.
	ErrTransport = errors.New("import transport failure")
	// ErrInFlight is returned while another import is still running.
	ErrInFlight = errors.New("import already in progress")
)

// Source yields the full current batch of external rows.
type Source interface {
	Fetch(ctx context.Context) ([]ExternalRecord, error)
	Name() string
}

// Status summarises an import run.
type Status string

const (
	StatusImported Status = "imported"
	StatusUpToDate Status = "up_to_date"
)

// Report is what callers show after an import.
type Report struct {
	Source  string `json:"source"`
	Status  Status `json:"status"`
	Added   int    `json:"added"`
	Skipped []Skip `json:"skipped,omitempty"`
}

// NewReport derives the status from the number of added records.
func NewReport(source string, r Result) Report {
	st := StatusImported
	if r.Added() == 0 {
		st = StatusUpToDate
	}
	return Report{Source: source, Status: st, Added: r.Added(), Skipped: r.Skipped}
}

// Message is the user facing sentence for the report.
func (r Report) Message() string {
	if r.Status == StatusUpToDate {
		return "Your records are already up-to-date."
	}
	if r.Added == 1 {
		return "1 new transaction has been added."
	}
	return strconv.Itoa(r.Added) + " new transactions have been added."
}
