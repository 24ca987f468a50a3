// Package memory provides an in-process import source. It serves rows that
// were loaded from a seed file or added at runtime, which makes it the
// default source for local runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"rupaiya/internal/importer"
)

type Source struct {
	mu   sync.Mutex
	rows []importer.ExternalRecord
	err  error
}

var _ importer.Source = (*Source)(nil)

func New(rows ...importer.ExternalRecord) *Source {
	return &Source{rows: append([]importer.ExternalRecord(nil), rows...)}
}

// NewFromFile loads rows from a JSON file holding either an array of rows
// or a Sheety style object {"sheet1": [...]}. A missing file yields an
// empty source.
func NewFromFile(path string) (*Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("read import seed: %w", err)
	}
	var rows []importer.ExternalRecord
	if err := json.Unmarshal(b, &rows); err != nil {
		var wrapped map[string][]importer.ExternalRecord
		if werr := json.Unmarshal(b, &wrapped); werr != nil {
			return nil, fmt.Errorf("decode import seed: %w", err)
		}
		rows = wrapped[importer.DefaultSheetyField]
	}
	return New(rows...), nil
}

func (s *Source) Name() string { return "memory" }

// Add appends rows served by later fetches.
func (s *Source) Add(rows ...importer.ExternalRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
}

// FailWith makes subsequent fetches fail with err wrapped in ErrTransport;
// nil clears it.
func (s *Source) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Source) Fetch(context.Context) ([]importer.ExternalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, fmt.Errorf("%w: %v", importer.ErrTransport, s.err)
	}
	return append([]importer.ExternalRecord(nil), s.rows...), nil
}
