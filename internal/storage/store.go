// Package storage persists the ledger collections. Each collection is kept
// as one JSON document under its key and always read and written whole.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"rupaiya/internal/core"
)

// Collection keys.
const (
	KeyIncome      = "income"
	KeyExpenses    = "expenses"
	KeyInvestments = "investments"
)

// ErrNotFound is returned by Get for a key that was never written.
var ErrNotFound = errors.New("key not found")

// Store is the persistence port. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetMany writes all entries atomically where the backend allows it.
	SetMany(ctx context.Context, entries map[string][]byte) error
	Ping(ctx context.Context) error
	Close() error
}

// Load decodes the collection stored under key. A missing key is an empty
// collection.
func Load[T any](ctx context.Context, s Store, key string) ([]T, error) {
	b, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	var out []T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func encode[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

// LoadLedger reads the three collections.
func LoadLedger(ctx context.Context, s Store) (core.Ledger, error) {
	var l core.Ledger
	var err error
	if l.Incomes, err = Load[core.Income](ctx, s, KeyIncome); err != nil {
		return core.Ledger{}, err
	}
	if l.Expenses, err = Load[core.Expense](ctx, s, KeyExpenses); err != nil {
		return core.Ledger{}, err
	}
	if l.Investments, err = Load[core.Investment](ctx, s, KeyInvestments); err != nil {
		return core.Ledger{}, err
	}
	return l, nil
}

// SaveLedger writes the three collections in one SetMany call.
func SaveLedger(ctx context.Context, s Store, l core.Ledger) error {
	inc, err := encode(l.Incomes)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyIncome, err)
	}
	exp, err := encode(l.Expenses)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyExpenses, err)
	}
	inv, err := encode(l.Investments)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyInvestments, err)
	}
	return s.SetMany(ctx, map[string][]byte{
		KeyIncome:      inc,
		KeyExpenses:    exp,
		KeyInvestments: inv,
	})
}
