package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// MemoryStore keeps collections in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	writer chan struct{}
}

var _ Locker = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte), writer: make(chan struct{}, 1)}
}

// NewMemoryStoreFromDir seeds the store from seed_<key>.json files in dir.
// Missing files are ignored.
func NewMemoryStoreFromDir(dir string) (*MemoryStore, error) {
	s := NewMemoryStore()
	if dir == "" {
		return s, nil
	}
	for _, key := range []string{KeyIncome, KeyExpenses, KeyInvestments} {
		b, err := os.ReadFile(filepath.Join(dir, "seed_"+key+".json"))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read seed %s: %w", key, err)
		}
		s.data[key] = b
	}
	return s, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) SetMany(_ context.Context, entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range entries {
		s.data[k] = append([]byte(nil), v...)
	}
	return nil
}

// Lock admits one writer at a time among everything sharing the store.
func (s *MemoryStore) Lock(ctx context.Context) (func(), error) {
	select {
	case s.writer <- struct{}{}:
		return sync.OnceFunc(func() { <-s.writer }), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
