package importer

import (
	"context"
	"sync"
)

// Guard admits a single import at a time. TryAcquire returns ErrInFlight
// instead of waiting when another import holds the guard.
type Guard interface {
	TryAcquire(ctx context.Context) (release func(), err error)
}

// LocalGuard serialises imports within one process.
type LocalGuard struct {
	mu sync.Mutex
}

func NewLocalGuard() *LocalGuard { return &LocalGuard{} }

func (g *LocalGuard) TryAcquire(context.Context) (func(), error) {
	if !g.mu.TryLock() {
		return nil, ErrInFlight
	}
	var once sync.Once
	return func() { once.Do(g.mu.Unlock) }, nil
}
